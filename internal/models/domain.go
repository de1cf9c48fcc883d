package models

import (
	"time"
)

// Domain is the tenant aggregate: one sink API key plus every CRM account
// synced under it. Accounts are stored inline as JSON so the aggregate is
// read and written as a unit.
type Domain struct {
	ID        uint       `gorm:"primaryKey"`
	APIKey    string     `gorm:"type:text;not null"`
	Accounts  []*Account `gorm:"serializer:json;type:jsonb"`
	UpdatedAt time.Time
}

func (Domain) TableName() string {
	return "sync_domains"
}

// Account is one connected CRM tenant. Watermarks map entity names to the
// last timestamp fully synced for that entity.
type Account struct {
	Key               string               `json:"key"`
	RefreshToken      string               `json:"refreshToken"`
	AccessToken       string               `json:"accessToken,omitempty"`
	AccessTokenExpiry time.Time            `json:"accessTokenExpiry,omitzero"`
	Watermarks        map[string]time.Time `json:"watermarks,omitempty"`
}

func (a *Account) Watermark(entity string) time.Time {
	if a == nil || a.Watermarks == nil {
		return time.Time{}
	}
	return a.Watermarks[entity]
}

func (a *Account) SetWatermark(entity string, ts time.Time) {
	if a.Watermarks == nil {
		a.Watermarks = map[string]time.Time{}
	}
	a.Watermarks[entity] = ts
}
