package gormrepository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"crmsync/internal/models"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Find loads the domain aggregate. There is one row per deployment; a
// missing row is an error because a run without accounts is a
// misconfiguration, not an empty sync.
func (s *Store) Find(ctx context.Context) (*models.Domain, error) {
	var domain models.Domain
	err := s.db.WithContext(ctx).Order("id").First(&domain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("no sync domain configured")
		}
		return nil, err
	}
	return &domain, nil
}

func (s *Store) Save(ctx context.Context, domain *models.Domain) error {
	if domain == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(domain).Error
}

func (s *Store) SaveReport(ctx context.Context, report *models.SyncRunReport) error {
	if report == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(report).Error
}

func (s *Store) ListReports(ctx context.Context, limit int) ([]models.SyncRunReport, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var reports []models.SyncRunReport
	err := s.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}
