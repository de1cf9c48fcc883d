package sync

import (
	"strings"

	"github.com/shopspring/decimal"

	"crmsync/internal/client/crm"
	"crmsync/internal/sink"
)

const (
	EntityContacts  = "contacts"
	EntityCompanies = "companies"
	EntityMeetings  = "meetings"
)

type Action int

const (
	ActionCreated Action = iota
	ActionUpdated
)

// eventDateSkewMs is subtracted from every action date except Contact
// Created, so the sink orders follow-up events after the identify call
// they belong to.
const eventDateSkewMs = 2000

// EntitySpec describes one syncable entity type: where to search, which
// property drives the modification filter, and how a record projects to an
// outbound event. Project returns false to skip a record.
type EntitySpec struct {
	Name                    string
	ObjectType              string
	FilterProperty          string
	Properties              []string
	NeedsCompanyAssociation bool
	Project                 func(rec crm.RemoteRecord, action Action, companyID string) (sink.Event, bool)
}

// Entities lists every synced entity type in run order.
func Entities() []*EntitySpec {
	return []*EntitySpec{ContactSpec(), CompanySpec(), MeetingSpec()}
}

func ContactSpec() *EntitySpec {
	return &EntitySpec{
		Name:                    EntityContacts,
		ObjectType:              "contacts",
		FilterProperty:          "lastmodifieddate",
		Properties:              []string{"email", "firstname", "lastname", "phone", "lifecyclestage"},
		NeedsCompanyAssociation: true,
		Project: func(rec crm.RemoteRecord, action Action, companyID string) (sink.Event, bool) {
			email := rec.Properties["email"]
			if email == "" {
				return sink.Event{}, false
			}
			name := "Contact Updated"
			date := rec.UpdatedAt.UnixMilli() - eventDateSkewMs
			if action == ActionCreated {
				name = "Contact Created"
				date = rec.CreatedAt.UnixMilli()
			}
			return sink.Event{
				ActionName: name,
				ActionDate: date,
				Identity:   email,
				Properties: filterAbsent(map[string]string{
					"contact_name":    joinName(rec.Properties["firstname"], rec.Properties["lastname"]),
					"phone":           rec.Properties["phone"],
					"lifecycle_stage": rec.Properties["lifecyclestage"],
					"company_id":      companyID,
				}),
			}, true
		},
	}
}

func CompanySpec() *EntitySpec {
	return &EntitySpec{
		Name:           EntityCompanies,
		ObjectType:     "companies",
		FilterProperty: "hs_lastmodifieddate",
		Properties:     []string{"name", "domain", "industry", "annualrevenue", "numberofemployees"},
		Project: func(rec crm.RemoteRecord, action Action, _ string) (sink.Event, bool) {
			if rec.ID == "" {
				return sink.Event{}, false
			}
			name := "Company Updated"
			date := rec.UpdatedAt.UnixMilli()
			if action == ActionCreated {
				name = "Company Created"
				date = rec.CreatedAt.UnixMilli()
			}
			return sink.Event{
				ActionName: name,
				ActionDate: date,
				AccountID:  rec.ID,
				Properties: filterAbsent(map[string]string{
					"company_name":   rec.Properties["name"],
					"domain":         rec.Properties["domain"],
					"industry":       rec.Properties["industry"],
					"annual_revenue": normalizeRevenue(rec.Properties["annualrevenue"]),
					"employee_count": rec.Properties["numberofemployees"],
				}),
			}, true
		},
	}
}

func MeetingSpec() *EntitySpec {
	return &EntitySpec{
		Name:           EntityMeetings,
		ObjectType:     "meetings",
		FilterProperty: "hs_lastmodifieddate",
		Properties:     []string{"hs_meeting_title", "hs_meeting_outcome", "hs_meeting_start_time", "hs_organizer_email"},
		Project: func(rec crm.RemoteRecord, action Action, _ string) (sink.Event, bool) {
			organizer := rec.Properties["hs_organizer_email"]
			if organizer == "" {
				return sink.Event{}, false
			}
			name := "Meeting Updated"
			date := rec.UpdatedAt.UnixMilli() - eventDateSkewMs
			if action == ActionCreated {
				name = "Meeting Created"
				date = rec.CreatedAt.UnixMilli() - eventDateSkewMs
			}
			return sink.Event{
				ActionName: name,
				ActionDate: date,
				Identity:   organizer,
				Properties: filterAbsent(map[string]string{
					"meeting_id":         rec.ID,
					"meeting_title":      rec.Properties["hs_meeting_title"],
					"meeting_outcome":    rec.Properties["hs_meeting_outcome"],
					"meeting_start_time": rec.Properties["hs_meeting_start_time"],
				}),
			}, true
		},
	}
}

// filterAbsent drops keys whose value is empty before emission.
func filterAbsent(props map[string]string) map[string]string {
	out := make(map[string]string, len(props))
	for k, v := range props {
		if v == "" {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// normalizeRevenue parses provider number formatting ("1200000.00") into a
// canonical decimal string. Unparseable values pass through untouched.
func normalizeRevenue(raw string) string {
	if raw == "" {
		return ""
	}
	val, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	return val.String()
}
