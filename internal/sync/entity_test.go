package sync

import (
	"testing"
	"time"

	"crmsync/internal/client/crm"
)

var (
	createdAt = time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	updatedAt = time.Date(2023, 6, 2, 10, 0, 0, 0, time.UTC)
)

func contactRecord(props map[string]string) crm.RemoteRecord {
	return crm.RemoteRecord{ID: "101", CreatedAt: createdAt, UpdatedAt: updatedAt, Properties: props}
}

func TestContactCreatedKeepsExactTimestamp(t *testing.T) {
	spec := ContactSpec()
	ev, ok := spec.Project(contactRecord(map[string]string{"email": "a@b.com", "firstname": "Ada"}), ActionCreated, "")
	if !ok {
		t.Fatalf("expected event")
	}
	if ev.ActionName != "Contact Created" {
		t.Fatalf("actionName=%q", ev.ActionName)
	}
	if ev.ActionDate != createdAt.UnixMilli() {
		t.Fatalf("actionDate=%d want %d", ev.ActionDate, createdAt.UnixMilli())
	}
	if ev.Identity != "a@b.com" {
		t.Fatalf("identity=%q", ev.Identity)
	}
}

func TestContactUpdatedShiftsActionDate(t *testing.T) {
	spec := ContactSpec()
	ev, _ := spec.Project(contactRecord(map[string]string{"email": "a@b.com"}), ActionUpdated, "")
	want := updatedAt.UnixMilli() - 2000
	if ev.ActionDate != want {
		t.Fatalf("actionDate=%d want %d", ev.ActionDate, want)
	}
}

func TestContactWithoutEmailSkipped(t *testing.T) {
	spec := ContactSpec()
	if _, ok := spec.Project(contactRecord(map[string]string{"firstname": "Ada"}), ActionCreated, ""); ok {
		t.Fatalf("expected skip")
	}
}

func TestContactCompanySplice(t *testing.T) {
	spec := ContactSpec()
	ev, _ := spec.Project(contactRecord(map[string]string{"email": "a@b.com"}), ActionCreated, "555")
	if ev.Properties["company_id"] != "555" {
		t.Fatalf("company_id=%q", ev.Properties["company_id"])
	}

	ev, _ = spec.Project(contactRecord(map[string]string{"email": "a@b.com"}), ActionCreated, "")
	if _, present := ev.Properties["company_id"]; present {
		t.Fatalf("absent company_id must be filtered out")
	}
}

func TestContactNameJoined(t *testing.T) {
	spec := ContactSpec()
	ev, _ := spec.Project(contactRecord(map[string]string{"email": "a@b.com", "firstname": "Ada", "lastname": "Lovelace"}), ActionCreated, "")
	if ev.Properties["contact_name"] != "Ada Lovelace" {
		t.Fatalf("contact_name=%q", ev.Properties["contact_name"])
	}
	if _, present := ev.Properties["phone"]; present {
		t.Fatalf("empty phone must be filtered out")
	}
}

func TestCompanyActionDateUnshifted(t *testing.T) {
	spec := CompanySpec()
	rec := crm.RemoteRecord{ID: "77", CreatedAt: createdAt, UpdatedAt: updatedAt, Properties: map[string]string{"name": "Acme"}}

	ev, _ := spec.Project(rec, ActionCreated, "")
	if ev.ActionName != "Company Created" || ev.ActionDate != createdAt.UnixMilli() {
		t.Fatalf("created: name=%q date=%d", ev.ActionName, ev.ActionDate)
	}
	if ev.AccountID != "77" {
		t.Fatalf("accountId=%q", ev.AccountID)
	}

	ev, _ = spec.Project(rec, ActionUpdated, "")
	if ev.ActionDate != updatedAt.UnixMilli() {
		t.Fatalf("updated date=%d", ev.ActionDate)
	}
}

func TestCompanyRevenueNormalized(t *testing.T) {
	spec := CompanySpec()
	rec := crm.RemoteRecord{ID: "77", CreatedAt: createdAt, UpdatedAt: updatedAt, Properties: map[string]string{
		"name":          "Acme",
		"annualrevenue": "1200000.00",
	}}
	ev, _ := spec.Project(rec, ActionCreated, "")
	if ev.Properties["annual_revenue"] != "1200000" {
		t.Fatalf("annual_revenue=%q", ev.Properties["annual_revenue"])
	}
}

func TestMeetingShiftsBothActions(t *testing.T) {
	spec := MeetingSpec()
	rec := crm.RemoteRecord{ID: "900", CreatedAt: createdAt, UpdatedAt: updatedAt, Properties: map[string]string{
		"hs_organizer_email": "org@b.com",
		"hs_meeting_title":   "Kickoff",
	}}

	ev, _ := spec.Project(rec, ActionCreated, "")
	if ev.ActionDate != createdAt.UnixMilli()-2000 {
		t.Fatalf("created date=%d", ev.ActionDate)
	}
	ev, _ = spec.Project(rec, ActionUpdated, "")
	if ev.ActionDate != updatedAt.UnixMilli()-2000 {
		t.Fatalf("updated date=%d", ev.ActionDate)
	}
	if ev.Properties["meeting_id"] != "900" {
		t.Fatalf("meeting_id=%q", ev.Properties["meeting_id"])
	}
}

func TestMeetingWithoutOrganizerSkipped(t *testing.T) {
	spec := MeetingSpec()
	rec := crm.RemoteRecord{ID: "900", CreatedAt: createdAt, UpdatedAt: updatedAt, Properties: map[string]string{"hs_meeting_title": "Kickoff"}}
	if _, ok := spec.Project(rec, ActionCreated, ""); ok {
		t.Fatalf("expected skip")
	}
}
