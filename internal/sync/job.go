package sync

import (
	"context"
	"time"

	"go.uber.org/zap"

	"crmsync/internal/models"
)

// AssociationClient is the slice of the CRM client the contact job needs.
type AssociationClient interface {
	ContactCompanyAssociations(ctx context.Context, accessToken string, contactIDs []string) (map[string]string, error)
}

// Settings carries the tunables of the core engine; values come from
// config, defaults match the provider limits.
type Settings struct {
	PageSize       int
	OffsetCeiling  int
	FlushThreshold int
	RetryAttempts  int
	RetryBaseDelay time.Duration
}

func (s Settings) withDefaults() Settings {
	if s.PageSize <= 0 {
		s.PageSize = 100
	}
	if s.OffsetCeiling <= 0 {
		s.OffsetCeiling = 9900
	}
	if s.FlushThreshold <= 0 {
		s.FlushThreshold = 2000
	}
	if s.RetryAttempts <= 0 {
		s.RetryAttempts = 2
	}
	if s.RetryBaseDelay <= 0 {
		s.RetryBaseDelay = 5 * time.Second
	}
	return s
}

// JobReport summarizes one entity walk.
type JobReport struct {
	Pages     int
	Records   int
	Events    int
	Skipped   int
	Watermark time.Time
}

// EntitySyncJob walks one entity type for one account, projects each record
// into at most one outbound event, and advances the account's watermark on
// full completion.
type EntitySyncJob struct {
	Entity       *EntitySpec
	Search       SearchClient
	Associations AssociationClient
	Retrier      *Retrier
	Queue        *EventQueue
	Settings     Settings
	Logger       *zap.Logger

	// Checkpoint is invoked after the watermark advances; the runner binds
	// it to the configured persistence strategy.
	Checkpoint func(ctx context.Context) error

	Now func() time.Time
}

func (j *EntitySyncJob) Run(ctx context.Context, account *models.Account) (JobReport, error) {
	settings := j.Settings.withDefaults()
	nowFn := j.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	// One upper bound for the whole walk, so the window stays stable across
	// a long paginated run.
	now := nowFn().UTC()
	watermark := account.Watermark(j.Entity.Name)

	var report JobReport
	pager := &Paginator{
		Client:        j.Search,
		Retrier:       j.Retrier,
		Entity:        j.Entity,
		PageSize:      settings.PageSize,
		OffsetCeiling: settings.OffsetCeiling,
		AccessToken:   account.AccessToken,
		TokenExpiry:   account.AccessTokenExpiry,
		Watermark:     watermark,
		Now:           now,
	}

	for {
		page, err := pager.Next(ctx)
		if err != nil {
			return report, &JobError{Entity: j.Entity.Name, Cause: err}
		}
		if page == nil {
			break
		}
		report.Pages++

		var companies map[string]string
		if j.Entity.NeedsCompanyAssociation && len(page.Results) > 0 {
			ids := make([]string, 0, len(page.Results))
			for _, rec := range page.Results {
				ids = append(ids, rec.ID)
			}
			companies, err = j.Associations.ContactCompanyAssociations(ctx, account.AccessToken, ids)
			if err != nil {
				return report, &JobError{Entity: j.Entity.Name, Cause: &AssociationLookupError{Cause: err}}
			}
		}

		for _, rec := range page.Results {
			report.Records++
			action := ActionUpdated
			if rec.CreatedAt.After(watermark) {
				action = ActionCreated
			}
			ev, ok := j.Entity.Project(rec, action, companies[rec.ID])
			if !ok {
				report.Skipped++
				continue
			}
			j.Queue.Push(ev)
			report.Events++
		}
	}

	account.SetWatermark(j.Entity.Name, now)
	report.Watermark = now
	if j.Checkpoint != nil {
		if err := j.Checkpoint(ctx); err != nil {
			return report, &JobError{Entity: j.Entity.Name, Cause: err}
		}
	}
	if j.Logger != nil {
		j.Logger.Info("entity sync done",
			zap.String("entity", j.Entity.Name),
			zap.String("account", account.Key),
			zap.Int("pages", report.Pages),
			zap.Int("records", report.Records),
			zap.Int("events", report.Events),
			zap.Int("skipped", report.Skipped),
		)
	}
	return report, nil
}
