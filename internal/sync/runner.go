package sync

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"crmsync/internal/models"
	"crmsync/internal/repository"
)

// TokenRefresher exchanges an account's refresh token for a fresh access
// token and its expiry.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, time.Time, error)
}

// AccountSyncRunner drives one account through the fixed step sequence:
// refresh credentials, sync contacts, companies, meetings, drain the queue,
// checkpoint. The first failing step aborts the rest; watermarks advanced
// by completed entity jobs are kept.
type AccountSyncRunner struct {
	Refresher    TokenRefresher
	Search       SearchClient
	Associations AssociationClient
	Queue        *EventQueue
	Checkpoint   Checkpointer
	Reports      repository.Store
	Settings     Settings
	Logger       *zap.Logger

	Now func() time.Time
}

func (r *AccountSyncRunner) RunAccount(ctx context.Context, domain *models.Domain, account *models.Account, runID string) error {
	settings := r.Settings.withDefaults()

	token, expiry, err := r.Refresher.Refresh(ctx, account.RefreshToken)
	if err != nil {
		return &RunError{
			AccountKey: account.Key,
			Operation:  "refresh credentials",
			Cause:      &CredentialRefreshError{AccountKey: account.Key, Cause: err},
		}
	}
	account.AccessToken = token
	account.AccessTokenExpiry = expiry

	checkpoint := r.Checkpoint
	if checkpoint == nil {
		checkpoint = NoopCheckpointer{}
	}

	for _, entity := range Entities() {
		job := &EntitySyncJob{
			Entity:       entity,
			Search:       r.Search,
			Associations: r.Associations,
			Retrier:      NewRetrier(settings.RetryAttempts, settings.RetryBaseDelay),
			Queue:        r.Queue,
			Settings:     settings,
			Logger:       r.Logger,
			Checkpoint: func(ctx context.Context) error {
				return checkpoint.Checkpoint(ctx, domain)
			},
			Now: r.Now,
		}
		started := r.now()
		report, err := job.Run(ctx, account)
		r.saveReport(ctx, runID, account.Key, entity.Name, started, report, err)
		if err != nil {
			return &RunError{AccountKey: account.Key, Operation: "sync " + entity.Name, Cause: err}
		}
	}

	if !r.Queue.Drain(ctx) {
		return &RunError{AccountKey: account.Key, Operation: "drain queue", Cause: ctx.Err()}
	}

	if err := checkpoint.Checkpoint(ctx, domain); err != nil {
		return &RunError{AccountKey: account.Key, Operation: "checkpoint", Cause: err}
	}
	return nil
}

func (r *AccountSyncRunner) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *AccountSyncRunner) saveReport(ctx context.Context, runID, accountKey, entity string, started time.Time, report JobReport, runErr error) {
	if r.Reports == nil {
		return
	}
	row := &models.SyncRunReport{
		RunID:      runID,
		AccountKey: accountKey,
		Entity:     entity,
		Pages:      report.Pages,
		Records:    report.Records,
		Events:     report.Events,
		Skipped:    report.Skipped,
		StartedAt:  started,
		FinishedAt: r.now(),
	}
	if !report.Watermark.IsZero() {
		wm := report.Watermark
		row.Watermark = &wm
	}
	if runErr != nil {
		msg := runErr.Error()
		row.LastError = &msg
	}
	if raw, err := json.Marshal(report); err == nil {
		row.Stats = raw
	}
	if err := r.Reports.SaveReport(ctx, row); err != nil && r.Logger != nil {
		r.Logger.Warn("save run report failed",
			zap.String("account", accountKey),
			zap.String("entity", entity),
			zap.Error(err),
		)
	}
}
