package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crmsync/internal/repository"
)

// Service runs full sync passes: load the domain aggregate, process each
// account strictly in sequence, report the outcome. Accounts are
// independent; one account's failure does not stop the next.
type Service struct {
	Store        repository.Store
	Refresher    TokenRefresher
	Search       SearchClient
	Associations AssociationClient
	SinkFactory  func(apiKey string) Sender
	Settings     Settings
	Persist      bool
	Logger       *zap.Logger
}

type RunSummary struct {
	RunID    string        `json:"run_id"`
	Accounts int           `json:"accounts"`
	Failed   int           `json:"failed"`
	Elapsed  time.Duration `json:"elapsed"`
}

// RunOnce syncs every account of the domain, or just accountKey when set.
func (s *Service) RunOnce(ctx context.Context, accountKey string) (RunSummary, error) {
	started := time.Now()
	runID := uuid.NewString()
	summary := RunSummary{RunID: runID}

	domain, err := s.Store.Find(ctx)
	if err != nil {
		return summary, fmt.Errorf("load domain: %w", err)
	}

	var checkpoint Checkpointer = NoopCheckpointer{}
	if s.Persist {
		checkpoint = StoreCheckpointer{Store: s.Store}
	}

	queue := NewEventQueue(s.SinkFactory(domain.APIKey), s.Settings.withDefaults().FlushThreshold, s.Logger)
	defer queue.Close()

	runner := &AccountSyncRunner{
		Refresher:    s.Refresher,
		Search:       s.Search,
		Associations: s.Associations,
		Queue:        queue,
		Checkpoint:   checkpoint,
		Reports:      s.Store,
		Settings:     s.Settings,
		Logger:       s.Logger,
	}

	matched := false
	for _, account := range domain.Accounts {
		if accountKey != "" && account.Key != accountKey {
			continue
		}
		matched = true
		summary.Accounts++
		if err := runner.RunAccount(ctx, domain, account, runID); err != nil {
			summary.Failed++
			var runErr *RunError
			if s.Logger != nil && errors.As(err, &runErr) {
				s.Logger.Error("account sync failed",
					zap.String("run_id", runID),
					zap.String("account", runErr.AccountKey),
					zap.String("operation", runErr.Operation),
					zap.Error(runErr.Cause),
				)
			}
			if ctx.Err() != nil {
				break
			}
		}
	}
	if accountKey != "" && !matched {
		return summary, fmt.Errorf("unknown account %q", accountKey)
	}

	flushes, flushed := queue.Stats()
	summary.Elapsed = time.Since(started)
	if s.Logger != nil {
		s.Logger.Info("sync run finished",
			zap.String("run_id", runID),
			zap.Int("accounts", summary.Accounts),
			zap.Int("failed", summary.Failed),
			zap.Uint64("flushes", flushes),
			zap.Uint64("events_flushed", flushed),
			zap.Duration("elapsed", summary.Elapsed),
		)
	}
	return summary, nil
}
