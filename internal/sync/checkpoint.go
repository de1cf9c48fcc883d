package sync

import (
	"context"

	"crmsync/internal/models"
	"crmsync/internal/repository"
)

// Checkpointer persists the domain aggregate at controlled points. The
// strategy is injected so persistence timing stays decoupled from sync
// logic; the default deployment disables it.
type Checkpointer interface {
	Checkpoint(ctx context.Context, domain *models.Domain) error
}

// NoopCheckpointer keeps watermark updates in memory only. They still reach
// storage if a later strategy saves the same aggregate.
type NoopCheckpointer struct{}

func (NoopCheckpointer) Checkpoint(ctx context.Context, domain *models.Domain) error {
	return nil
}

// StoreCheckpointer writes the aggregate through the domain store.
type StoreCheckpointer struct {
	Store repository.Store
}

func (c StoreCheckpointer) Checkpoint(ctx context.Context, domain *models.Domain) error {
	return c.Store.Save(ctx, domain)
}
