package repository

import (
	"context"

	"crmsync/internal/models"
)

// Store is the checkpoint and reporting surface of the sync engine. Find
// reads the domain aggregate once at run start; Save writes it back when
// checkpointing is enabled.
type Store interface {
	Find(ctx context.Context) (*models.Domain, error)
	Save(ctx context.Context, domain *models.Domain) error

	SaveReport(ctx context.Context, report *models.SyncRunReport) error
	ListReports(ctx context.Context, limit int) ([]models.SyncRunReport, error)
}
