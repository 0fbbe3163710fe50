package patients

import (
	"context"

	"github.com/dmitrijs2005/handover/internal/server/models"
)

type Repository interface {
	// Create writes the record, points the TC index at it and adds it to the
	// global and session listings.
	Create(ctx context.Context, patient *models.Patient) (*models.Patient, error)
	Get(ctx context.Context, id string) (*models.Patient, error)
	GetByTC(ctx context.Context, tcNo string) (*models.Patient, error)
	GetMany(ctx context.Context, ids []string) ([]*models.Patient, error)
	List(ctx context.Context) ([]*models.Patient, error)
	// ListIDsBySession returns the session's patient IDs, newest first.
	ListIDsBySession(ctx context.Context, sessionID string) ([]string, error)
	// Update rewrites the record and renews the TC index, both listings, the
	// task list and the task records along with it.
	Update(ctx context.Context, id string, mutate func(*models.Patient) error) (*models.Patient, error)
	// Delete removes the record and its index entries. The TC index is only
	// cleared while it still points at this patient.
	Delete(ctx context.Context, id string) error
}
