package sessions

import (
	"context"

	"github.com/dmitrijs2005/handover/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, session *models.Session) (*models.Session, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	GetMany(ctx context.Context, ids []string) ([]*models.Session, error)
	List(ctx context.Context) ([]*models.Session, error)
	// Update applies mutate to the stored record under optimistic locking.
	// It returns (nil, nil) when the session does not exist. The global
	// listing and the session's member and patient sets are renewed with it.
	Update(ctx context.Context, id string, mutate func(*models.Session) error) (*models.Session, error)
	// Delete removes the record, its participant and patient index keys and
	// its entry in the global listing.
	Delete(ctx context.Context, id string) error
}
