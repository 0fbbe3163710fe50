package users

import (
	"context"

	"github.com/dmitrijs2005/handover/internal/server/models"
)

// Repository stores users. Getters return (nil, nil) when nothing matches.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	GetMany(ctx context.Context, ids []string) ([]*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}
