// Package participants stores session memberships. A user's membership
// slot holds at most one session, so adding a membership moves the user.
package participants

import (
	"context"

	"github.com/dmitrijs2005/handover/internal/server/models"
)

type Repository interface {
	// Add records p and removes every other membership of p.UserID in the
	// same transaction. It returns the session IDs the user was removed from.
	Add(ctx context.Context, p *models.SessionParticipant) ([]string, error)
	Remove(ctx context.Context, userID, sessionID string) error
	Exists(ctx context.Context, userID, sessionID string) (bool, error)
	ListBySession(ctx context.Context, sessionID string) ([]*models.SessionParticipant, error)
	// SessionIDs returns the content of the user's session slot.
	SessionIDs(ctx context.Context, userID string) ([]string, error)
}
