package models

import (
	"slices"
	"time"
)

// Session is a duty shift. An empty AllowedUserIDs means anyone may join.
type Session struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	CreatedByID    string    `json:"createdById"`
	AllowedUserIDs []string  `json:"allowedUserIds,omitempty"`
}

// Restricted reports whether the session has an allow-list.
func (s *Session) Restricted() bool {
	return len(s.AllowedUserIDs) > 0
}

// Allows reports whether userID may join the session.
func (s *Session) Allows(userID string) bool {
	return !s.Restricted() || slices.Contains(s.AllowedUserIDs, userID)
}

// SessionParticipant is the membership of one user in one session.
type SessionParticipant struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	SessionID string    `json:"sessionId"`
	JoinedAt  time.Time `json:"joinedAt"`
}
