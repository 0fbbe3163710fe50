package repomanager

import (
	"context"

	"github.com/dmitrijs2005/handover/internal/server/repositories/participants"
	"github.com/dmitrijs2005/handover/internal/server/repositories/patients"
	"github.com/dmitrijs2005/handover/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/handover/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/handover/internal/server/repositories/users"
)

type RepositoryManager interface {
	Ping(ctx context.Context) error
	Users() users.Repository
	Sessions() sessions.Repository
	Participants() participants.Repository
	Patients() patients.Repository
	Tasks() tasks.Repository
}
