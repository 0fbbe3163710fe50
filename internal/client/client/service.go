package client

import (
	"context"

	"github.com/dmitrijs2005/handover/internal/client/models"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error
	Login(ctx context.Context, userName string) (*models.User, error)
	ListSessions(ctx context.Context) ([]*models.SessionView, error)
	ActiveSession(ctx context.Context) (*models.Session, error)
	CreateSession(ctx context.Context, name string, newUserNames []string) (*models.Session, error)
	JoinSession(ctx context.Context, sessionID string) error
	LeaveSession(ctx context.Context, sessionID string) error
	EndSession(ctx context.Context, sessionID string) error
	CreatePatient(ctx context.Context, sessionID, tcNo, name string) (*models.Patient, []*models.Task, error)
	SessionBoard(ctx context.Context, sessionID string) ([]*models.BoardPatient, error)
	AddTask(ctx context.Context, patientID, name string) (*models.Task, error)
	ToggleTask(ctx context.Context, taskID string) (*models.Task, error)
	CancelTask(ctx context.Context, taskID string) (*models.Task, error)
	CompletePatient(ctx context.Context, patientID string) (*models.Patient, error)
}
