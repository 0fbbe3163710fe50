package tasks

import (
	"context"

	"github.com/dmitrijs2005/handover/internal/server/models"
)

type Repository interface {
	// Create appends the tasks to their patient's task list, keeping the
	// given order. All tasks must belong to the same patient.
	Create(ctx context.Context, tasks ...*models.Task) error
	Get(ctx context.Context, id string) (*models.Task, error)
	// ListByPatient returns the patient's tasks in creation order.
	ListByPatient(ctx context.Context, patientID string) ([]*models.Task, error)
	// Update runs mutate with the task's patient read in the same
	// transaction; patient is nil once its record has expired. A write to the
	// patient before commit retries the update. The patient's task list is
	// renewed with the task.
	Update(ctx context.Context, id string, mutate func(t *models.Task, patient *models.Patient) error) (*models.Task, error)
	// DeleteByPatient removes every task of the patient and the task list.
	DeleteByPatient(ctx context.Context, patientID string) error
}
