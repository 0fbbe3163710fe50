package models

import "time"

// Patient is identified within a session by its 11-digit TC number.
// Completion is terminal.
type Patient struct {
	ID            string     `json:"id"`
	TCNo          string     `json:"tcNo"`
	Name          string     `json:"name,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	CreatedByID   string     `json:"createdById"`
	SessionID     string     `json:"sessionId"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	CompletedByID string     `json:"completedById,omitempty"`
}

// Task is a checklist item of a patient. Cancellation is terminal.
type Task struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Completed     bool       `json:"completed"`
	Cancelled     bool       `json:"cancelled"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	PatientID     string     `json:"patientId"`
	CreatedByID   string     `json:"createdById"`
	CompletedByID string     `json:"completedById,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	CancelledByID string     `json:"cancelledById,omitempty"`
	CancelledAt   *time.Time `json:"cancelledAt,omitempty"`
}

// Pending reports whether the task still needs doing.
func (t *Task) Pending() bool {
	return !t.Completed && !t.Cancelled
}
