// Package models defines the records the handover terminal client receives
// from the server. Field names follow the server's JSON form.
package models

import "time"

type User struct {
	ID       string `json:"id"`
	UserName string `json:"username"`
}

type Session struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"createdAt"`
	CreatedByID    string    `json:"createdById"`
	AllowedUserIDs []string  `json:"allowedUserIds,omitempty"`
}

type Participant struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	SessionID string    `json:"sessionId"`
	JoinedAt  time.Time `json:"joinedAt"`
}

type ParticipantView struct {
	Participant *Participant `json:"participant"`
	User        *User        `json:"user"`
}

// SessionView is a session with its creator and current participants.
type SessionView struct {
	Session      *Session           `json:"session"`
	CreatedBy    *User              `json:"createdBy"`
	Participants []*ParticipantView `json:"participants"`
}

type Patient struct {
	ID          string     `json:"id"`
	TCNo        string     `json:"tcNo"`
	Name        string     `json:"name,omitempty"`
	SessionID   string     `json:"sessionId"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type Task struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
	Cancelled bool   `json:"cancelled"`
	PatientID string `json:"patientId"`
}

// Mark is the one-character status shown in front of a task.
func (t *Task) Mark() string {
	switch {
	case t.Cancelled:
		return "-"
	case t.Completed:
		return "x"
	default:
		return " "
	}
}

type BoardTask struct {
	Task
	CreatedBy   string `json:"createdBy"`
	CompletedBy string `json:"completedBy,omitempty"`
	CancelledBy string `json:"cancelledBy,omitempty"`
}

// BoardPatient is one row of a session board.
type BoardPatient struct {
	Patient         *Patient     `json:"patient"`
	CreatedBy       string       `json:"createdBy"`
	CompletedBy     string       `json:"completedBy,omitempty"`
	IncompleteTasks int          `json:"incompleteTasks"`
	Tasks           []*BoardTask `json:"tasks"`
}
