package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/handover/internal/server/models"
	"golang.org/x/sync/errgroup"
)

// fanOut bounds the concurrent store reads of one view.
const fanOut = 8

// PatientWithTasks is a patient and its tasks in creation order.
type PatientWithTasks struct {
	Patient *models.Patient `json:"patient"`
	Tasks   []*models.Task  `json:"tasks"`
}

// IncompleteTasks counts tasks that are neither completed nor cancelled.
func (p *PatientWithTasks) IncompleteTasks() int {
	n := 0
	for _, t := range p.Tasks {
		if t.Pending() {
			n++
		}
	}
	return n
}

// BoardTask is a task with the names of the users who touched it.
type BoardTask struct {
	*models.Task
	CreatedBy   string `json:"createdBy"`
	CompletedBy string `json:"completedBy,omitempty"`
	CancelledBy string `json:"cancelledBy,omitempty"`
}

// BoardPatient is one row of a session board.
type BoardPatient struct {
	Patient         *models.Patient `json:"patient"`
	CreatedBy       string          `json:"createdBy"`
	CompletedBy     string          `json:"completedBy,omitempty"`
	IncompleteTasks int             `json:"incompleteTasks"`
	Tasks           []*BoardTask    `json:"tasks"`
}

// ParticipantView is a membership with its user.
type ParticipantView struct {
	Participant *models.SessionParticipant `json:"participant"`
	User        *models.User               `json:"user"`
}

// SessionView is a session with its creator and current participants.
type SessionView struct {
	Session      *models.Session    `json:"session"`
	CreatedBy    *models.User       `json:"createdBy"`
	Participants []*ParticipantView `json:"participants"`
}

// Get returns the patient with its tasks, or nil.
func (s *PatientService) Get(ctx context.Context, patientID string) (*PatientWithTasks, error) {
	patient, err := s.repomanager.Patients().Get(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("error reading patient: %w", err)
	}
	if patient == nil {
		return nil, nil
	}

	tasks, err := s.repomanager.Tasks().ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("error reading tasks: %w", err)
	}
	return &PatientWithTasks{Patient: patient, Tasks: tasks}, nil
}

// ListAllWithTasks returns every live patient with its tasks, newest first.
func (s *PatientService) ListAllWithTasks(ctx context.Context) ([]*PatientWithTasks, error) {
	patients, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.withTasks(ctx, patients)
}

// ListSessionWithTasks returns the session's patients with their tasks,
// newest first. Patients whose record expired are omitted.
func (s *PatientService) ListSessionWithTasks(ctx context.Context, sessionID string) ([]*PatientWithTasks, error) {
	ids, err := s.repomanager.Patients().ListIDsBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error listing session patients: %w", err)
	}

	patients, err := s.repomanager.Patients().GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error reading patients: %w", err)
	}
	return s.withTasks(ctx, patients)
}

func (s *PatientService) withTasks(ctx context.Context, patients []*models.Patient) ([]*PatientWithTasks, error) {
	out := make([]*PatientWithTasks, len(patients))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)
	for i, p := range patients {
		g.Go(func() error {
			tasks, err := s.repomanager.Tasks().ListByPatient(gctx, p.ID)
			if err != nil {
				return fmt.Errorf("error reading tasks of %s: %w", p.ID, err)
			}
			out[i] = &PatientWithTasks{Patient: p, Tasks: tasks}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// SessionBoard is the session's patient list as shown to its participants.
// Open patients come first, most pending tasks first; completed patients
// follow, most recently completed first.
func (s *PatientService) SessionBoard(ctx context.Context, sessionID string) ([]*BoardPatient, error) {
	list, err := s.ListSessionWithTasks(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(list)*4)
	for _, pt := range list {
		ids = append(ids, pt.Patient.CreatedByID, pt.Patient.CompletedByID)
		for _, t := range pt.Tasks {
			ids = append(ids, t.CreatedByID, t.CompletedByID, t.CancelledByID)
		}
	}

	names, err := s.users.userNames(ctx, uniq(nonEmpty(ids)))
	if err != nil {
		return nil, err
	}
	name := func(id string) string {
		if id == "" {
			return ""
		}
		if n, ok := names[id]; ok {
			return n
		}
		return UnknownUserName
	}

	board := make([]*BoardPatient, 0, len(list))
	for _, pt := range list {
		row := &BoardPatient{
			Patient:         pt.Patient,
			CreatedBy:       name(pt.Patient.CreatedByID),
			CompletedBy:     name(pt.Patient.CompletedByID),
			IncompleteTasks: pt.IncompleteTasks(),
			Tasks:           make([]*BoardTask, 0, len(pt.Tasks)),
		}
		for _, t := range pt.Tasks {
			row.Tasks = append(row.Tasks, &BoardTask{
				Task:        t,
				CreatedBy:   name(t.CreatedByID),
				CompletedBy: name(t.CompletedByID),
				CancelledBy: name(t.CancelledByID),
			})
		}
		board = append(board, row)
	}

	sort.SliceStable(board, func(i, j int) bool {
		a, b := board[i].Patient, board[j].Patient
		if a.Completed != b.Completed {
			return !a.Completed
		}
		if a.Completed {
			return completedAt(a).After(completedAt(b))
		}
		return board[i].IncompleteTasks > board[j].IncompleteTasks
	})
	return board, nil
}

func completedAt(p *models.Patient) time.Time {
	if p.CompletedAt == nil {
		return time.Time{}
	}
	return *p.CompletedAt
}

// WithParticipants returns the session with its creator and participants,
// or nil when the session does not exist. Memberships whose user expired
// are omitted.
func (s *SessionService) WithParticipants(ctx context.Context, sessionID string) (*SessionView, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil || session == nil {
		return nil, err
	}
	return s.view(ctx, session)
}

// Overview lists every live session with its participants, newest first.
// Sessions whose creator expired are omitted.
func (s *SessionService) Overview(ctx context.Context) ([]*SessionView, error) {
	sessions, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]*SessionView, len(sessions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)
	for i, session := range sessions {
		g.Go(func() error {
			v, err := s.view(gctx, session)
			if err != nil {
				return err
			}
			views[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*SessionView, 0, len(views))
	for _, v := range views {
		if v.CreatedBy != nil {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *SessionService) view(ctx context.Context, session *models.Session) (*SessionView, error) {
	members, err := s.repomanager.Participants().ListBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing participants: %w", err)
	}

	ids := make([]string, 0, len(members)+1)
	ids = append(ids, session.CreatedByID)
	for _, m := range members {
		ids = append(ids, m.UserID)
	}

	users, err := s.repomanager.Users().GetMany(ctx, uniq(ids))
	if err != nil {
		return nil, fmt.Errorf("error reading users: %w", err)
	}
	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	v := &SessionView{Session: session, CreatedBy: byID[session.CreatedByID]}
	for _, m := range members {
		if u, ok := byID[m.UserID]; ok {
			v.Participants = append(v.Participants, &ParticipantView{Participant: m, User: u})
		}
	}
	sort.SliceStable(v.Participants, func(i, j int) bool {
		return v.Participants[i].Participant.JoinedAt.Before(v.Participants[j].Participant.JoinedAt)
	})
	return v, nil
}

func nonEmpty(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}
