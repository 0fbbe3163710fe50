package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/handover/internal/common"
	"github.com/dmitrijs2005/handover/internal/logging"
	"github.com/dmitrijs2005/handover/internal/server/kvstore"
	"github.com/dmitrijs2005/handover/internal/server/models"
	"github.com/dmitrijs2005/handover/internal/server/repositories/repomanager"
)

const (
	reasonDuplicateTC       = "Bu TC No ile kayıtlı hasta zaten mevcut"
	reasonPatientCompleted  = "Bitmiş hastaya görev eklenemez"
	reasonTasksFrozen       = "Bitmiş hastanın görevlerine dokunulamaz"
	reasonAlreadyCompleted  = "Hasta zaten tamamlandı"
	reasonTaskNameRequired  = "Görev adı gereklidir"
	reasonTCFormat          = "TC No 11 haneli olmalıdır"
	reasonTCRequired        = "TC No gereklidir"
	reasonSessionIDRequired = "Oturum ID gereklidir"
	reasonPatientIDRequired = "Hasta ID gereklidir"
	reasonCreatorIDRequired = "Hastayı oluşturan kullanıcı gereklidir"
)

var tcPattern = regexp.MustCompile(`^\d{11}$`)

// CreatePatientInput describes a new patient. A nil Tasks uses the
// configured default checklist; an empty, non-nil one creates no tasks.
type CreatePatientInput struct {
	TCNo      string
	Name      string
	SessionID string
	CreatorID string
	Tasks     []string
}

// PatientService owns patients and their tasks. Every task mutation checks
// that the owning patient is not completed.
type PatientService struct {
	repomanager  repomanager.RepositoryManager
	users        *UserService
	logger       logging.Logger
	defaultTasks []string
	now          func() time.Time
}

func NewPatientService(m repomanager.RepositoryManager, us *UserService, defaultTasks []string, l logging.Logger) *PatientService {
	return &PatientService{
		repomanager:  m,
		users:        us,
		logger:       l.With("module", "patient_service"),
		defaultTasks: append([]string(nil), defaultTasks...),
		now:          time.Now,
	}
}

// Create registers a patient in a session together with its checklist. The
// TC number must be unique among the session's patients; other sessions may
// hold the same number.
func (s *PatientService) Create(ctx context.Context, in CreatePatientInput) (*PatientWithTasks, error) {
	tcNo := strings.TrimSpace(in.TCNo)
	switch {
	case tcNo == "":
		return nil, common.Validation(reasonTCRequired)
	case !tcPattern.MatchString(tcNo):
		return nil, common.Validation(reasonTCFormat)
	case in.SessionID == "":
		return nil, common.Validation(reasonSessionIDRequired)
	case in.CreatorID == "":
		return nil, common.Validation(reasonCreatorIDRequired)
	}

	session, err := s.repomanager.Sessions().Get(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("error reading session: %w", err)
	}
	if session == nil {
		return nil, common.Missing(reasonSessionNotFound)
	}

	dup, err := s.sessionHasTC(ctx, in.SessionID, tcNo)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, common.Conflict(reasonDuplicateTC)
	}

	now := s.now()
	patient := &models.Patient{
		ID:          common.NewID(common.PrefixPatient, now),
		TCNo:        tcNo,
		Name:        strings.TrimSpace(in.Name),
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedByID: in.CreatorID,
		SessionID:   in.SessionID,
	}
	if _, err := s.repomanager.Patients().Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("error creating patient: %w", err)
	}

	names := in.Tasks
	if names == nil {
		names = s.defaultTasks
	}

	tasks := make([]*models.Task, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tasks = append(tasks, s.newTask(patient.ID, name, in.CreatorID, now))
	}
	if err := s.repomanager.Tasks().Create(ctx, tasks...); err != nil {
		s.logger.Error(ctx, "default tasks not created", "patient_id", patient.ID, "error", err)
		return nil, fmt.Errorf("error creating tasks: %w", err)
	}

	s.logger.Info(ctx, "patient created", "patient_id", patient.ID, "session_id", in.SessionID, "tasks", len(tasks))
	return &PatientWithTasks{Patient: patient, Tasks: tasks}, nil
}

func (s *PatientService) sessionHasTC(ctx context.Context, sessionID, tcNo string) (bool, error) {
	ids, err := s.repomanager.Patients().ListIDsBySession(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("error listing session patients: %w", err)
	}

	list, err := s.repomanager.Patients().GetMany(ctx, ids)
	if err != nil {
		return false, fmt.Errorf("error reading patients: %w", err)
	}

	for _, p := range list {
		if p.TCNo == tcNo {
			return true, nil
		}
	}
	return false, nil
}

func (s *PatientService) newTask(patientID, name, userID string, at time.Time) *models.Task {
	return &models.Task{
		ID:          common.NewID(common.PrefixTask, at),
		Name:        name,
		CreatedAt:   at,
		UpdatedAt:   at,
		PatientID:   patientID,
		CreatedByID: userID,
	}
}

// AddTask appends a task to the patient. It returns (nil, nil) when the
// patient does not exist.
func (s *PatientService) AddTask(ctx context.Context, patientID, name, userID string) (*models.Task, error) {
	if patientID == "" {
		return nil, common.Validation(reasonPatientIDRequired)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.Validation(reasonTaskNameRequired)
	}

	patient, err := s.repomanager.Patients().Get(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("error reading patient: %w", err)
	}
	if patient == nil {
		return nil, nil
	}
	if patient.Completed {
		return nil, common.Conflict(reasonPatientCompleted)
	}

	now := s.now()
	task := s.newTask(patientID, name, userID, now)
	if err := s.repomanager.Tasks().Create(ctx, task); err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}
	s.touchPatient(ctx, patientID, now)

	return task, nil
}

// ToggleTask flips the completion of a task. Cancelled tasks are returned
// unchanged. It returns (nil, nil) when the task does not exist.
func (s *PatientService) ToggleTask(ctx context.Context, taskID, userID string) (*models.Task, error) {
	var changed bool

	task, err := s.repomanager.Tasks().Update(ctx, taskID, func(t *models.Task, patient *models.Patient) error {
		changed = false
		if err := checkTasksEditable(patient); err != nil {
			return err
		}
		if t.Cancelled {
			return kvstore.ErrUnchanged
		}

		now := s.now()
		t.Completed = !t.Completed
		t.UpdatedAt = now
		if t.Completed {
			t.CompletedByID = userID
			t.CompletedAt = &now
		} else {
			t.CompletedByID = ""
			t.CompletedAt = nil
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, s.updateError("task", err)
	}
	if task != nil && changed {
		s.touchPatient(ctx, task.PatientID, task.UpdatedAt)
	}
	return task, nil
}

// CancelTask marks a task cancelled. Cancelling again re-stamps the
// canceller. It returns (nil, nil) when the task does not exist.
func (s *PatientService) CancelTask(ctx context.Context, taskID, userID string) (*models.Task, error) {
	task, err := s.repomanager.Tasks().Update(ctx, taskID, func(t *models.Task, patient *models.Patient) error {
		if err := checkTasksEditable(patient); err != nil {
			return err
		}

		now := s.now()
		t.Cancelled = true
		t.CancelledByID = userID
		t.CancelledAt = &now
		t.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, s.updateError("task", err)
	}
	if task != nil {
		s.touchPatient(ctx, task.PatientID, task.UpdatedAt)
	}
	return task, nil
}

// CompletePatient marks the patient done. Completion is terminal: a second
// call is rejected. It returns (nil, nil) when the patient does not exist.
func (s *PatientService) CompletePatient(ctx context.Context, patientID, userID string) (*models.Patient, error) {
	patient, err := s.repomanager.Patients().Update(ctx, patientID, func(p *models.Patient) error {
		if p.Completed {
			return common.Conflict(reasonAlreadyCompleted)
		}

		now := s.now()
		p.Completed = true
		p.CompletedAt = &now
		p.CompletedByID = userID
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, s.updateError("patient", err)
	}
	if patient != nil {
		s.logger.Info(ctx, "patient completed", "patient_id", patientID, "user_id", userID)
	}
	return patient, nil
}

// checkTasksEditable rejects changes to tasks of a completed patient. A
// patient that has already expired does not block its tasks.
func checkTasksEditable(patient *models.Patient) error {
	if patient != nil && patient.Completed {
		return common.Conflict(reasonTasksFrozen)
	}
	return nil
}

// touchPatient propagates a task change to the patient's updatedAt and
// renews the patient with everything under it. The task write has already
// happened, so failures are only logged.
func (s *PatientService) touchPatient(ctx context.Context, patientID string, at time.Time) {
	_, err := s.repomanager.Patients().Update(ctx, patientID, func(p *models.Patient) error {
		if at.After(p.UpdatedAt) {
			p.UpdatedAt = at
		}
		return nil
	})
	if err != nil {
		s.logger.Warn(ctx, "patient timestamp not updated", "patient_id", patientID, "error", err)
	}
}

func (s *PatientService) updateError(entity string, err error) error {
	var re *common.ReasonError
	if errors.As(err, &re) {
		return err
	}
	return fmt.Errorf("error updating %s: %w", entity, err)
}

func (s *PatientService) GetByTC(ctx context.Context, tcNo string) (*models.Patient, error) {
	p, err := s.repomanager.Patients().GetByTC(ctx, strings.TrimSpace(tcNo))
	if err != nil {
		return nil, fmt.Errorf("error reading patient: %w", err)
	}
	return p, nil
}

// ListAll returns every live patient, newest first.
func (s *PatientService) ListAll(ctx context.Context) ([]*models.Patient, error) {
	list, err := s.repomanager.Patients().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing patients: %w", err)
	}
	return list, nil
}
