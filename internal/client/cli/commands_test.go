package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/handover/internal/client/client"
	"github.com/dmitrijs2005/handover/internal/client/config"
	"github.com/dmitrijs2005/handover/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

type fakeAPI struct {
	pingErr  error
	loginErr error

	active   *models.Session
	sessions []*models.SessionView
	board    []*models.BoardPatient
	created  *models.Session
	patient  *models.Patient
	tasks    []*models.Task
	task     *models.Task
	err      error

	calls   []string
	lastArg []string
	closed  bool
}

func (f *fakeAPI) called(name string, args ...string) {
	f.calls = append(f.calls, name)
	f.lastArg = args
}

func (f *fakeAPI) Close() error { f.closed = true; return nil }
func (f *fakeAPI) Ping(ctx context.Context) error {
	f.called("Ping")
	return f.pingErr
}
func (f *fakeAPI) Login(ctx context.Context, userName string) (*models.User, error) {
	f.called("Login", userName)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.User{ID: "user_1", UserName: userName}, nil
}
func (f *fakeAPI) ListSessions(ctx context.Context) ([]*models.SessionView, error) {
	f.called("ListSessions")
	return f.sessions, f.err
}
func (f *fakeAPI) ActiveSession(ctx context.Context) (*models.Session, error) {
	f.called("ActiveSession")
	return f.active, nil
}
func (f *fakeAPI) CreateSession(ctx context.Context, name string, newUserNames []string) (*models.Session, error) {
	f.called("CreateSession", append([]string{name}, newUserNames...)...)
	return f.created, f.err
}
func (f *fakeAPI) JoinSession(ctx context.Context, sessionID string) error {
	f.called("JoinSession", sessionID)
	return f.err
}
func (f *fakeAPI) LeaveSession(ctx context.Context, sessionID string) error {
	f.called("LeaveSession", sessionID)
	return f.err
}
func (f *fakeAPI) EndSession(ctx context.Context, sessionID string) error {
	f.called("EndSession", sessionID)
	return f.err
}
func (f *fakeAPI) CreatePatient(ctx context.Context, sessionID, tcNo, name string) (*models.Patient, []*models.Task, error) {
	f.called("CreatePatient", sessionID, tcNo, name)
	return f.patient, f.tasks, f.err
}
func (f *fakeAPI) SessionBoard(ctx context.Context, sessionID string) ([]*models.BoardPatient, error) {
	f.called("SessionBoard", sessionID)
	return f.board, f.err
}
func (f *fakeAPI) AddTask(ctx context.Context, patientID, name string) (*models.Task, error) {
	f.called("AddTask", patientID, name)
	return f.task, f.err
}
func (f *fakeAPI) ToggleTask(ctx context.Context, taskID string) (*models.Task, error) {
	f.called("ToggleTask", taskID)
	return f.task, f.err
}
func (f *fakeAPI) CancelTask(ctx context.Context, taskID string) (*models.Task, error) {
	f.called("CancelTask", taskID)
	return f.task, f.err
}
func (f *fakeAPI) CompletePatient(ctx context.Context, patientID string) (*models.Patient, error) {
	f.called("CompletePatient", patientID)
	return f.patient, f.err
}

var _ client.Client = (*fakeAPI)(nil)

func newTestApp(api *fakeAPI, input string) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return newApp(cfg, api, strings.NewReader(input), out), out
}

func TestLogin_PicksUpActiveSession(t *testing.T) {
	api := &fakeAPI{active: &models.Session{ID: "session_1", Name: "Gece"}}
	app, out := newTestApp(api, "")

	require.NoError(t, app.Login(context.Background(), []string{"ayse"}))
	assert.True(t, app.isLoggedIn())
	assert.Equal(t, "session_1", app.sessionID)
	assert.Contains(t, out.String(), "Hoş geldiniz, ayse")
	assert.Equal(t, []string{"Login", "ActiveSession"}, api.calls)
}

func TestLogin_Rejected(t *testing.T) {
	api := &fakeAPI{loginErr: &client.RejectedError{Code: codes.InvalidArgument, Reason: "Kullanıcı adı en az 2 karakter olmalıdır"}}
	app, out := newTestApp(api, "")

	err := app.Login(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.False(t, app.isLoggedIn())
	assert.Equal(t, "Kullanıcı adı en az 2 karakter olmalıdır\n", out.String())
}

func TestNewSession_SplitsInvitedUsers(t *testing.T) {
	api := &fakeAPI{created: &models.Session{ID: "session_2", Name: "Gece nöbeti"}}
	app, _ := newTestApp(api, "")

	require.NoError(t, app.NewSession(context.Background(), []string{"Gece", "+mehmet", "nöbeti", "+zeynep"}))
	assert.Equal(t, []string{"Gece nöbeti", "mehmet", "zeynep"}, api.lastArg)
	assert.Equal(t, "session_2", app.sessionID)

	require.ErrorIs(t, app.NewSession(context.Background(), []string{"+mehmet"}), errUsage)
}

func TestSessionCommands_UseCurrentSession(t *testing.T) {
	api := &fakeAPI{}
	app, out := newTestApp(api, "")
	ctx := context.Background()

	require.ErrorIs(t, app.Board(ctx, nil), errUsage)
	assert.Contains(t, out.String(), "Aktif oturum yok")
	assert.Empty(t, api.calls)

	require.NoError(t, app.Join(ctx, []string{"session_9"}))
	assert.Equal(t, "session_9", app.sessionID)

	require.NoError(t, app.Board(ctx, nil))
	assert.Equal(t, []string{"session_9"}, api.lastArg)

	require.NoError(t, app.End(ctx, nil))
	assert.Equal(t, []string{"session_9"}, api.lastArg)
	assert.Equal(t, "", app.sessionID)
}

func TestBoard_PrintsPatientsAndTasks(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	api := &fakeAPI{board: []*models.BoardPatient{
		{
			Patient:         &models.Patient{ID: "patient_1", TCNo: "12345678901", Name: "Ali Veli"},
			CreatedBy:       "ayse",
			IncompleteTasks: 1,
			Tasks: []*models.BoardTask{
				{Task: models.Task{ID: "task_1", Name: "anamnez", Completed: true}, CompletedBy: "mehmet"},
				{Task: models.Task{ID: "task_2", Name: "EKG"}},
				{Task: models.Task{ID: "task_3", Name: "3tup kan", Cancelled: true}, CancelledBy: "ayse"},
			},
		},
		{
			Patient:     &models.Patient{ID: "patient_2", TCNo: "10987654321", Completed: true, CompletedAt: &at},
			CreatedBy:   "ayse",
			CompletedBy: "zeynep",
		},
	}}
	app, out := newTestApp(api, "")

	require.NoError(t, app.Board(context.Background(), []string{"session_1"}))

	text := out.String()
	assert.Contains(t, text, "12345678901 Ali Veli  - ayse  [1 açık görev]")
	assert.Contains(t, text, "[x] anamnez  task_1  (mehmet)")
	assert.Contains(t, text, "[ ] EKG  task_2\n")
	assert.Contains(t, text, "[-] 3tup kan  task_3  (ayse)")
	assert.Contains(t, text, "[tamamlandı (zeynep)]")
}

func TestTaskCommands(t *testing.T) {
	api := &fakeAPI{task: &models.Task{ID: "task_1", Name: "EKG", Completed: true}}
	app, out := newTestApp(api, "")
	ctx := context.Background()

	require.NoError(t, app.Toggle(ctx, []string{"task_1"}))
	require.NoError(t, app.Cancel(ctx, []string{"task_1"}))
	require.NoError(t, app.AddTask(ctx, []string{"patient_1", "EKG", "tekrar"}))
	assert.Equal(t, []string{"patient_1", "EKG tekrar"}, api.lastArg)
	assert.Equal(t, []string{"ToggleTask", "CancelTask", "AddTask"}, api.calls)

	require.ErrorIs(t, app.Toggle(ctx, nil), errUsage)
	assert.Contains(t, out.String(), "Usage: toggle <taskId>")

	api.err = &client.RejectedError{Code: codes.FailedPrecondition, Reason: "Bitmiş hastanın görevlerine dokunulamaz"}
	require.Error(t, app.Toggle(ctx, []string{"task_1"}))
	assert.Contains(t, out.String(), "Bitmiş hastanın görevlerine dokunulamaz")
}

func TestAddPatient_RequiresSession(t *testing.T) {
	api := &fakeAPI{
		patient: &models.Patient{ID: "patient_1", TCNo: "12345678901"},
		tasks:   []*models.Task{{ID: "task_1", Name: "anamnez"}},
	}
	app, out := newTestApp(api, "")
	ctx := context.Background()

	require.ErrorIs(t, app.AddPatient(ctx, []string{"12345678901"}), errUsage)

	app.sessionID = "session_1"
	require.NoError(t, app.AddPatient(ctx, []string{"12345678901", "Ali", "Veli"}))
	assert.Equal(t, []string{"session_1", "12345678901", "Ali Veli"}, api.lastArg)
	assert.Contains(t, out.String(), "Hasta eklendi: 12345678901 patient_1")
	assert.Contains(t, out.String(), "[ ] anamnez  task_1")
}

func TestReport_Unavailable(t *testing.T) {
	api := &fakeAPI{err: client.ErrUnavailable}
	app, out := newTestApp(api, "")
	app.mode = ModeOnline

	require.Error(t, app.Sessions(context.Background(), nil))
	assert.Equal(t, ModeOffline, app.Mode())
	assert.Contains(t, out.String(), "Sunucuya ulaşılamıyor")
}

func TestSessions_Lists(t *testing.T) {
	api := &fakeAPI{sessions: []*models.SessionView{{
		Session:   &models.Session{ID: "session_1", Name: "Gece", AllowedUserIDs: []string{"user_2"}},
		CreatedBy: &models.User{ID: "user_1", UserName: "ayse"},
		Participants: []*models.ParticipantView{
			{Participant: &models.Participant{UserID: "user_1"}, User: &models.User{UserName: "ayse"}},
			{Participant: &models.Participant{UserID: "user_2"}, User: &models.User{UserName: "mehmet"}},
		},
	}}}
	app, out := newTestApp(api, "")

	require.NoError(t, app.Sessions(context.Background(), nil))
	assert.Equal(t, "session_1  Gece [kısıtlı]  (ayse)  ayse, mehmet\n", out.String())
}

func TestRoot_LoginFromFirstLine(t *testing.T) {
	stubTerminal(t, false)

	api := &fakeAPI{active: &models.Session{ID: "session_1", Name: "Gece"}}
	app, out := newTestApp(api, "ayse\nboard\nexit\n")

	app.Run(context.Background())

	assert.True(t, api.closed)
	assert.Equal(t, "ayse", app.userName)
	assert.Contains(t, api.calls, "SessionBoard")
	assert.Contains(t, out.String(), "Switched to online mode")
	assert.Contains(t, out.String(), "Bye!")
}
