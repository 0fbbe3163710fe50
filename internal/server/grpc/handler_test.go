package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/dmitrijs2005/handover/internal/common"
	"github.com/dmitrijs2005/handover/internal/logging"
	"github.com/dmitrijs2005/handover/internal/server/config"
	"github.com/dmitrijs2005/handover/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/handover/internal/server/services"
	"github.com/dmitrijs2005/handover/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type testClient struct {
	conn *grpc.ClientConn
}

// newTestClient serves the full stack over an in-memory listener backed by
// an in-process Redis.
func newTestClient(t *testing.T) *testClient {
	t.Helper()

	_, rdb := testutil.SetupRedis(t)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"

	rm, err := repomanager.NewRedisRepositoryManager(rdb, cfg.RecordTTL)
	require.NoError(t, err)

	us := services.NewUserService(rm, cfg, logging.Nop{})
	ss := services.NewSessionService(rm, us, logging.Nop{})
	ps := services.NewPatientService(rm, us, cfg.DefaultTasks, logging.Nop{})

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer("bufnet", logging.Nop{}, us, ss, ps).NewServer()
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &testClient{conn: conn}
}

func (c *testClient) call(t *testing.T, token, method string, req map[string]any) (map[string]any, error) {
	t.Helper()

	in, err := structpb.NewStruct(req)
	require.NoError(t, err)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, common.UserTokenHeaderName, token)
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, common.FullMethod(method), in, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

func (c *testClient) mustCall(t *testing.T, token, method string, req map[string]any) map[string]any {
	t.Helper()
	out, err := c.call(t, token, method, req)
	require.NoError(t, err, method)
	return out
}

// login returns the token and user id for userName.
func (c *testClient) login(t *testing.T, userName string) (string, string) {
	t.Helper()
	out := c.mustCall(t, "", "Login", map[string]any{"username": userName})
	user := out["user"].(map[string]any)
	return out["token"].(string), user["id"].(string)
}

func requireCode(t *testing.T, err error, code codes.Code, msg string) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, code, st.Code())
	if msg != "" {
		assert.Equal(t, msg, st.Message())
	}
}

func TestPing_WithoutToken(t *testing.T) {
	c := newTestClient(t)

	out, err := c.call(t, "", "Ping", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "OK", out["status"])
}

func TestLogin_Validation(t *testing.T) {
	c := newTestClient(t)

	_, err := c.call(t, "", "Login", map[string]any{"username": "a"})
	requireCode(t, err, codes.InvalidArgument, "Kullanıcı adı en az 2 karakter olmalıdır")
}

func TestLogin_SameUserTwice(t *testing.T) {
	c := newTestClient(t)

	_, id1 := c.login(t, "ayse")
	_, id2 := c.login(t, "ayse")
	assert.Equal(t, id1, id2)

	token, _ := c.login(t, "mehmet")
	out := c.mustCall(t, token, "ListUsers", map[string]any{})
	assert.Len(t, out["users"], 2)
}

func TestProtectedMethod_RequiresToken(t *testing.T) {
	c := newTestClient(t)

	_, err := c.call(t, "", "ListUsers", map[string]any{})
	requireCode(t, err, codes.Unauthenticated, "missing token")

	_, err = c.call(t, "not-a-token", "ListUsers", map[string]any{})
	requireCode(t, err, codes.Unauthenticated, "unauthorized")
}

func TestShiftFlow(t *testing.T) {
	c := newTestClient(t)

	ayse, ayseID := c.login(t, "ayse")
	mehmet, mehmetID := c.login(t, "mehmet")

	out := c.mustCall(t, ayse, "CreateSession", map[string]any{
		"name":           "Gece nöbeti",
		"allowedUserIds": []any{mehmetID},
	})
	session := out["session"].(map[string]any)
	sessionID := session["id"].(string)
	assert.Equal(t, ayseID, session["createdById"])

	out = c.mustCall(t, ayse, "ActiveSession", map[string]any{})
	assert.Equal(t, sessionID, out["session"].(map[string]any)["id"])

	out = c.mustCall(t, mehmet, "CanJoinSession", map[string]any{"sessionId": sessionID})
	assert.Equal(t, true, out["canJoin"])
	assert.Equal(t, "", out["reason"])

	out = c.mustCall(t, mehmet, "JoinSession", map[string]any{"sessionId": sessionID})
	assert.Equal(t, mehmetID, out["participant"].(map[string]any)["userId"])

	out = c.mustCall(t, mehmet, "CreatePatient", map[string]any{
		"sessionId": sessionID,
		"tcNo":      "12345678901",
		"name":      "Ali Veli",
	})
	patientID := out["patient"].(map[string]any)["id"].(string)
	tasks := out["tasks"].([]any)
	require.Len(t, tasks, len(config.DefaultTaskNames()))
	taskID := tasks[0].(map[string]any)["id"].(string)

	out = c.mustCall(t, ayse, "ToggleTask", map[string]any{"taskId": taskID})
	assert.Equal(t, true, out["task"].(map[string]any)["completed"])

	out = c.mustCall(t, ayse, "SessionBoard", map[string]any{"sessionId": sessionID})
	board := out["patients"].([]any)
	require.Len(t, board, 1)
	row := board[0].(map[string]any)
	assert.Equal(t, "mehmet", row["createdBy"])
	assert.Equal(t, float64(len(config.DefaultTaskNames())-1), row["incompleteTasks"])
	first := row["tasks"].([]any)[0].(map[string]any)
	assert.Equal(t, "ayse", first["completedBy"])

	out = c.mustCall(t, mehmet, "CompletePatient", map[string]any{"patientId": patientID})
	assert.Equal(t, true, out["patient"].(map[string]any)["completed"])

	_, err := c.call(t, ayse, "ToggleTask", map[string]any{"taskId": taskID})
	requireCode(t, err, codes.FailedPrecondition, "Bitmiş hastanın görevlerine dokunulamaz")

	_, err = c.call(t, mehmet, "EndSession", map[string]any{"sessionId": sessionID})
	requireCode(t, err, codes.PermissionDenied, "Sadece oturumu oluşturan kişi oturumu sonlandırabilir")

	c.mustCall(t, ayse, "EndSession", map[string]any{"sessionId": sessionID})

	_, err = c.call(t, ayse, "GetSession", map[string]any{"sessionId": sessionID})
	requireCode(t, err, codes.NotFound, "Oturum bulunamadı")

	out = c.mustCall(t, mehmet, "ActiveSession", map[string]any{})
	assert.Nil(t, out["session"])
}

func TestCanJoinSession_NotAllowed(t *testing.T) {
	c := newTestClient(t)

	ayse, _ := c.login(t, "ayse")
	_, mehmetID := c.login(t, "mehmet")
	zeynep, _ := c.login(t, "zeynep")

	out := c.mustCall(t, ayse, "CreateSession", map[string]any{
		"name":           "Gündüz",
		"allowedUserIds": []any{mehmetID},
	})
	sessionID := out["session"].(map[string]any)["id"].(string)

	out = c.mustCall(t, zeynep, "CanJoinSession", map[string]any{"sessionId": sessionID})
	assert.Equal(t, false, out["canJoin"])
	assert.Equal(t, "Bu oturuma giriş izniniz yok", out["reason"])

	_, err := c.call(t, zeynep, "JoinSession", map[string]any{"sessionId": sessionID})
	requireCode(t, err, codes.PermissionDenied, "Bu oturuma giriş izniniz yok")
}

func TestCreatePatient_RequiresParticipant(t *testing.T) {
	c := newTestClient(t)

	ayse, _ := c.login(t, "ayse")
	mehmet, _ := c.login(t, "mehmet")

	out := c.mustCall(t, ayse, "CreateSession", map[string]any{"name": "Gece"})
	sessionID := out["session"].(map[string]any)["id"].(string)

	_, err := c.call(t, mehmet, "CreatePatient", map[string]any{"sessionId": sessionID, "tcNo": "12345678901"})
	requireCode(t, err, codes.PermissionDenied, "Bu oturuma giriş izniniz yok")

	_, err = c.call(t, mehmet, "SessionBoard", map[string]any{"sessionId": sessionID})
	requireCode(t, err, codes.PermissionDenied, "")
}

func TestCreatePatient_Rejections(t *testing.T) {
	c := newTestClient(t)

	ayse, _ := c.login(t, "ayse")
	out := c.mustCall(t, ayse, "CreateSession", map[string]any{"name": "Gece"})
	sessionID := out["session"].(map[string]any)["id"].(string)

	_, err := c.call(t, ayse, "CreatePatient", map[string]any{"sessionId": sessionID, "tcNo": "123"})
	requireCode(t, err, codes.InvalidArgument, "")

	out = c.mustCall(t, ayse, "CreatePatient", map[string]any{
		"sessionId": sessionID,
		"tcNo":      "12345678901",
		"tasks":     []any{"EKG"},
	})
	tasks := out["tasks"].([]any)
	require.Len(t, tasks, 1)
	assert.Equal(t, "EKG", tasks[0].(map[string]any)["name"])

	_, err = c.call(t, ayse, "CreatePatient", map[string]any{"sessionId": sessionID, "tcNo": "12345678901"})
	requireCode(t, err, codes.FailedPrecondition, "")
}

func TestMutations_MissingTargets(t *testing.T) {
	c := newTestClient(t)
	ayse, _ := c.login(t, "ayse")

	_, err := c.call(t, ayse, "ToggleTask", map[string]any{"taskId": "task_missing"})
	requireCode(t, err, codes.NotFound, reasonTaskNotFound)

	_, err = c.call(t, ayse, "CancelTask", map[string]any{"taskId": "task_missing"})
	requireCode(t, err, codes.NotFound, reasonTaskNotFound)

	_, err = c.call(t, ayse, "AddTask", map[string]any{"patientId": "patient_missing", "name": "EKG"})
	requireCode(t, err, codes.NotFound, reasonPatientNotFound)

	_, err = c.call(t, ayse, "CompletePatient", map[string]any{"patientId": "patient_missing"})
	requireCode(t, err, codes.NotFound, reasonPatientNotFound)

	_, err = c.call(t, ayse, "JoinSession", map[string]any{"sessionId": "session_missing"})
	requireCode(t, err, codes.NotFound, "Oturum bulunamadı")
}

func TestAllowList_Management(t *testing.T) {
	c := newTestClient(t)

	ayse, _ := c.login(t, "ayse")
	mehmet, mehmetID := c.login(t, "mehmet")

	out := c.mustCall(t, ayse, "CreateSession", map[string]any{"name": "Gece", "allowedUserIds": []any{mehmetID}})
	sessionID := out["session"].(map[string]any)["id"].(string)

	out = c.mustCall(t, ayse, "CreateUserAndAllow", map[string]any{"sessionId": sessionID, "username": "zeynep"})
	zeynepID := out["user"].(map[string]any)["id"].(string)

	out = c.mustCall(t, ayse, "GetSession", map[string]any{"sessionId": sessionID})
	allowed := out["session"].(map[string]any)["session"].(map[string]any)["allowedUserIds"]
	assert.Contains(t, allowed, zeynepID)

	_, err := c.call(t, mehmet, "AddAllowedUser", map[string]any{"sessionId": sessionID, "userId": mehmetID})
	requireCode(t, err, codes.PermissionDenied, "Sadece oturumu oluşturan kişi kullanıcı ekleyebilir")

	c.mustCall(t, mehmet, "JoinSession", map[string]any{"sessionId": sessionID})
	c.mustCall(t, ayse, "RemoveAllowedUser", map[string]any{"sessionId": sessionID, "userId": mehmetID})

	out = c.mustCall(t, mehmet, "ActiveSession", map[string]any{})
	assert.Nil(t, out["session"])

	c.mustCall(t, mehmet, "LeaveSession", map[string]any{"sessionId": sessionID})

	out = c.mustCall(t, ayse, "ListSessions", map[string]any{})
	assert.Len(t, out["sessions"], 1)
}
