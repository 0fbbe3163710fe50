package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/handover/internal/client/models"
	"github.com/dmitrijs2005/handover/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ Client = (*GRPCClient)(nil)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn

	mu       sync.Mutex
	token    string
	userName string
}

func withUserToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.UserTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) credentials() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.userName
}

func (s *GRPCClient) userTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	token, userName := s.credentials()
	if token != "" {
		ctx = withUserToken(ctx, token)
	}

	err := invoker(ctx, method, req, reply, cc, opts...)
	if status.Code(err) != codes.Unauthenticated || userName == "" || method == common.FullMethod("Login") {
		return err
	}

	// token expired, log in again with the same name
	if _, err := s.Login(ctx, userName); err != nil {
		return err
	}

	token, _ = s.credentials()
	return invoker(withUserToken(ctx, token), method, req, reply, cc, opts...)
}

func NewHandoverClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.userTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

// call sends req to method and decodes the reply into out when out is not nil.
func (s *GRPCClient) call(ctx context.Context, method string, req map[string]any, out any) error {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	resp := new(structpb.Struct)
	if err := s.conn.Invoke(ctx, common.FullMethod(method), in, resp); err != nil {
		return s.mapError(err)
	}

	if out == nil {
		return nil
	}

	data, err := protojson.Marshal(resp)
	if err != nil {
		return fmt.Errorf("decode %s reply: %w", method, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s reply: %w", method, err)
	}
	return nil
}

func (s *GRPCClient) mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.Unauthenticated:
		return ErrUnauthorized
	case codes.Internal, codes.Unknown:
		return err
	default:
		return &RejectedError{Code: st.Code(), Reason: st.Message()}
	}
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	return s.call(ctx, "Ping", map[string]any{}, nil)
}

func (s *GRPCClient) Login(ctx context.Context, userName string) (*models.User, error) {
	var resp struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	if err := s.call(ctx, "Login", map[string]any{"username": userName}, &resp); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.token = resp.Token
	s.userName = resp.User.UserName
	s.mu.Unlock()

	return resp.User, nil
}

func (s *GRPCClient) ListSessions(ctx context.Context) ([]*models.SessionView, error) {
	var resp struct {
		Sessions []*models.SessionView `json:"sessions"`
	}
	if err := s.call(ctx, "ListSessions", map[string]any{}, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// ActiveSession returns the session the user is in, or nil.
func (s *GRPCClient) ActiveSession(ctx context.Context) (*models.Session, error) {
	var resp struct {
		Session *models.Session `json:"session"`
	}
	if err := s.call(ctx, "ActiveSession", map[string]any{}, &resp); err != nil {
		return nil, err
	}
	return resp.Session, nil
}

func (s *GRPCClient) CreateSession(ctx context.Context, name string, newUserNames []string) (*models.Session, error) {
	names := make([]any, 0, len(newUserNames))
	for _, n := range newUserNames {
		names = append(names, n)
	}

	var resp struct {
		Session *models.Session `json:"session"`
	}
	req := map[string]any{"name": name, "newUsernames": names}
	if err := s.call(ctx, "CreateSession", req, &resp); err != nil {
		return nil, err
	}
	return resp.Session, nil
}

func (s *GRPCClient) JoinSession(ctx context.Context, sessionID string) error {
	return s.call(ctx, "JoinSession", map[string]any{"sessionId": sessionID}, nil)
}

func (s *GRPCClient) LeaveSession(ctx context.Context, sessionID string) error {
	return s.call(ctx, "LeaveSession", map[string]any{"sessionId": sessionID}, nil)
}

func (s *GRPCClient) EndSession(ctx context.Context, sessionID string) error {
	return s.call(ctx, "EndSession", map[string]any{"sessionId": sessionID}, nil)
}

func (s *GRPCClient) CreatePatient(ctx context.Context, sessionID, tcNo, name string) (*models.Patient, []*models.Task, error) {
	var resp struct {
		Patient *models.Patient `json:"patient"`
		Tasks   []*models.Task  `json:"tasks"`
	}
	req := map[string]any{"sessionId": sessionID, "tcNo": tcNo, "name": name}
	if err := s.call(ctx, "CreatePatient", req, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Patient, resp.Tasks, nil
}

func (s *GRPCClient) SessionBoard(ctx context.Context, sessionID string) ([]*models.BoardPatient, error) {
	var resp struct {
		Patients []*models.BoardPatient `json:"patients"`
	}
	if err := s.call(ctx, "SessionBoard", map[string]any{"sessionId": sessionID}, &resp); err != nil {
		return nil, err
	}
	return resp.Patients, nil
}

func (s *GRPCClient) AddTask(ctx context.Context, patientID, name string) (*models.Task, error) {
	return s.task(ctx, "AddTask", map[string]any{"patientId": patientID, "name": name})
}

func (s *GRPCClient) ToggleTask(ctx context.Context, taskID string) (*models.Task, error) {
	return s.task(ctx, "ToggleTask", map[string]any{"taskId": taskID})
}

func (s *GRPCClient) CancelTask(ctx context.Context, taskID string) (*models.Task, error) {
	return s.task(ctx, "CancelTask", map[string]any{"taskId": taskID})
}

func (s *GRPCClient) task(ctx context.Context, method string, req map[string]any) (*models.Task, error) {
	var resp struct {
		Task *models.Task `json:"task"`
	}
	if err := s.call(ctx, method, req, &resp); err != nil {
		return nil, err
	}
	return resp.Task, nil
}

func (s *GRPCClient) CompletePatient(ctx context.Context, patientID string) (*models.Patient, error) {
	var resp struct {
		Patient *models.Patient `json:"patient"`
	}
	if err := s.call(ctx, "CompletePatient", map[string]any{"patientId": patientID}, &resp); err != nil {
		return nil, err
	}
	return resp.Patient, nil
}
