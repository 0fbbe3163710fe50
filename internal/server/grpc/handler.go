package grpc

import (
	"context"

	"github.com/dmitrijs2005/handover/internal/common"
	"github.com/dmitrijs2005/handover/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	reasonPatientNotFound = "Hasta bulunamadı"
	reasonTaskNotFound    = "Görev bulunamadı"
)

func (s *GRPCServer) Ping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.reply(ctx, map[string]any{"status": "OK"})
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.users.Login(ctx, stringField(req, "username"))
	if err != nil {
		return nil, s.toStatus(ctx, "login", err)
	}

	s.logger.Info(ctx, "Logged in", "user_id", res.User.ID)
	return s.reply(ctx, map[string]any{"token": res.Token, "user": res.User})
}

func (s *GRPCServer) ListUsers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	list, err := s.users.List(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, "list users", err)
	}
	return s.reply(ctx, map[string]any{"users": list})
}

func (s *GRPCServer) CreateSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Create(ctx, services.CreateSessionInput{
		Name:           stringField(req, "name"),
		CreatorID:      user.ID,
		AllowedUserIDs: stringsField(req, "allowedUserIds"),
		NewUserNames:   stringsField(req, "newUsernames"),
	})
	if err != nil {
		return nil, s.toStatus(ctx, "create session", err)
	}
	return s.reply(ctx, map[string]any{"session": session})
}

func (s *GRPCServer) ListSessions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	views, err := s.sessions.Overview(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, "list sessions", err)
	}
	return s.reply(ctx, map[string]any{"sessions": views})
}

func (s *GRPCServer) GetSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	view, err := s.sessions.WithParticipants(ctx, stringField(req, "sessionId"))
	if err != nil {
		return nil, s.toStatus(ctx, "get session", err)
	}
	if view == nil {
		return nil, status.Error(codes.NotFound, "Oturum bulunamadı")
	}
	return s.reply(ctx, map[string]any{"session": view})
}

func (s *GRPCServer) ActiveSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.ActiveForUser(ctx, user.ID)
	if err != nil {
		return nil, s.toStatus(ctx, "active session", err)
	}
	return s.reply(ctx, map[string]any{"session": session})
}

func (s *GRPCServer) CanJoinSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	err = s.sessions.CanJoin(ctx, user.ID, stringField(req, "sessionId"))
	reason := common.Reason(err, "")
	if err != nil && reason == "" {
		return nil, s.toStatus(ctx, "can join", err)
	}
	return s.reply(ctx, map[string]any{"canJoin": err == nil, "reason": reason})
}

func (s *GRPCServer) JoinSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.sessions.Join(ctx, user.ID, stringField(req, "sessionId"))
	if err != nil {
		return nil, s.toStatus(ctx, "join session", err)
	}
	return s.reply(ctx, map[string]any{"participant": res.Participant, "left": res.Left})
}

func (s *GRPCServer) LeaveSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Leave(ctx, user.ID, stringField(req, "sessionId")); err != nil {
		return nil, s.toStatus(ctx, "leave session", err)
	}
	return s.reply(ctx, map[string]any{})
}

func (s *GRPCServer) EndSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.End(ctx, stringField(req, "sessionId"), user.ID); err != nil {
		return nil, s.toStatus(ctx, "end session", err)
	}
	return s.reply(ctx, map[string]any{})
}

func (s *GRPCServer) AddAllowedUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.AddAllowedUser(ctx, stringField(req, "sessionId"), stringField(req, "userId"), user.ID)
	if err != nil {
		return nil, s.toStatus(ctx, "add allowed user", err)
	}
	return s.reply(ctx, map[string]any{"session": session})
}

func (s *GRPCServer) RemoveAllowedUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.RemoveAllowedUser(ctx, stringField(req, "sessionId"), stringField(req, "userId"), user.ID)
	if err != nil {
		return nil, s.toStatus(ctx, "remove allowed user", err)
	}
	return s.reply(ctx, map[string]any{"session": session})
}

func (s *GRPCServer) CreateUserAndAllow(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	added, err := s.sessions.CreateUserAndAllow(ctx, stringField(req, "sessionId"), stringField(req, "username"), user.ID)
	if err != nil {
		return nil, s.toStatus(ctx, "create user and allow", err)
	}
	return s.reply(ctx, map[string]any{"user": added})
}

// requireParticipant rejects callers that are not members of the session.
func (s *GRPCServer) requireParticipant(ctx context.Context, userID, sessionID string) error {
	ok, err := s.sessions.IsParticipant(ctx, userID, sessionID)
	if err != nil {
		return s.toStatus(ctx, "participant check", err)
	}
	if !ok {
		return status.Error(codes.PermissionDenied, "Bu oturuma giriş izniniz yok")
	}
	return nil
}

func (s *GRPCServer) CreatePatient(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	sessionID := stringField(req, "sessionId")
	if err := s.requireParticipant(ctx, user.ID, sessionID); err != nil {
		return nil, err
	}

	var tasks []string
	if _, ok := req.GetFields()["tasks"]; ok {
		tasks = append([]string{}, stringsField(req, "tasks")...)
	}

	pt, err := s.patients.Create(ctx, services.CreatePatientInput{
		TCNo:      stringField(req, "tcNo"),
		Name:      stringField(req, "name"),
		SessionID: sessionID,
		CreatorID: user.ID,
		Tasks:     tasks,
	})
	if err != nil {
		return nil, s.toStatus(ctx, "create patient", err)
	}
	return s.reply(ctx, map[string]any{"patient": pt.Patient, "tasks": pt.Tasks})
}

func (s *GRPCServer) SessionBoard(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	sessionID := stringField(req, "sessionId")
	if err := s.requireParticipant(ctx, user.ID, sessionID); err != nil {
		return nil, err
	}

	board, err := s.patients.SessionBoard(ctx, sessionID)
	if err != nil {
		return nil, s.toStatus(ctx, "session board", err)
	}
	return s.reply(ctx, map[string]any{"patients": board})
}

func (s *GRPCServer) AddTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	task, err := s.patients.AddTask(ctx, stringField(req, "patientId"), stringField(req, "name"), user.ID)
	if err != nil {
		return nil, s.toStatus(ctx, "add task", err)
	}
	if task == nil {
		return nil, status.Error(codes.NotFound, reasonPatientNotFound)
	}
	return s.reply(ctx, map[string]any{"task": task})
}

func (s *GRPCServer) ToggleTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	task, err := s.patients.ToggleTask(ctx, stringField(req, "taskId"), user.ID)
	if err != nil {
		return nil, s.toStatus(ctx, "toggle task", err)
	}
	if task == nil {
		return nil, status.Error(codes.NotFound, reasonTaskNotFound)
	}
	return s.reply(ctx, map[string]any{"task": task})
}

func (s *GRPCServer) CancelTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	task, err := s.patients.CancelTask(ctx, stringField(req, "taskId"), user.ID)
	if err != nil {
		return nil, s.toStatus(ctx, "cancel task", err)
	}
	if task == nil {
		return nil, status.Error(codes.NotFound, reasonTaskNotFound)
	}
	return s.reply(ctx, map[string]any{"task": task})
}

func (s *GRPCServer) CompletePatient(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	patient, err := s.patients.CompletePatient(ctx, stringField(req, "patientId"), user.ID)
	if err != nil {
		return nil, s.toStatus(ctx, "complete patient", err)
	}
	if patient == nil {
		return nil, status.Error(codes.NotFound, reasonPatientNotFound)
	}
	return s.reply(ctx, map[string]any{"patient": patient})
}
