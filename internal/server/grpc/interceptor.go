package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/handover/internal/common"
	"github.com/dmitrijs2005/handover/internal/logging"
	"github.com/dmitrijs2005/handover/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const userKey ctxKey = "user"

// publicMethods may be called without a user token.
var publicMethods = map[string]bool{
	common.FullMethod("Ping"):  true,
	common.FullMethod("Login"): true,
}

func (s *GRPCServer) userTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var token string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.UserTokenHeaderName)
		if len(values) > 0 {
			token = values[0]
		}
	}
	if len(token) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	user, err := s.users.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		}
		s.logger.Error(ctx, "token check failed", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	ctx = logging.ContextWith(ctx, "user_id", user.ID)
	return handler(context.WithValue(ctx, userKey, user), req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	ctx = logging.ContextWith(ctx, "method", info.FullMethod)
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "request handled", "code", status.Code(err).String(), "duration", time.Since(start))
	return resp, err
}

// currentUser returns the user attached by userTokenInterceptor.
func currentUser(ctx context.Context) (*models.User, error) {
	u, ok := ctx.Value(userKey).(*models.User)
	if !ok || u == nil {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}
	return u, nil
}
