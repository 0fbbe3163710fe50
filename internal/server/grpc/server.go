// Package grpc exposes the handover services over gRPC. Requests and
// responses are google.protobuf.Struct messages whose fields mirror the JSON
// form of the stored records.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/handover/internal/common"
	"github.com/dmitrijs2005/handover/internal/logging"
	"github.com/dmitrijs2005/handover/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

type GRPCServer struct {
	address  string
	users    *services.UserService
	sessions *services.SessionService
	patients *services.PatientService
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, us *services.UserService, ss *services.SessionService, ps *services.PatientService) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		users:    us,
		sessions: ss,
		patients: ps,
	}
}

// NewServer returns a grpc.Server with the handover service and its
// interceptors registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.userTokenInterceptor))
	srv := grpc.NewServer(opts...)
	desc := serviceDesc()
	srv.RegisterService(&desc, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

type handlerFunc func(s *GRPCServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// handoverServer is implemented by *GRPCServer.
type handoverServer interface {
	Ping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var methods = []struct {
	name string
	h    handlerFunc
}{
	{"Ping", (*GRPCServer).Ping},
	{"Login", (*GRPCServer).Login},
	{"ListUsers", (*GRPCServer).ListUsers},
	{"CreateSession", (*GRPCServer).CreateSession},
	{"ListSessions", (*GRPCServer).ListSessions},
	{"GetSession", (*GRPCServer).GetSession},
	{"ActiveSession", (*GRPCServer).ActiveSession},
	{"CanJoinSession", (*GRPCServer).CanJoinSession},
	{"JoinSession", (*GRPCServer).JoinSession},
	{"LeaveSession", (*GRPCServer).LeaveSession},
	{"EndSession", (*GRPCServer).EndSession},
	{"AddAllowedUser", (*GRPCServer).AddAllowedUser},
	{"RemoveAllowedUser", (*GRPCServer).RemoveAllowedUser},
	{"CreateUserAndAllow", (*GRPCServer).CreateUserAndAllow},
	{"CreatePatient", (*GRPCServer).CreatePatient},
	{"SessionBoard", (*GRPCServer).SessionBoard},
	{"AddTask", (*GRPCServer).AddTask},
	{"ToggleTask", (*GRPCServer).ToggleTask},
	{"CancelTask", (*GRPCServer).CancelTask},
	{"CompletePatient", (*GRPCServer).CompletePatient},
}

func serviceDesc() grpc.ServiceDesc {
	desc := grpc.ServiceDesc{
		ServiceName: common.ServiceName,
		HandlerType: (*handoverServer)(nil),
		Streams:     []grpc.StreamDesc{},
		Metadata:    "handover.proto",
	}
	for _, m := range methods {
		desc.Methods = append(desc.Methods, unary(m.name, m.h))
	}
	return desc
}

func unary(name string, h handlerFunc) grpc.MethodDesc {
	fullMethod := common.FullMethod(name)

	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}

			s := srv.(*GRPCServer)
			if interceptor == nil {
				return h(s, ctx, in)
			}

			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return h(s, ctx, req.(*structpb.Struct))
			})
		},
	}
}
