package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/handover/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// stringField returns the string value of a request field, or "" when it is
// absent or not a string.
func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

// stringsField returns the non-empty string elements of a list field.
func stringsField(req *structpb.Struct, name string) []string {
	var out []string
	for _, v := range req.GetFields()[name].GetListValue().GetValues() {
		if s := v.GetStringValue(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// encode converts a response object to a Struct through its JSON form so the
// field names match the stored records.
func encode(v map[string]any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}

	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}

// reply encodes v, mapping an encoding failure to codes.Internal.
func (s *GRPCServer) reply(ctx context.Context, v map[string]any) (*structpb.Struct, error) {
	out, err := encode(v)
	if err != nil {
		s.logger.Error(ctx, err.Error())
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

// toStatus maps a service error to a gRPC status. Rejections carry their
// reason; anything else is logged and reported as an internal error.
func (s *GRPCServer) toStatus(ctx context.Context, op string, err error) error {
	var re *common.ReasonError
	if errors.As(err, &re) {
		code := codes.FailedPrecondition
		switch {
		case errors.Is(re.Kind, common.ErrorValidation):
			code = codes.InvalidArgument
		case errors.Is(re.Kind, common.ErrorPermission):
			code = codes.PermissionDenied
		case errors.Is(re.Kind, common.ErrorNotFound):
			code = codes.NotFound
		}
		return status.Error(code, re.Reason)
	}

	if errors.Is(err, common.ErrorUnauthorized) {
		return status.Error(codes.Unauthenticated, "unauthorized")
	}

	s.logger.Error(ctx, "request failed", "op", op, "error", err)
	return status.Error(codes.Internal, "internal error")
}
