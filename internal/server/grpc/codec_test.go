package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/handover/internal/common"
	"github.com/dmitrijs2005/handover/internal/logging"
	"github.com/dmitrijs2005/handover/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestStringFields(t *testing.T) {
	req, err := structpb.NewStruct(map[string]any{
		"name":  "Gece",
		"count": 3,
		"ids":   []any{"a", "", 7, "b"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Gece", stringField(req, "name"))
	assert.Equal(t, "", stringField(req, "count"))
	assert.Equal(t, "", stringField(req, "missing"))
	assert.Equal(t, []string{"a", "b"}, stringsField(req, "ids"))
	assert.Nil(t, stringsField(req, "missing"))
	assert.Equal(t, "", stringField(nil, "name"))
}

func TestEncode_UsesRecordFieldNames(t *testing.T) {
	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	var none *models.Session

	out, err := encode(map[string]any{
		"user":    &models.User{ID: "user_1", UserName: "ayse", CreatedAt: at, UpdatedAt: at},
		"session": none,
	})
	require.NoError(t, err)

	m := out.AsMap()
	user := m["user"].(map[string]any)
	assert.Equal(t, "ayse", user["username"])
	assert.Equal(t, "2025-03-01T08:00:00Z", user["createdAt"])
	assert.Nil(t, m["session"])
}

func TestToStatus(t *testing.T) {
	s := &GRPCServer{logger: logging.Nop{}}

	tests := []struct {
		name string
		err  error
		code codes.Code
		msg  string
	}{
		{"validation", common.Validation("Oturum adı gereklidir"), codes.InvalidArgument, "Oturum adı gereklidir"},
		{"permission", common.Permission("Bu oturuma giriş izniniz yok"), codes.PermissionDenied, "Bu oturuma giriş izniniz yok"},
		{"missing", common.Missing("Oturum bulunamadı"), codes.NotFound, "Oturum bulunamadı"},
		{"conflict", common.Conflict("Hasta zaten tamamlandı"), codes.FailedPrecondition, "Hasta zaten tamamlandı"},
		{"wrapped reason", fmt.Errorf("join: %w", common.Conflict("Bu oturuma zaten katılıyorsunuz")), codes.FailedPrecondition, "Bu oturuma zaten katılıyorsunuz"},
		{"unauthorized", common.ErrorUnauthorized, codes.Unauthenticated, "unauthorized"},
		{"internal", errors.New("db error: connection refused"), codes.Internal, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ok := status.FromError(s.toStatus(context.Background(), "op", tt.err))
			require.True(t, ok)
			assert.Equal(t, tt.code, st.Code())
			assert.Equal(t, tt.msg, st.Message())
		})
	}
}
