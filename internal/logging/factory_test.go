package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
		want    string
	}{
		{format: "", want: `"msg":"hello"`},
		{format: FormatJSON, want: `"msg":"hello"`},
		{format: FormatText, want: "msg=hello"},
		{format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(tt.format, &buf)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			l.Info(context.Background(), "hello")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestNew_Zap(t *testing.T) {
	l, err := New(FormatZap, nil)
	require.NoError(t, err)
	_, ok := l.(*ZapLogger)
	assert.True(t, ok)
}
