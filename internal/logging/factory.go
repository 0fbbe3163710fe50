package logging

import (
	"fmt"
	"io"
	"log/slog"

	"go.uber.org/zap"
)

// Supported values of the log_format setting.
const (
	FormatJSON = "json"
	FormatText = "text"
	FormatZap  = "zap"
)

// New builds the Logger selected by format. Slog variants write to w; the zap
// variant uses zap's production config (stderr, JSON).
func New(format string, w io.Writer) (Logger, error) {
	switch format {
	case "", FormatJSON:
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, nil))), nil
	case FormatText:
		return NewSlogLogger(slog.New(slog.NewTextHandler(w, nil))), nil
	case FormatZap:
		zl, err := zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("zap init: %w", err)
		}
		return NewZapLogger(zl), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
