package engine

import (
	"io"
	"os"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// NewLogger returns a text logger writing to w (stderr when nil). Every
// record carries the id of this run.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("run", uuid.NewString()))
}
