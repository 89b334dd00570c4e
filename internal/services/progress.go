package services

import (
	"github.com/sirupsen/logrus"
)

// ProgressSink receives stage-boundary progress updates. Implementations
// must be safe for concurrent use; the engine only calls it between
// stages and between loan batches, never inside the per-loan hazard loop.
type ProgressSink interface {
	Progress(module string, percent float64, message string)
}

// CancelCheck is polled at stage boundaries; returning true stops the
// run after the current batch, leaving already-computed results intact.
type CancelCheck func() bool

// NeverCancelled is the default cancel check.
func NeverCancelled() bool { return false }

// LogProgressSink writes progress updates to the process logger at
// debug level.
type LogProgressSink struct {
	Logger *logrus.Logger
}

func (s *LogProgressSink) Progress(module string, percent float64, message string) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithFields(logrus.Fields{
		"module":  module,
		"percent": percent,
	}).Debug(message)
}

// NopProgressSink discards all updates.
type NopProgressSink struct{}

func (NopProgressSink) Progress(string, float64, string) {}
