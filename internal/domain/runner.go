package domain

import (
	"context"
	"time"
)

// ProcessRunner is the port that runs one external unit of work with a deadline.
// Implementations return a StageResult for every call; a non-nil error means
// the process could not be started at all.
type ProcessRunner interface {
	Run(ctx context.Context, spec CommandSpec, dir string, timeout time.Duration) (StageResult, error)
}
