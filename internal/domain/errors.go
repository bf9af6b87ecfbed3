// internal/domain/errors.go
package domain

import "errors"

// ErrStartFailed is returned by process runners when the binary could not be
// executed (missing, not executable).
var ErrStartFailed = errors.New("process start failed")

// ErrTimedOut marks stage results whose deadline elapsed.
var ErrTimedOut = errors.New("timed out")

// ErrInternal wraps failures of the executor's own control flow. It is the
// only error class that aborts a run.
var ErrInternal = errors.New("internal pipeline failure")

// ErrInvalidGraph is returned when a stage graph fails validation.
var ErrInvalidGraph = errors.New("invalid stage graph")

// ErrInvalidTarget is returned when the target is not a usable domain name.
var ErrInvalidTarget = errors.New("invalid target")
