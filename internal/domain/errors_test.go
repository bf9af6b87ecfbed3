// internal/domain/errors_test.go
package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/romso/r4d4r/internal/domain"
)

func TestErrStartFailed_CanBeDetectedWithErrorsIs(t *testing.T) {
	wrapped := fmt.Errorf("starting subfinder: %w", domain.ErrStartFailed)
	if !errors.Is(wrapped, domain.ErrStartFailed) {
		t.Error("expected errors.Is to detect ErrStartFailed in wrapped error")
	}
}

func TestErrInternal_DoesNotMatchStageErrors(t *testing.T) {
	wrapped := fmt.Errorf("writing artifact: %w", domain.ErrInternal)
	if errors.Is(wrapped, domain.ErrStartFailed) {
		t.Error("internal failure must not be reported as a start failure")
	}
	if !errors.Is(wrapped, domain.ErrInternal) {
		t.Error("expected errors.Is to detect ErrInternal")
	}
}
