package domain_test

import (
	"testing"
	"time"

	"github.com/romso/r4d4r/internal/domain"
)

func TestCommandSpec_String(t *testing.T) {
	argv := domain.CommandSpec{Argv: []string{"subfinder", "-d", "example.com"}}
	if argv.String() != "subfinder -d example.com" {
		t.Errorf("unexpected argv rendering: %q", argv.String())
	}
	shell := domain.CommandSpec{Shell: "cat a | httpx > b"}
	if !shell.IsShell() || shell.String() != "cat a | httpx > b" {
		t.Errorf("unexpected shell rendering: %q", shell.String())
	}
	if !(domain.CommandSpec{Shell: "  "}).IsZero() {
		t.Error("blank shell string should be zero")
	}
}

func TestStageResult_FirstStderrLine(t *testing.T) {
	r := domain.StageResult{Stderr: "\n  \nfirst problem\nsecond\n"}
	if got := r.FirstStderrLine(); got != "first problem" {
		t.Errorf("expected 'first problem', got %q", got)
	}
}

func TestPipelineContext_TimeoutFor(t *testing.T) {
	pctx := domain.PipelineContext{Timeout: 2 * time.Minute}
	if got := pctx.TimeoutFor(domain.Stage{}); got != 2*time.Minute {
		t.Errorf("expected default timeout, got %s", got)
	}
	if got := pctx.TimeoutFor(domain.Stage{Timeout: 30 * time.Second}); got != 30*time.Second {
		t.Errorf("expected stage override, got %s", got)
	}
}
