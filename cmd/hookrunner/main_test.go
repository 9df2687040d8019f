package main

import (
	"os"
	"testing"
)

func TestFrameworkRoot_EnvOverride(t *testing.T) {
	t.Setenv("CLAUDE_HOOK_FRAMEWORK_ROOT", "/opt/hookrunner")
	if got := frameworkRoot(); got != "/opt/hookrunner" {
		t.Errorf("expected env override, got %q", got)
	}
}

func TestFrameworkRoot_FallsBackToExecutableDir(t *testing.T) {
	os.Unsetenv("CLAUDE_HOOK_FRAMEWORK_ROOT")
	got := frameworkRoot()
	if got == "" {
		t.Error("expected a non-empty fallback framework root")
	}
}
