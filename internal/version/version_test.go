package version

import (
	"strings"
	"testing"
)

func TestFormatVersionDev(t *testing.T) {
	got := FormatVersion("dev", "none", "unknown")
	if !strings.Contains(got, "development build") {
		t.Errorf("expected development build marker, got %q", got)
	}
}

func TestFormatVersionRelease(t *testing.T) {
	got := FormatVersion("v1.2.0", "abc1234", "2026-08-01")
	if !strings.Contains(got, "v1.2.0") || !strings.Contains(got, "abc1234") {
		t.Errorf("unexpected format: %q", got)
	}
}

func TestGetVersionComponents(t *testing.T) {
	v, c, d := GetVersionComponents()
	if v == "" || c == "" || d == "" {
		t.Error("version components should never be empty")
	}
}
