package version

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version == "" {
		t.Fatal("expected a version string")
	}
}

func TestShort(t *testing.T) {
	s := Short()
	if s == "" {
		t.Fatal("expected a non-empty short version")
	}
	if !strings.HasPrefix(s, Version) {
		t.Fatalf("short version %q must start with %q", s, Version)
	}
}
