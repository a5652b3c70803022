package passphrase

import (
	"io"
	"testing"
)

func TestSourceReadsEnvironment(t *testing.T) {
	t.Setenv(EnvVar, "correct horse")
	src := NewSource(EnvVar, io.Discard)
	got, err := src.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "correct horse" {
		t.Fatalf("passphrase = %q", got)
	}

	t.Setenv(EnvVar, "changed")
	again, err := src.Get()
	if err != nil || again != "correct horse" {
		t.Fatalf("expected cached passphrase, got %q (%v)", again, err)
	}
}

func TestSourceRejectsBlankEnvironment(t *testing.T) {
	t.Setenv(EnvVar, "   ")
	if _, err := NewSource(EnvVar, io.Discard).Get(); err == nil {
		t.Fatalf("expected blank passphrase to be rejected")
	}
}
