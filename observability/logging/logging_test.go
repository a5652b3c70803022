package logging

import (
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestMaskField(t *testing.T) {
	if attr := MaskField("hmacSecret", "s3cret"); attr.Value.String() != RedactedValue {
		t.Fatalf("secret not redacted: %s", attr.Value)
	}
	if attr := MaskField("Issuer", "relp-gateway"); attr.Value.String() != "relp-gateway" {
		t.Fatalf("allowlisted key redacted: %s", attr.Value)
	}
	if attr := MaskField("hmacSecret", ""); attr.Value.String() != "" {
		t.Fatalf("empty value should pass through, got %s", attr.Value)
	}
}
