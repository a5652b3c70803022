package otel

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

func TestParseHeaders(t *testing.T) {
	headers := ParseHeaders(" api-key = abc ,broken,=empty, tenant=relp")
	if len(headers) != 2 {
		t.Fatalf("expected 2 headers, got %v", headers)
	}
	if headers["api-key"] != "abc" || headers["tenant"] != "relp" {
		t.Fatalf("unexpected headers: %v", headers)
	}
}

func TestInitWithoutExporters(t *testing.T) {
	if _, err := Init(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error without service name")
	}
	shutdown, err := Init(context.Background(), Config{ServiceName: "relpd"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestResourceCarriesLedgerIdentity(t *testing.T) {
	res, err := newResource(Config{ServiceName: "relpd", Environment: "dev", Network: "relp-devnet"})
	if err != nil {
		t.Fatalf("resource: %v", err)
	}
	set := res.Set()
	if v, ok := set.Value(NetworkKey); !ok || v.AsString() != "relp-devnet" {
		t.Fatalf("network attribute = %v (present %v)", v.AsString(), ok)
	}
	if v, ok := set.Value(semconv.ServiceNamespaceKey); !ok || v.AsString() != "relp" {
		t.Fatalf("namespace attribute = %v (present %v)", v.AsString(), ok)
	}
	if v, _ := set.Value(semconv.ServiceNameKey); v.AsString() != "relpd" {
		t.Fatalf("service name = %q", v.AsString())
	}
}

func TestSamplerRatio(t *testing.T) {
	if desc := sampler(0.25).Description(); !strings.Contains(desc, "TraceIDRatioBased{0.25}") {
		t.Fatalf("unexpected sampler %q", desc)
	}
	for _, ratio := range []float64{0, 1, 3} {
		if desc := sampler(ratio).Description(); !strings.Contains(desc, "AlwaysOnSampler") {
			t.Fatalf("ratio %v: unexpected sampler %q", ratio, desc)
		}
	}
}

func TestCallSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	_, span := StartCall(context.Background(), "mint", 7)
	EndCall(span, nil)
	_, span = StartCall(context.Background(), "burn", 8)
	EndCall(span, errors.New("relp: insufficient balance"))

	ended := recorder.Ended()
	if len(ended) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(ended))
	}
	if ended[0].Name() != "relp.mint" || ended[0].Status().Code != codes.Ok {
		t.Fatalf("unexpected first span %s %v", ended[0].Name(), ended[0].Status())
	}
	var block int64 = -1
	for _, kv := range ended[0].Attributes() {
		if kv.Key == BlockKey {
			block = kv.Value.AsInt64()
		}
	}
	if block != 7 {
		t.Fatalf("block attribute = %d", block)
	}
	if ended[1].Status().Code != codes.Error || len(ended[1].Events()) == 0 {
		t.Fatalf("failed call not recorded: %v", ended[1].Status())
	}
}
