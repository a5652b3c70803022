package observability

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func sampleCount(t *testing.T, observer prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := observer.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer is not a metric")
	}
	var out dto.Metric
	if err := metric.Write(&out); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return out.GetHistogram().GetSampleCount()
}

func TestLedgerMetrics(t *testing.T) {
	m := Ledger()
	if m != Ledger() {
		t.Fatalf("ledger metrics should be a singleton")
	}

	before := testutil.ToFloat64(m.txs.WithLabelValues("mint", "error"))
	samples := sampleCount(t, m.latency.WithLabelValues("mint"))
	m.ObserveCall("mint", errors.New("boom"), time.Millisecond)
	if got := testutil.ToFloat64(m.txs.WithLabelValues("mint", "error")); got != before+1 {
		t.Fatalf("error calls = %v, want %v", got, before+1)
	}
	if got := sampleCount(t, m.latency.WithLabelValues("mint")); got != samples+1 {
		t.Fatalf("latency samples = %d, want %d", got, samples+1)
	}

	m.SetHeight(42)
	if got := testutil.ToFloat64(m.height); got != 42 {
		t.Fatalf("height = %v", got)
	}
	m.SetTotals(big.NewInt(1_000), nil)
	if got := testutil.ToFloat64(m.supply); got != 1_000 {
		t.Fatalf("supply = %v", got)
	}
	if got := testutil.ToFloat64(m.reward); got != 0 {
		t.Fatalf("reward = %v", got)
	}

	m.RecordEvent("")
	if got := testutil.ToFloat64(m.events.WithLabelValues("unknown")); got < 1 {
		t.Fatalf("unknown event not counted")
	}
}

func TestHTTPMetricsObserve(t *testing.T) {
	m := HTTP()
	before := testutil.ToFloat64(m.errors.WithLabelValues("/v1/mint", "409"))
	m.Observe("/v1/mint", "POST", 409, time.Millisecond)
	if got := testutil.ToFloat64(m.errors.WithLabelValues("/v1/mint", "409")); got != before+1 {
		t.Fatalf("errors = %v, want %v", got, before+1)
	}
	m.RecordThrottle("")
	if got := testutil.ToFloat64(m.throttles.WithLabelValues("unspecified")); got < 1 {
		t.Fatalf("throttle not counted")
	}

	var nilMetrics *httpMetrics
	nilMetrics.Observe("/x", "GET", 200, 0)
}
