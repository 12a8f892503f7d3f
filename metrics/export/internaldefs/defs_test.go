package internaldefs

import (
	"strconv"
	"strings"
	"testing"

	"github.com/pcprimedz/dashboard"
)

func TestBoundsMatchClientBuckets(t *testing.T) {
	if len(HistogramBounds) != len(dashboard.LatencyBucketBounds)+1 {
		t.Fatalf("expected %d bounds, got %d", len(dashboard.LatencyBucketBounds)+1, len(HistogramBounds))
	}
	if len(HistogramBoundSuffix) != len(HistogramBounds) {
		t.Fatal("bound suffixes out of step with bounds")
	}
	for i, d := range dashboard.LatencyBucketBounds {
		want := strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
		if HistogramBounds[i] != want {
			t.Fatalf("bound %d = %q, want %q", i, HistogramBounds[i], want)
		}
	}
	if HistogramBounds[len(HistogramBounds)-1] != "+Inf" {
		t.Fatal("last bound must be +Inf")
	}
}

func TestCounterNamesUnique(t *testing.T) {
	seen := map[string]bool{AuditDroppedName: true}
	ids := map[dashboard.MetricID]bool{}
	for _, def := range CounterDefs {
		if seen[def.Name] || ids[def.ID] {
			t.Fatalf("duplicate definition %+v", def)
		}
		if !strings.HasPrefix(def.Name, "dashboard_") || !strings.HasSuffix(def.Name, "_total") {
			t.Fatalf("bad counter name %q", def.Name)
		}
		seen[def.Name] = true
		ids[def.ID] = true
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	want := [8]uint64{1, 3, 6, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}
