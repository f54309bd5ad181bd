package classify

import (
	"math"
	"testing"
)

// TestTwoClusterAlternating verifies the documented reference example:
// eight alternating means converge to a high cluster of ~100.25 holding the
// even indices and a low cluster of ~50 holding the odd ones
func TestTwoClusterAlternating(t *testing.T) {
	means := []float64{100, 50, 102, 49, 98, 51, 101, 50}

	res := twoCluster(means)

	if math.Abs(res.highCenter-100.25) > 1e-9 {
		t.Errorf("Expected high center 100.25, got %f", res.highCenter)
	}
	if math.Abs(res.lowCenter-50.0) > 1e-9 {
		t.Errorf("Expected low center 50.0, got %f", res.lowCenter)
	}

	wantHigh := []int{0, 2, 4, 6}
	if len(res.high) != len(wantHigh) {
		t.Fatalf("Expected high cluster %v, got %v", wantHigh, res.high)
	}
	for i, idx := range wantHigh {
		if res.high[i] != idx {
			t.Errorf("Expected high cluster %v, got %v", wantHigh, res.high)
			break
		}
	}
}

// TestTwoClusterDeterministic verifies identical input yields identical output
func TestTwoClusterDeterministic(t *testing.T) {
	means := []float64{10, 90, 11, 88, 9, 91}

	first := twoCluster(means)
	for i := 0; i < 10; i++ {
		res := twoCluster(means)
		if res.lowCenter != first.lowCenter || res.highCenter != first.highCenter {
			t.Fatalf("Run %d: centers changed: %f/%f vs %f/%f",
				i, res.lowCenter, res.highCenter, first.lowCenter, first.highCenter)
		}
		if len(res.low) != len(first.low) || len(res.high) != len(first.high) {
			t.Fatalf("Run %d: partition changed", i)
		}
	}
}

// TestTwoClusterConstantMeans verifies the degenerate all-equal case: ties
// resolve toward the lower-valued center, leaving the high group empty
func TestTwoClusterConstantMeans(t *testing.T) {
	means := []float64{5, 5, 5, 5}

	res := twoCluster(means)
	if len(res.high) != 0 {
		t.Errorf("Expected empty high cluster for constant means, got %v", res.high)
	}
	if len(res.low) != 4 {
		t.Errorf("Expected all indices in low cluster, got %v", res.low)
	}
}
