package godb

import (
	"math"
	"testing"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// TestIntHistogramUniformSelectivity builds a 100-bucket histogram over
// [1, 100] with one value per integer and checks the canonical
// equi-width selectivity estimates for EQ/GT/LT around the midpoint.
func TestIntHistogramUniformSelectivity(t *testing.T) {
	h, err := NewIntHistogram(100, 1, 100)
	if err != nil {
		t.Fatalf("NewIntHistogram: %v", err)
	}
	for v := int64(1); v <= 100; v++ {
		h.AddValue(v)
	}

	if eq := h.EstimateSelectivity(OpEq, 50); !approxEqual(eq, 0.01, 0.005) {
		t.Fatalf("EQ(50) = %v, want ~0.01", eq)
	}
	if gt := h.EstimateSelectivity(OpGt, 50); !approxEqual(gt, 0.50, 0.02) {
		t.Fatalf("GT(50) = %v, want ~0.50", gt)
	}
	if lt := h.EstimateSelectivity(OpLt, 50); !approxEqual(lt, 0.49, 0.02) {
		t.Fatalf("LT(50) = %v, want ~0.49", lt)
	}
	le := h.EstimateSelectivity(OpLe, 50)
	gt := h.EstimateSelectivity(OpGt, 50)
	if !approxEqual(le+gt, 1.0, 0.03) {
		t.Fatalf("LE(50)+GT(50) = %v, want ~1.0", le+gt)
	}
}

func TestIntHistogramOutOfRange(t *testing.T) {
	h, err := NewIntHistogram(10, 0, 99)
	if err != nil {
		t.Fatalf("NewIntHistogram: %v", err)
	}
	for v := int64(0); v < 100; v++ {
		h.AddValue(v)
	}
	if sel := h.EstimateSelectivity(OpGt, 1000); sel != 0 {
		t.Fatalf("GT beyond max = %v, want 0", sel)
	}
	if sel := h.EstimateSelectivity(OpLt, -1000); sel != 0 {
		t.Fatalf("LT below min = %v, want 0", sel)
	}
	if sel := h.EstimateSelectivity(OpGt, -1000); sel != 1 {
		t.Fatalf("GT below min = %v, want 1", sel)
	}
}
