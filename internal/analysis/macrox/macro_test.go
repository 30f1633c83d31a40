package macrox

import (
	"math"
	"testing"
	"time"

	"github.com/openfolio/marketgauge/pkg/models"
)

func yieldBars(closes []float64, startDay int) []models.PriceBar {
	base := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{Date: base.AddDate(0, 0, startDay+i), Close: c}
	}
	return bars
}

func TestYieldCurveSpread(t *testing.T) {
	tnx := yieldBars([]float64{4.2, 4.3, 4.4}, 0)
	irx := yieldBars([]float64{5.0, 5.0, 5.0}, 0)

	r, err := YieldCurve(tnx, irx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Points) != 3 {
		t.Fatalf("points = %d, want 3", len(r.Points))
	}
	if math.Abs(r.Latest-(-0.6)) > 1e-9 {
		t.Errorf("latest spread = %.2f, want -0.60", r.Latest)
	}
	if !r.Inverted {
		t.Error("negative spread must flag inversion")
	}
}

func TestYieldCurveJoinsOnDate(t *testing.T) {
	tnx := yieldBars([]float64{4.2, 4.3, 4.4}, 0)
	irx := yieldBars([]float64{4.0, 4.0}, 1) // overlaps days 1-2 only

	r, err := YieldCurve(tnx, irx)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Points) != 2 {
		t.Fatalf("points = %d, want 2 (unmatched days dropped)", len(r.Points))
	}
	if r.Inverted {
		t.Error("positive spread flagged inverted")
	}
}

func TestYieldCurveNoOverlap(t *testing.T) {
	tnx := yieldBars([]float64{4.2}, 0)
	irx := yieldBars([]float64{4.0}, 10)
	if _, err := YieldCurve(tnx, irx); err == nil {
		t.Fatal("expected error when histories share no dates")
	}
}

func TestNormalizedPerformance(t *testing.T) {
	bars := yieldBars([]float64{100, 110, 95}, 0)
	pts, err := NormalizedPerformance(bars)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 10, -5}
	for i, p := range pts {
		if math.Abs(p.Value-want[i]) > 1e-9 {
			t.Errorf("point %d = %.2f, want %.2f", i, p.Value, want[i])
		}
	}
}

func TestNormalizedPerformanceZeroBase(t *testing.T) {
	if _, err := NormalizedPerformance(yieldBars([]float64{0, 1}, 0)); err == nil {
		t.Fatal("expected error on zero base price")
	}
}
