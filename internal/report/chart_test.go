package report

import (
	"math"
	"strings"
	"testing"

	"fintrack/internal/core"
)

func TestBarChart(t *testing.T) {
	bars := BarChart(map[core.Category]core.Money{
		core.Food:      {Cents: 2500},
		core.Transport: {Cents: 1500},
		core.Others:    {Cents: 1},
	})
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	if bars[0].Category != core.Food || bars[0].Height != 100 {
		t.Fatalf("tallest bar wrong: %+v", bars[0])
	}
	if bars[1].Height != 60 {
		t.Fatalf("expected 60%% for transport, got %d", bars[1].Height)
	}
	if bars[2].Height != 2 {
		t.Fatalf("expected minimum height for tiny bar, got %d", bars[2].Height)
	}
	if len(BarChart(nil)) != 0 {
		t.Fatalf("expected no bars for empty input")
	}
}

func TestPieChart(t *testing.T) {
	slices := PieChart(map[core.Category]core.Money{
		core.Food:      {Cents: 2500},
		core.Transport: {Cents: 1500},
	})
	if len(slices) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(slices))
	}
	if slices[0].Label != "62.5%" || slices[1].Label != "37.5%" {
		t.Fatalf("unexpected labels: %q %q", slices[0].Label, slices[1].Label)
	}
	var total float64
	for _, s := range slices {
		total += s.Percent
		if !strings.HasPrefix(s.Path, "M 0 0 L ") {
			t.Fatalf("unexpected path %q", s.Path)
		}
	}
	if math.Abs(total-100) > 1e-9 {
		t.Fatalf("percentages sum to %v", total)
	}
	// 62.5% sweeps more than half the circle.
	if !strings.Contains(slices[0].Path, " 0 1 0 ") {
		t.Fatalf("expected large-arc flag on first slice: %q", slices[0].Path)
	}
}

func TestPieChartSingleCategory(t *testing.T) {
	slices := PieChart(map[core.Category]core.Money{core.Utilities: {Cents: 999}})
	if len(slices) != 1 || slices[0].Label != "100.0%" {
		t.Fatalf("unexpected slices: %+v", slices)
	}
	if !strings.HasSuffix(slices[0].Path, "Z") || strings.Contains(slices[0].Path, "L") {
		t.Fatalf("expected full circle path, got %q", slices[0].Path)
	}
	if PieChart(nil) != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestPointStartsAtConfiguredAngle(t *testing.T) {
	x, y := point(pieStartAngle, 1)
	// 140 degrees lands in the upper-left quadrant (SVG y is negative up).
	if x >= 0 || y >= 0 {
		t.Fatalf("unexpected start point (%v, %v)", x, y)
	}
}
