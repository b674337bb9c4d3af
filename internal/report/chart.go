package report

import (
	"fmt"
	"math"

	"fintrack/internal/core"
)

// pieStartAngle is where the first slice begins, in degrees
// counter-clockwise from three o'clock.
const pieStartAngle = 140.0

// Bar is one column of the expenses-by-category bar chart.
type Bar struct {
	Category core.Category
	Amount   core.Money
	// Height is the bar height in percent of the tallest bar.
	Height int
}

// BarChart scales each category against the largest one. Small non-zero
// amounts get a minimum height so they stay visible.
func BarChart(byCat map[core.Category]core.Money) []Bar {
	rows := SortedCategories(byCat)
	var max int64
	for _, r := range rows {
		if r.Amount.Cents > max {
			max = r.Amount.Cents
		}
	}
	bars := make([]Bar, 0, len(rows))
	for _, r := range rows {
		h := 0
		if max > 0 && r.Amount.Cents > 0 {
			h = int((r.Amount.Cents*100 + max/2) / max)
			if h < 2 {
				h = 2
			}
			if h > 100 {
				h = 100
			}
		}
		bars = append(bars, Bar{Category: r.Category, Amount: r.Amount, Height: h})
	}
	return bars
}

// Slice is one wedge of the expense breakdown pie chart, laid out on a
// unit circle centered at the origin (SVG coordinates, y grows down).
type Slice struct {
	Category core.Category
	Amount   core.Money
	Percent  float64
	// Label is the percentage formatted like "25.0%".
	Label string
	// Path is the SVG path data of the wedge.
	Path string
	// LabelX, LabelY position the label inside the wedge.
	LabelX, LabelY float64
}

// PieChart lays out the categories as wedges, counter-clockwise from
// pieStartAngle. A single category yields a full circle.
func PieChart(byCat map[core.Category]core.Money) []Slice {
	rows := SortedCategories(byCat)
	var total int64
	for _, r := range rows {
		total += r.Amount.Cents
	}
	if total <= 0 {
		return nil
	}

	slices := make([]Slice, 0, len(rows))
	start := pieStartAngle
	for _, r := range rows {
		frac := float64(r.Amount.Cents) / float64(total)
		sweep := frac * 360
		end := start + sweep
		mid := start + sweep/2

		s := Slice{
			Category: r.Category,
			Amount:   r.Amount,
			Percent:  frac * 100,
			Label:    fmt.Sprintf("%.1f%%", frac*100),
		}
		s.LabelX, s.LabelY = point(mid, 0.6)
		if len(rows) == 1 {
			s.Path = "M 1 0 A 1 1 0 1 0 -1 0 A 1 1 0 1 0 1 0 Z"
			s.LabelX, s.LabelY = 0, 0
		} else {
			s.Path = wedgePath(start, end)
		}
		slices = append(slices, s)
		start = end
	}
	return slices
}

// wedgePath draws a wedge from angle a to b (degrees, counter-clockwise).
func wedgePath(a, b float64) string {
	x1, y1 := point(a, 1)
	x2, y2 := point(b, 1)
	large := 0
	if b-a > 180 {
		large = 1
	}
	// sweep-flag 0: counter-clockwise on screen.
	return fmt.Sprintf("M 0 0 L %.4f %.4f A 1 1 0 %d 0 %.4f %.4f Z", x1, y1, large, x2, y2)
}

func point(deg, r float64) (float64, float64) {
	rad := deg * math.Pi / 180
	return round4(r * math.Cos(rad)), round4(-r * math.Sin(rad))
}

func round4(v float64) float64 {
	v = math.Round(v*10000) / 10000
	if v == 0 {
		return 0 // drop negative zero
	}
	return v
}
