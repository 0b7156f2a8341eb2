// Package chart holds chart models built from a table and renders them as SVG.
package chart

import "fmt"

// Kind is the chart type as offered to users.
type Kind string

const (
	Bar  Kind = "Bar Chart"
	Line Kind = "Line Chart"
	Pie  Kind = "Pie Chart"
)

// Canvas size in pixels.
const (
	Width  = 1000
	Height = 600
)

// BarItem is one bar.
type BarItem struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Point is one vertex of a line chart. X is used when the chart has a
// numeric x axis; otherwise points are spaced evenly and labelled.
type Point struct {
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Slice is one wedge of a pie chart.
type Slice struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Chart is a renderable chart model.
type Chart struct {
	Kind     Kind      `json:"kind"`
	Title    string    `json:"title"`
	XLabel   string    `json:"x_label,omitempty"`
	YLabel   string    `json:"y_label,omitempty"`
	NumericX bool      `json:"numeric_x,omitempty"`
	Bars     []BarItem `json:"bars,omitempty"`
	Points   []Point   `json:"points,omitempty"`
	Slices   []Slice   `json:"slices,omitempty"`
}

// BarTitle returns "Bar Chart: x vs y", with "Count" when y is empty.
func BarTitle(x, y string) string {
	if y == "" {
		y = "Count"
	}
	return fmt.Sprintf("%s: %s vs %s", Bar, x, y)
}

// LineTitle returns "Line Chart: x vs y".
func LineTitle(x, y string) string {
	return fmt.Sprintf("%s: %s vs %s", Line, x, y)
}

// PieTitle returns "Pie Chart: x".
func PieTitle(x string) string {
	return fmt.Sprintf("%s: %s", Pie, x)
}

// Valid reports whether kind names a supported chart type.
func (k Kind) Valid() bool {
	switch k {
	case Bar, Line, Pie:
		return true
	}
	return false
}
