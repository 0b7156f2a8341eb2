package chart

// svg.go lays a Chart out in pixel space. The markup itself lives in
// chart.templ; run `templ generate` after editing it.

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/a-h/templ"
)

// Stroke colors for the plot frame. Bar and line colors are in chart.templ.
const (
	axisColor = "#333333"
	gridColor = "#e5e5e5"
)

// tab10 is the categorical palette used for pie wedges.
var tab10 = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// Plot area margins.
const (
	marginLeft   = 90
	marginRight  = 40
	marginTop    = 60
	marginBottom = 110

	plotWidth  = Width - marginLeft - marginRight
	plotHeight = Height - marginTop - marginBottom

	// maxTickLabels caps the category labels drawn under the x axis.
	maxTickLabels = 40
)

// ContentType is the media type written by Render.
const ContentType = "image/svg+xml"

// Render writes c as an SVG document.
func Render(ctx context.Context, w io.Writer, c *Chart) error {
	return Component(c).Render(ctx, w)
}

// Component returns the SVG drawing of c.
func Component(c *Chart) templ.Component {
	d := layout(c)
	var plot templ.Component
	switch c.Kind {
	case Bar:
		plot = barPlot(d)
	case Line:
		plot = linePlot(d)
	case Pie:
		plot = piePlot(d)
	default:
		plot = templ.NopComponent
	}
	return document(d, plot)
}

// drawing is a chart resolved to formatted SVG coordinates.
type drawing struct {
	Width, Height, ViewBox string
	Title, TitleX, TitleY  string

	Lines  []segment
	Labels []label

	Bars     []barShape
	Polyline string
	Markers  []marker
	Wedges   []wedge
}

type segment struct {
	X1, Y1, X2, Y2 string
	Stroke         string
}

type label struct {
	X, Y      string
	Anchor    string
	Baseline  string
	Size      string
	Transform string
	Text      string
}

type barShape struct {
	X, Y, Width, Height string
	Tip                 string
}

type marker struct {
	X, Y string
	Tip  string
}

// wedge is one pie slice. A Whole wedge is drawn as a full circle.
type wedge struct {
	Whole     bool
	CX, CY, R string
	Path      string
	Color     string
}

func layout(c *Chart) *drawing {
	d := &drawing{
		Width:   strconv.Itoa(Width),
		Height:  strconv.Itoa(Height),
		ViewBox: fmt.Sprintf("0 0 %d %d", Width, Height),
		Title:   c.Title,
		TitleX:  strconv.Itoa(Width / 2),
		TitleY:  strconv.Itoa(marginTop / 2),
	}
	switch c.Kind {
	case Bar:
		d.bars(c)
	case Line:
		d.line(c)
	case Pie:
		d.pie(c)
	}
	return d
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }

func tick(f float64) string { return strconv.FormatFloat(f, 'g', 6, 64) }

func (d *drawing) segment(x1, y1, x2, y2 float64, stroke string) {
	d.Lines = append(d.Lines, segment{X1: num(x1), Y1: num(y1), X2: num(x2), Y2: num(y2), Stroke: stroke})
}

// text appends a label and returns it for further styling. The pointer is
// only valid until the next append.
func (d *drawing) text(x, y float64, anchor, s string) *label {
	d.Labels = append(d.Labels, label{
		X:        num(x),
		Y:        num(y),
		Anchor:   anchor,
		Baseline: "auto",
		Size:     "12",
		Text:     s,
	})
	return &d.Labels[len(d.Labels)-1]
}

func rotate(deg int, x, y float64) string {
	return fmt.Sprintf("rotate(%d %s %s)", deg, num(x), num(y))
}

// yScale maps data values onto the plot's vertical pixel range.
type yScale struct{ lo, hi float64 }

func newYScale(values []float64) yScale {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.05
	if hi > 0 {
		hi += pad
	}
	if lo < 0 {
		lo -= pad
	}
	return yScale{lo: lo, hi: hi}
}

func (s yScale) px(v float64) float64 {
	return marginTop + (s.hi-v)/(s.hi-s.lo)*plotHeight
}

// axes lays out the frame, horizontal grid lines with value ticks, and axis labels.
func (d *drawing) axes(s yScale, xLabel, yLabel string) {
	const ticks = 5
	left, right := float64(marginLeft), float64(marginLeft+plotWidth)
	top, bottom := float64(marginTop), float64(marginTop+plotHeight)

	for i := 0; i <= ticks; i++ {
		v := s.lo + (s.hi-s.lo)*float64(i)/ticks
		y := s.px(v)
		d.segment(left, y, right, y, gridColor)
		d.text(left-8, y, "end", tick(v)).Baseline = "middle"
	}
	d.segment(left, top, left, bottom, axisColor)
	d.segment(left, bottom, right, bottom, axisColor)

	if xLabel != "" {
		d.text(left+plotWidth/2, Height-15, "middle", xLabel).Size = "14"
	}
	if yLabel != "" {
		mid := top + plotHeight/2
		l := d.text(20, mid, "middle", yLabel)
		l.Size = "14"
		l.Transform = rotate(-90, 20, mid)
	}
}

// categoryLabel lays out a rotated label under the x axis at pixel x.
func (d *drawing) categoryLabel(x float64, s string) {
	y := float64(marginTop + plotHeight + 14)
	d.text(x, y, "end", s).Transform = rotate(-45, x, y)
}

// labelStride returns how many categories to skip between drawn labels.
func labelStride(n int) int {
	if n <= maxTickLabels {
		return 1
	}
	return (n + maxTickLabels - 1) / maxTickLabels
}

func (d *drawing) bars(c *Chart) {
	values := make([]float64, len(c.Bars))
	for i, b := range c.Bars {
		values[i] = b.Value
	}
	s := newYScale(values)
	d.axes(s, c.XLabel, c.YLabel)
	if len(c.Bars) == 0 {
		return
	}

	band := float64(plotWidth) / float64(len(c.Bars))
	stride := labelStride(len(c.Bars))
	zero := s.px(0)
	for i, b := range c.Bars {
		if math.IsNaN(b.Value) || math.IsInf(b.Value, 0) {
			continue
		}
		x := marginLeft + float64(i)*band
		d.Bars = append(d.Bars, barShape{
			X:      num(x + band*0.1),
			Y:      num(math.Min(s.px(b.Value), zero)),
			Width:  num(band * 0.8),
			Height: num(math.Abs(s.px(b.Value) - zero)),
			Tip:    b.Label + ": " + tick(b.Value),
		})
		if i%stride == 0 {
			d.categoryLabel(x+band/2, b.Label)
		}
	}
}

func (d *drawing) line(c *Chart) {
	values := make([]float64, len(c.Points))
	for i, pt := range c.Points {
		values[i] = pt.Y
	}
	s := newYScale(values)
	d.axes(s, c.XLabel, c.YLabel)
	if len(c.Points) == 0 {
		return
	}

	xpx := func(i int, pt Point) float64 {
		band := float64(plotWidth) / float64(len(c.Points))
		return marginLeft + band*(float64(i)+0.5)
	}
	if c.NumericX {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, pt := range c.Points {
			lo = math.Min(lo, pt.X)
			hi = math.Max(hi, pt.X)
		}
		if hi == lo {
			lo, hi = lo-1, hi+1
		}
		xpx = func(_ int, pt Point) float64 {
			return marginLeft + (pt.X-lo)/(hi-lo)*plotWidth
		}
		for i := 0; i <= 5; i++ {
			v := lo + (hi-lo)*float64(i)/5
			d.text(marginLeft+(v-lo)/(hi-lo)*plotWidth, marginTop+plotHeight+18, "middle", tick(v))
		}
	}

	var points []byte
	stride := labelStride(len(c.Points))
	for i, pt := range c.Points {
		x, y := xpx(i, pt), s.px(pt.Y)
		if i > 0 {
			points = append(points, ' ')
		}
		points = append(points, num(x)+","+num(y)...)
		d.Markers = append(d.Markers, marker{X: num(x), Y: num(y), Tip: pt.Label + ": " + tick(pt.Y)})
		if !c.NumericX && i%stride == 0 {
			d.categoryLabel(x, pt.Label)
		}
	}
	d.Polyline = string(points)
}

func (d *drawing) pie(c *Chart) {
	const (
		cx = Width / 2
		cy = marginTop + (Height-marginTop)/2
		r  = 200.0
	)
	point := func(radius, angle float64) (float64, float64) {
		return cx + radius*math.Cos(angle), cy - radius*math.Sin(angle)
	}

	// Wedges start at 12 o'clock and run counterclockwise.
	angle := math.Pi / 2
	for i, s := range c.Slices {
		sweep := 2 * math.Pi * s.Percent / 100
		w := wedge{Color: tab10[i%len(tab10)]}

		if len(c.Slices) == 1 {
			w.Whole = true
			w.CX, w.CY, w.R = strconv.Itoa(cx), strconv.Itoa(cy), num(r)
		} else {
			x0, y0 := point(r, angle)
			x1, y1 := point(r, angle+sweep)
			large := 0
			if sweep > math.Pi {
				large = 1
			}
			w.Path = fmt.Sprintf("M %d %d L %s %s A %s %s 0 %d 0 %s %s Z",
				cx, cy, num(x0), num(y0), num(r), num(r), large, num(x1), num(y1))
		}
		d.Wedges = append(d.Wedges, w)

		mid := angle + sweep/2
		px, py := point(r*0.6, mid)
		d.text(px, py, "middle", fmt.Sprintf("%.1f%%", s.Percent)).Baseline = "middle"

		lx, ly := point(r*1.1, mid)
		anchor := "start"
		if math.Cos(mid) < 0 {
			anchor = "end"
		}
		d.text(lx, ly, anchor, s.Label).Baseline = "middle"

		angle += sweep
	}
}
