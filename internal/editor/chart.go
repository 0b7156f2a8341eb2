package editor

import (
	"fmt"
	"sort"

	"github.com/JonMunkholm/tabledit/internal/chart"
	"github.com/JonMunkholm/tabledit/internal/table"
)

// CreateChart builds a chart model from t. It never changes the table.
//
//   - Bar Chart: one bar per row with y as height, or the count of each
//     distinct x value when y is empty.
//   - Line Chart: x against y; y is required.
//   - Pie Chart: the share of each distinct x value; y is ignored.
//
// A missing column or non-numeric y values fail without logging. An unknown
// chart type, or a line chart without y, returns ErrInvalidChart and is still
// logged as an attempted chart.
func (e *Editor) CreateChart(t *table.Table, kind chart.Kind, x, y string) (*chart.Chart, error) {
	var (
		c   *chart.Chart
		err error
	)
	switch {
	case kind == chart.Bar:
		c, err = barChart(t, x, y)
	case kind == chart.Line && y != "":
		c, err = lineChart(t, x, y)
	case kind == chart.Pie:
		c, err = pieChart(t, x)
	default:
		err = ErrInvalidChart
	}
	if err != nil && err != ErrInvalidChart {
		return nil, opError(ActionCreateChart, err)
	}

	details := fmt.Sprintf("Created %s using %s.", kind, x)
	if y != "" && kind != chart.Pie {
		details = fmt.Sprintf("Created %s using %s and %s.", kind, x, y)
	}
	e.record(ActionCreateChart, details)

	if err != nil {
		return nil, opError(ActionCreateChart, err)
	}
	return c, nil
}

func barChart(t *table.Table, x, y string) (*chart.Chart, error) {
	xs, err := t.Column(x)
	if err != nil {
		return nil, err
	}
	c := &chart.Chart{Kind: chart.Bar, Title: chart.BarTitle(x, y), XLabel: x}

	if y == "" {
		c.YLabel = "Count"
		for _, vc := range valueCounts(xs) {
			c.Bars = append(c.Bars, chart.BarItem{Label: vc.label, Value: float64(vc.count)})
		}
		return c, nil
	}

	ys, err := numericColumn(t, y)
	if err != nil {
		return nil, err
	}
	c.YLabel = y
	for i, v := range xs {
		if ys[i] == nil {
			continue
		}
		c.Bars = append(c.Bars, chart.BarItem{Label: label(v), Value: *ys[i]})
	}
	return c, nil
}

func lineChart(t *table.Table, x, y string) (*chart.Chart, error) {
	xs, err := t.Column(x)
	if err != nil {
		return nil, err
	}
	ys, err := numericColumn(t, y)
	if err != nil {
		return nil, err
	}

	c := &chart.Chart{Kind: chart.Line, Title: chart.LineTitle(x, y), XLabel: x, YLabel: y, NumericX: true}
	for _, v := range xs {
		if !v.IsNull() && !v.Numeric() {
			c.NumericX = false
			break
		}
	}
	for i, v := range xs {
		if ys[i] == nil || (c.NumericX && v.IsNull()) {
			continue
		}
		p := chart.Point{Label: label(v), Y: *ys[i]}
		if c.NumericX {
			p.X, _ = v.Float()
		}
		c.Points = append(c.Points, p)
	}
	return c, nil
}

func pieChart(t *table.Table, x string) (*chart.Chart, error) {
	xs, err := t.Column(x)
	if err != nil {
		return nil, err
	}
	counts := valueCounts(xs)
	total := 0
	for _, vc := range counts {
		total += vc.count
	}

	c := &chart.Chart{Kind: chart.Pie, Title: chart.PieTitle(x)}
	for _, vc := range counts {
		c.Slices = append(c.Slices, chart.Slice{
			Label:   vc.label,
			Count:   vc.count,
			Percent: 100 * float64(vc.count) / float64(total),
		})
	}
	return c, nil
}

// numericColumn returns the column as numbers, nil for nulls. Any string cell
// is an error.
func numericColumn(t *table.Table, name string) ([]*float64, error) {
	vals, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]*float64, len(vals))
	for i, v := range vals {
		if v.IsNull() {
			continue
		}
		f, ok := v.Float()
		if !ok {
			return nil, fmt.Errorf("%w: %q has %s value %q", ErrNonNumeric, name, v.Kind(), v.String())
		}
		out[i] = &f
	}
	return out, nil
}

type valueCount struct {
	label string
	count int
}

// valueCounts counts distinct non-null values, most frequent first. Ties keep
// first-appearance order.
func valueCounts(vals []table.Value) []valueCount {
	index := make(map[string]int)
	var counts []valueCount
	for _, v := range vals {
		if v.IsNull() {
			continue
		}
		l := label(v)
		if i, ok := index[l]; ok {
			counts[i].count++
			continue
		}
		index[l] = len(counts)
		counts = append(counts, valueCount{label: l, count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].count > counts[j].count
	})
	return counts
}

func label(v table.Value) string {
	if v.IsNull() {
		return "nan"
	}
	return v.String()
}
