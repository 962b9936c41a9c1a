// Package charts renders analytics results as PNG images.
package charts

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"tracker/internal/analytics"
	"tracker/internal/core"
)

// MinMonths is the smallest series that can be drawn as a line.
const MinMonths = 2

// ContentType of the rendered images.
const ContentType = "image/png"

type Generator struct {
	Width  int
	Height int
}

func NewGenerator() *Generator {
	return &Generator{Width: 1200, Height: 600}
}

// MonthlySeries draws income, expense and cumulative balance per month.
// Series shorter than MinMonths fail with a validation error.
func (g *Generator) MonthlySeries(series map[string]analytics.MonthFlow) ([]byte, error) {
	if len(series) < MinMonths {
		return nil, fmt.Errorf("%w: At least %d months of data are needed to draw a chart.", core.ErrValidation, MinMonths)
	}

	months := make([]string, 0, len(series))
	for m := range series {
		months = append(months, m)
	}
	sort.Strings(months)

	xValues := make([]time.Time, len(months))
	incomeValues := make([]float64, len(months))
	expenseValues := make([]float64, len(months))
	balanceValues := make([]float64, len(months))

	var balance core.Money
	for i, m := range months {
		start, err := time.Parse(core.MonthLayout, m)
		if err != nil {
			return nil, fmt.Errorf("series key %q: %w", m, err)
		}
		flow := series[m]
		balance = balance.Add(flow.Income).Sub(flow.Expense)

		xValues[i] = start
		incomeValues[i] = flow.Income.Float64()
		expenseValues[i] = flow.Expense.Float64()
		balanceValues[i] = balance.Float64()
	}

	graph := chart.Chart{
		Width:  g.Width,
		Height: g.Height,
		Background: chart.Style{
			Padding:   chart.Box{Top: 50, Left: 50, Right: 50, Bottom: 50},
			FillColor: chart.ColorWhite,
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat(core.MonthLayout),
			Style:          chart.Style{FontSize: 12, FontColor: chart.ColorBlack},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
			Style: chart.Style{FontSize: 12, FontColor: chart.ColorBlack},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Income",
				XValues: xValues,
				YValues: incomeValues,
				Style:   chart.Style{StrokeColor: chart.ColorGreen, StrokeWidth: 2},
			},
			chart.TimeSeries{
				Name:    "Expense",
				XValues: xValues,
				YValues: expenseValues,
				Style:   chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 2},
			},
			chart.TimeSeries{
				Name:    "Balance",
				XValues: xValues,
				YValues: balanceValues,
				Style: chart.Style{
					StrokeColor:     chart.ColorBlue,
					StrokeWidth:     2,
					StrokeDashArray: []float64{5.0, 5.0},
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{
		chart.Legend(&graph, chart.Style{FontSize: 12, FontColor: chart.ColorBlack}),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render monthly series chart: %w", err)
	}
	return buf.Bytes(), nil
}
