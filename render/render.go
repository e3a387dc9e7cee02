// Package render draws the dashboard charts as PNG images.
package render

import (
	"errors"

	"github.com/vicanso/go-charts/v2"

	"github.com/tradeview/tradeview/equity"
)

// EquityCurvePNG renders the equity curve with its benchmark overlay. The
// benchmark line is omitted when no point carries one; leading days before
// the benchmark's first known value are padded with that value so both
// series align on the same x-axis.
func EquityCurvePNG(res equity.Result, title string) ([]byte, error) {
	if len(res.Points) < 2 {
		return nil, errors.New("not enough points to chart")
	}

	labels := make([]string, len(res.Points))
	eq := make([]float64, len(res.Points))
	bench := make([]float64, len(res.Points))
	haveBench := false
	for i, p := range res.Points {
		labels[i] = p.Date.Format("2006-01-02")
		eq[i] = p.Equity
		if p.Benchmark != nil {
			bench[i] = *p.Benchmark
			haveBench = true
		}
	}
	if haveBench {
		var first float64
		for _, p := range res.Points {
			if p.Benchmark != nil {
				first = *p.Benchmark
				break
			}
		}
		for i, p := range res.Points {
			if p.Benchmark == nil {
				bench[i] = first
			}
		}
	}

	values := [][]float64{eq}
	names := []string{"Equity"}
	if haveBench {
		values = append(values, bench)
		names = append(names, "Benchmark")
	}

	yMin, yMax := axisRange(values)
	split := 10
	if len(labels) < split {
		split = len(labels)
	}

	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = names[i]
	}
	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc(title, res.Source),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels, BoundaryGap: charts.FalseFlag(), SplitNumber: split}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// DrawdownPNG renders the drawdown series in percent.
func DrawdownPNG(res equity.Result, title string) ([]byte, error) {
	if len(res.Points) < 2 {
		return nil, errors.New("not enough points to chart")
	}

	labels := make([]string, len(res.Points))
	dd := make([]float64, len(res.Points))
	for i, p := range res.Points {
		labels[i] = p.Date.Format("2006-01-02")
		dd[i] = p.Drawdown * 100
	}

	yMin, yMax := axisRange([][]float64{dd})
	if yMax < 0 {
		yMax = 0
	}
	split := 10
	if len(labels) < split {
		split = len(labels)
	}

	painter, err := charts.LineRender([][]float64{dd},
		charts.TitleTextOptionFunc(title, "Drawdown %"),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels, BoundaryGap: charts.FalseFlag(), SplitNumber: split}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// PricePNG renders a single symbol's close-price history.
func PricePNG(title, subtitle string, dates []string, closes []float64) ([]byte, error) {
	if len(closes) < 2 {
		return nil, errors.New("not enough points to chart")
	}

	yMin, yMax := axisRange([][]float64{closes})
	split := 10
	if len(dates) < split {
		split = len(dates)
	}

	painter, err := charts.LineRender([][]float64{closes},
		charts.TitleTextOptionFunc(title, subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: dates, BoundaryGap: charts.FalseFlag(), SplitNumber: split}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// SparkPNG renders a small unlabeled close-price line, suitable for
// embedding next to a watchlist row.
func SparkPNG(closes []float64) ([]byte, error) {
	if len(closes) < 2 {
		return nil, errors.New("not enough points to chart")
	}

	labels := make([]string, len(closes))
	yMin, yMax := axisRange([][]float64{closes})

	painter, err := charts.LineRender([][]float64{closes},
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels, BoundaryGap: charts.FalseFlag(), Show: charts.FalseFlag()}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, SplitLineShow: charts.FalseFlag()}),
		charts.WidthOptionFunc(240),
		charts.HeightOptionFunc(60),
		charts.PaddingOptionFunc(charts.Box{Top: 4, Right: 4, Bottom: 4, Left: 4}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// axisRange pads the min/max of all series by 5% so lines do not touch the
// plot edges.
func axisRange(values [][]float64) (float64, float64) {
	min, max := values[0][0], values[0][0]
	for _, vs := range values {
		for _, v := range vs {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	pad := (max - min) * 0.05
	if pad == 0 {
		pad = 1
	}
	return min - pad, max + pad
}
