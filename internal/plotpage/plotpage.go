// Package plotpage renders trend tables as interactive HTML charts.
package plotpage

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/gitloc/internal/trend"
)

const (
	chartWidth  = "1200px"
	chartHeight = "500px"

	areaOpacity = 0.35

	dataZoomEndPercent = 100
)

// LineSeries defines the properties and data for a single line chart series.
type LineSeries struct {
	Name string
	Data []int

	// Stack groups series into a stacked chart when non-empty.
	Stack string

	// Area fills under the line.
	Area bool
}

// BuildLineChart constructs a configured go-echarts line chart.
func BuildLineChart(title string, labels []string, series []LineSeries, yAxisLabel string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Left: "center"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Top: "7%", Left: "center"}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "slider", Start: 0, End: dataZoomEndPercent},
			opts.DataZoom{Type: "inside"},
		),
		charts.WithYAxisOpts(opts.YAxis{Name: yAxisLabel}),
	)

	line.SetXAxis(labels)

	for _, s := range series {
		lineData := make([]opts.LineData, len(s.Data))
		for i, v := range s.Data {
			lineData[i] = opts.LineData{Value: v}
		}

		var seriesOpts []charts.SeriesOpts

		if s.Stack != "" {
			seriesOpts = append(seriesOpts, charts.WithLineChartOpts(opts.LineChart{Stack: s.Stack}))
		}

		if s.Area {
			seriesOpts = append(seriesOpts, charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(areaOpacity)}))
		}

		line.AddSeries(s.Name, lineData, seriesOpts...)
	}

	return line
}

// TrendChart converts a trend table into a line chart, one series per
// column in stable order. Stacked charts fill areas so the stack height
// reads as the total.
func TrendChart(title string, tbl *trend.Table, stacked bool) *charts.Line {
	stack := ""
	if stacked {
		stack = "total"
	}

	names := tbl.SeriesNames()
	series := make([]LineSeries, 0, len(names))

	for _, name := range names {
		series = append(series, LineSeries{
			Name:  name,
			Data:  tbl.Series[name],
			Stack: stack,
			Area:  stacked,
		})
	}

	return BuildLineChart(title, tbl.Labels(), series, "lines of code")
}

// WritePage assembles the given charts into a single HTML page at path.
// Nil charts are skipped; a page with no charts is still written so the
// output set is predictable.
func WritePage(path, title string, chartList ...components.Charter) error {
	page := components.NewPage()
	page.SetPageTitle(title)
	page.SetLayout(components.PageCenterLayout)

	for _, chart := range chartList {
		if chart != nil {
			page.AddCharts(chart)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	renderErr := page.Render(file)
	if renderErr != nil {
		return fmt.Errorf("render %s: %w", path, renderErr)
	}

	return file.Close()
}
