package graphing

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// createLineChart plots one numeric column over the session. Cycles without a
// value leave a gap.
func createLineChart(s *Series, labels []string) *charts.Line {
	line := charts.NewLine()

	subtitle := ""
	if s.Threshold != 0 {
		subtitle = fmt.Sprintf("warn above %g", s.Threshold)
	}
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: formatName(s.Name), Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", AxisLabel: &opts.AxisLabel{Rotate: 45}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
	)

	data := make([]opts.LineData, len(s.Values))
	for i, v := range s.Values {
		if v == nil {
			data[i] = opts.LineData{Value: "-"}
			continue
		}
		data[i] = opts.LineData{Value: *v}
	}

	seriesOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	}
	if s.Threshold != 0 {
		seriesOpts = append(seriesOpts, charts.WithMarkLineNameYAxisItemOpts(
			opts.MarkLineNameYAxisItem{Name: "warn", YAxis: s.Threshold},
		))
	}
	line.SetXAxis(labels).AddSeries(s.Name, data, seriesOpts...)
	return line
}

// createEventChart shows how many cycles raised each flag or carried an
// event text.
func createEventChart(counts []EventCount, cycles int) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Alarms and events",
			Subtitle: fmt.Sprintf("cycles: %d", cycles),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", AxisLabel: &opts.AxisLabel{Rotate: 45}}),
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
	)

	xLabels := make([]string, len(counts))
	data := make([]opts.BarData, len(counts))
	for i, c := range counts {
		xLabels[i] = c.Name
		data[i] = opts.BarData{Value: c.Count}
	}
	bar.SetXAxis(xLabels).AddSeries("cycles", data)
	return bar
}
