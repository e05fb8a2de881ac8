// Package graphing renders an interactive HTML report of a monitor session.
package graphing

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-echarts/go-echarts/v2/components"

	"VoronMonitor/pkg/config"
	"VoronMonitor/pkg/metrics"
	"VoronMonitor/pkg/recording"
)

// Series is one numeric column across the session. A nil value marks a cycle
// where the column was empty.
type Series struct {
	Name      string
	Values    []*float64
	Threshold float64
}

// EventCount is the number of cycles in which a flag was true or an event
// column carried text.
type EventCount struct {
	Name  string
	Count int
}

// ReportPath returns the HTML path beside a CSV log.
func ReportPath(csvPath string) string {
	return recording.SiblingPath(csvPath, "", ".html")
}

// GenerateFromFile reads a monitor log and writes the report to outputPath.
func GenerateFromFile(csvPath, outputPath string, th config.Thresholds) error {
	records, err := recording.ReadCSV(csvPath)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}
	return Generate(records, outputPath, filepath.Base(csvPath), th)
}

// Generate renders line charts for every numeric column with data and a bar
// chart of alarm counts.
func Generate(records []metrics.Record, outputPath, title string, th config.Thresholds) error {
	if len(records) == 0 {
		return fmt.Errorf("no records to graph")
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	labels := timeLabels(records)
	page := components.NewPage()
	page.PageTitle = "Voron health: " + title

	series := buildSeries(records, th)
	for _, s := range series {
		page.AddCharts(createLineChart(s, labels))
	}
	if counts := countEvents(records); len(counts) > 0 {
		page.AddCharts(createEventChart(counts, len(records)))
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := page.Render(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to render report: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	log.Printf("Generated report with %d charts: %s", len(series), outputPath)
	return nil
}

// buildSeries extracts float and int columns that hold at least one value.
func buildSeries(records []metrics.Record, th config.Thresholds) []*Series {
	thresholds := map[string]float64{
		metrics.CPUTemp:      th.TempWarnCelsius,
		metrics.CPUUsage:     th.CPULoadWarnPercent,
		metrics.SwapUsedMB:   th.SwapPressureMB,
		metrics.MaxLatencyUs: float64(th.LatencyWarnUs),
	}

	var series []*Series
	for _, col := range metrics.Columns() {
		kind, _ := metrics.Kind(col)
		if kind != metrics.KindFloat && kind != metrics.KindInt {
			continue
		}

		s := &Series{Name: col, Values: make([]*float64, len(records)), Threshold: thresholds[col]}
		seen := false
		for i, r := range records {
			if v, ok := metrics.ToFloat64Ok(r[col]); ok {
				s.Values[i] = &v
				seen = true
			}
		}
		if seen {
			series = append(series, s)
		}
	}
	return series
}

func countEvents(records []metrics.Record) []EventCount {
	var counts []EventCount
	for _, col := range metrics.Columns() {
		kind, _ := metrics.Kind(col)
		if kind != metrics.KindBool && col != metrics.USBEvents && col != metrics.LogErrors && col != metrics.Notes {
			continue
		}
		n := 0
		for _, r := range records {
			if metrics.Truthy(r[col]) {
				n++
			}
		}
		counts = append(counts, EventCount{Name: col, Count: n})
	}
	return counts
}

// timeLabels uses the clock part of each cycle timestamp.
func timeLabels(records []metrics.Record) []string {
	labels := make([]string, len(records))
	for i, r := range records {
		ts, _ := r[metrics.Timestamp].(string)
		if _, clock, ok := strings.Cut(ts, "T"); ok {
			ts = clock
		}
		labels[i] = ts
	}
	return labels
}

func formatName(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}
