package graphing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-echarts/go-echarts/v2/opts"

	"VoronMonitor/pkg/config"
	"VoronMonitor/pkg/metrics"
	"VoronMonitor/pkg/recording"
)

func sessionRecords() []metrics.Record {
	return []metrics.Record{
		{metrics.Timestamp: "2024-05-01T10:00:00.000000", metrics.CheckDurationMs: 1010.0, metrics.CPUTemp: 55.0, metrics.MaxLatencyUs: int64(120), metrics.LatencyHigh: false},
		{metrics.Timestamp: "2024-05-01T10:00:01.000000", metrics.CheckDurationMs: 1002.0, metrics.CPUTemp: 76.5, metrics.TempWarning: true, metrics.LatencyHigh: false},
		{metrics.Timestamp: "2024-05-01T10:00:02.000000", metrics.CheckDurationMs: 998.0, metrics.CPUTemp: 77.0, metrics.TempWarning: true, metrics.USBEvents: "usb 1-1: USB disconnect"},
	}
}

func TestBuildSeries(t *testing.T) {
	series := buildSeries(sessionRecords(), config.DefaultConfig().Thresholds)

	var names []string
	for _, s := range series {
		names = append(names, s.Name)
	}
	if got := strings.Join(names, ","); got != "check_duration_ms,cpu_temp,max_latency_us" {
		t.Fatalf("series = %s", got)
	}

	latency := series[2]
	if latency.Values[0] == nil || *latency.Values[0] != 120 || latency.Values[1] != nil {
		t.Errorf("max_latency_us values = %v", latency.Values)
	}
	if series[1].Threshold != 75 {
		t.Errorf("cpu_temp threshold = %v", series[1].Threshold)
	}
}

func TestCountEvents(t *testing.T) {
	counts := countEvents(sessionRecords())
	got := make(map[string]int)
	for _, c := range counts {
		got[c.Name] = c.Count
	}
	if got[metrics.TempWarning] != 2 || got[metrics.USBEvents] != 1 || got[metrics.LatencyHigh] != 0 {
		t.Errorf("counts = %v", got)
	}
	if _, ok := got[metrics.CPUTemp]; ok {
		t.Error("numeric column counted as an event")
	}
}

func TestGenerateFromFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "monitor_log_20240501_100000.csv")
	sink, err := recording.NewCSVSink(csvPath, false)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range sessionRecords() {
		if err := sink.Write(r); err != nil {
			t.Fatal(err)
		}
	}
	sink.Close()

	out := ReportPath(csvPath)
	if filepath.Base(out) != "monitor_log_20240501_100000.html" {
		t.Errorf("ReportPath() = %s", out)
	}
	if err := GenerateFromFile(csvPath, out, config.DefaultConfig().Thresholds); err != nil {
		t.Fatalf("GenerateFromFile() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	for _, want := range []string{"<html", "cpu temp", "Alarms and events"} {
		if !strings.Contains(html, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestLineChartThresholdMarkLine(t *testing.T) {
	v := 80.0
	line := createLineChart(&Series{Name: metrics.CPUTemp, Values: []*float64{&v, nil}, Threshold: 75}, []string{"10:00:00", "10:00:01"})
	marks := line.MultiSeries[0].MarkLines
	if marks == nil || len(marks.Data) != 1 {
		t.Fatalf("mark lines = %+v; want one threshold line", marks)
	}
	if item, ok := marks.Data[0].(opts.MarkLineNameYAxisItem); !ok || item.YAxis != 75.0 {
		t.Errorf("mark line = %+v", marks.Data[0])
	}

	plain := createLineChart(&Series{Name: metrics.CheckDurationMs, Values: []*float64{&v}}, []string{"10:00:00"})
	if plain.MultiSeries[0].MarkLines != nil {
		t.Errorf("series without threshold has mark lines")
	}
}

func TestGenerateEmpty(t *testing.T) {
	if err := Generate(nil, filepath.Join(t.TempDir(), "r.html"), "empty", config.Thresholds{}); err == nil {
		t.Error("Generate() with no records succeeded")
	}
}
