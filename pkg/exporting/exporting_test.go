package exporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"VoronMonitor/pkg/metrics"
	"VoronMonitor/pkg/probing"
	"VoronMonitor/pkg/recording"
)

func writeLog(t *testing.T, records ...metrics.Record) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "monitor_log_20240501_100000.csv")
	sink, err := recording.NewCSVSink(path, false)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range records {
		if err := sink.Write(r); err != nil {
			t.Fatal(err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExportParquet(t *testing.T) {
	first := metrics.Record{
		metrics.Timestamp:       "2024-05-01T10:00:00.000000",
		metrics.CheckDurationMs: 1012.5,
		metrics.ThrottledHex:    "0x0",
		metrics.CPUTemp:         55.1,
		metrics.MaxLatencyUs:    int64(140),
		metrics.LatencyHigh:     false,
		metrics.RAMUsedPct:      31.4,
	}
	second := metrics.Record{
		metrics.Timestamp:       "2024-05-01T10:00:01.000000",
		metrics.CheckDurationMs: 998.0,
		metrics.ThrottledAlarm:  true,
		metrics.USBEvents:       "usb 1-1: USB disconnect, device number 3",
	}
	csvPath := writeLog(t, first, second)
	out := recording.SiblingPath(csvPath, "", ".parquet")
	session := uuid.New()

	n, err := ExportParquet(csvPath, out, session)
	if err != nil {
		t.Fatalf("ExportParquet() error = %v", err)
	}
	if n != 2 {
		t.Errorf("exported %d rows; want 2", n)
	}

	records, gotSession, err := ReadParquet(out)
	if err != nil {
		t.Fatalf("ReadParquet() error = %v", err)
	}
	if gotSession != session.String() {
		t.Errorf("session = %q; want %q", gotSession, session)
	}
	if len(records) != 2 {
		t.Fatalf("read %d records; want 2", len(records))
	}
	for i, want := range []metrics.Record{first, second} {
		got := records[i]
		if len(got) != len(want) {
			t.Errorf("row %d = %v; want %v", i, got, want)
			continue
		}
		for k, v := range want {
			if got[k] != v {
				t.Errorf("row %d %s = %v (%T); want %v (%T)", i, k, got[k], got[k], v, v)
			}
		}
	}
}

func TestExportParquetMissingLog(t *testing.T) {
	dir := t.TempDir()
	if _, err := ExportParquet(filepath.Join(dir, "absent.csv"), filepath.Join(dir, "out.parquet"), uuid.New()); err == nil {
		t.Fatal("expected error for a missing log")
	}
}

func TestWriteStatic(t *testing.T) {
	dir := t.TempDir()
	s := &Static{
		SessionUUID:     uuid.NewString(),
		StartedAt:       time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		IntervalSeconds: 1,
		ResourceMode:    probing.ModeProcfs,
		Probes:          []string{"USB", "Power", "System", "Latency", "KlipperLog"},
		LogPath:         filepath.Join(dir, "monitor_log_20240501_100000.csv"),
		HostInfo:        probing.HostInfo{Hostname: "voron", Machine: "aarch64"},
	}

	path, err := WriteStatic(s)
	if err != nil {
		t.Fatalf("WriteStatic() error = %v", err)
	}
	if filepath.Base(path) != "monitor_log_20240501_100000_static.json" {
		t.Errorf("sidecar path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got["hostname"] != "voron" || got["resourceMode"] != "procfs" || got["sessionUUID"] != s.SessionUUID {
		t.Errorf("sidecar = %v", got)
	}
	if _, ok := got["mirrorPath"]; ok {
		t.Error("empty mirrorPath should be omitted")
	}
}
