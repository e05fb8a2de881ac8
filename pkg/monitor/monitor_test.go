package monitor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"VoronMonitor/pkg/config"
	"VoronMonitor/pkg/metrics"
	"VoronMonitor/pkg/probing"
	"VoronMonitor/pkg/recording"
	"VoronMonitor/pkg/sampling"
)

// clock is a manual time source shared by the fake collector and monitor.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

type fakeCollector struct {
	clk     *clock
	cost    time.Duration
	calls   int
	stopAt  int
	cancel  context.CancelFunc
	panicAt int
}

func (f *fakeCollector) Collect(ctx context.Context) metrics.Record {
	f.calls++
	if f.panicAt > 0 && f.calls == f.panicAt {
		panic("boom")
	}
	f.clk.t = f.clk.t.Add(f.cost)
	if f.calls == f.stopAt {
		f.cancel()
	}
	return metrics.Record{metrics.Timestamp: "t", metrics.CheckDurationMs: float64(f.cost.Milliseconds())}
}

type fakeRecorder struct {
	logged int
	closed int
}

func (r *fakeRecorder) Log(metrics.Record) error { r.logged++; return nil }
func (r *fakeRecorder) Close() error             { r.closed++; return nil }

func newTestMonitor(c Collector, r Recorder, interval time.Duration, clk *clock, sleeps *[]time.Duration) *Monitor {
	m := New(c, r, interval, false)
	m.now = clk.now
	m.sleep = func(ctx context.Context, d time.Duration) {
		*sleeps = append(*sleeps, d)
		clk.t = clk.t.Add(d)
	}
	return m
}

func TestSleepFor(t *testing.T) {
	tests := []struct {
		interval, elapsed, want time.Duration
	}{
		{time.Second, 200 * time.Millisecond, 800 * time.Millisecond},
		{time.Second, time.Second, 0},
		{time.Second, 1700 * time.Millisecond, 0},
		{0, 5 * time.Millisecond, 0},
	}
	for _, tt := range tests {
		if got := SleepFor(tt.interval, tt.elapsed); got != tt.want {
			t.Errorf("SleepFor(%v, %v) = %v; want %v", tt.interval, tt.elapsed, got, tt.want)
		}
	}
}

func TestRunSleepsRemainder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clk := &clock{t: time.Unix(1700000000, 0)}
	c := &fakeCollector{clk: clk, cost: 300 * time.Millisecond, stopAt: 3, cancel: cancel}
	r := &fakeRecorder{}
	var sleeps []time.Duration

	m := newTestMonitor(c, r, time.Second, clk, &sleeps)
	if err := m.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if c.calls != 3 || r.logged != 3 || m.Cycles() != 3 {
		t.Errorf("calls=%d logged=%d cycles=%d; want 3", c.calls, r.logged, m.Cycles())
	}
	for i, d := range sleeps {
		if d != 700*time.Millisecond {
			t.Errorf("sleep %d = %v; want 700ms", i, d)
		}
	}
	if r.closed != 1 {
		t.Errorf("Close() called %d times; want 1", r.closed)
	}
	if m.State() != StateStopped {
		t.Errorf("State() = %s; want STOPPED", m.State())
	}
}

func TestRunOverrunSleepsZero(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clk := &clock{t: time.Unix(1700000000, 0)}
	c := &fakeCollector{clk: clk, cost: 2500 * time.Millisecond, stopAt: 2, cancel: cancel}
	var sleeps []time.Duration

	m := newTestMonitor(c, &fakeRecorder{}, time.Second, clk, &sleeps)
	m.Run(ctx)

	if len(sleeps) != 2 {
		t.Fatalf("got %d sleeps; want 2", len(sleeps))
	}
	for i, d := range sleeps {
		if d != 0 {
			t.Errorf("sleep %d = %v; want 0 after an overrun", i, d)
		}
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	clk := &clock{}
	c := &fakeCollector{clk: clk}
	r := &fakeRecorder{}
	var sleeps []time.Duration

	if err := newTestMonitor(c, r, time.Second, clk, &sleeps).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if c.calls != 0 {
		t.Errorf("collected %d times after cancel", c.calls)
	}
	if r.closed != 1 {
		t.Errorf("Close() called %d times; want 1", r.closed)
	}
}

func TestRunRecoversPanic(t *testing.T) {
	clk := &clock{}
	c := &fakeCollector{clk: clk, panicAt: 2}
	r := &fakeRecorder{}
	var sleeps []time.Duration

	m := newTestMonitor(c, r, time.Second, clk, &sleeps)
	err := m.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("Run() error = %v; want recovered panic", err)
	}
	if r.logged != 1 || r.closed != 1 {
		t.Errorf("logged=%d closed=%d; want 1 and 1", r.logged, r.closed)
	}
	if m.State() != StateStopped {
		t.Errorf("State() = %s", m.State())
	}
}

func TestStateString(t *testing.T) {
	want := []string{"INIT", "RUNNING", "STOPPING", "STOPPED"}
	for i, w := range want {
		if got := State(i).String(); got != w {
			t.Errorf("State(%d) = %s; want %s", i, got, w)
		}
	}
}

type cannedRunner map[string]string

func (r cannedRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	return r[strings.Join(append([]string{name}, args...), " ")], nil
}

// TestOneCycleEndToEnd wires real probes, sampler and recorder with canned
// tool output and checks each sink holds the header and one row.
func TestOneCycleEndToEnd(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.LogDir = filepath.Join(dir, "logs")
	cfg.BackupDir = filepath.Join(dir, "backup")
	cfg.KlipperLog = filepath.Join(dir, "klippy.log")
	cfg.Tools.Vcgencmd = "vcgencmd"
	cfg.BasicSystem = true

	runner := cannedRunner{
		"dmesg -k":               "",
		"vcgencmd get_throttled": "throttled=0x50005\n",
		"vcgencmd measure_volts": "volt=1.2000V\n",
		"vcgencmd measure_temp":  "temp=45.0'C\n",
		strings.Join(config.DefaultCyclictest, " "): "T: 0 ( 1) P:90 I:200 C: 1000 Min: 5 Act: 9 Avg: 9 Max: 44\n",
	}
	sampler := sampling.New(cfg.ProbeTimeout, probing.Build(cfg, runner)...)
	rec, err := recording.Open(cfg)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := New(stopAfterOne{sampler, cancel}, rec, cfg.Interval, true)
	if err := m.Run(ctx); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{rec.PrimaryPath(), rec.MirrorPath()} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		if len(lines) != 2 {
			t.Fatalf("%s: %d lines; want 2", path, len(lines))
		}
	}

	records, err := recording.ReadCSV(rec.PrimaryPath())
	if err != nil {
		t.Fatal(err)
	}
	got := records[0]
	want := metrics.Record{
		metrics.ThrottledHex:   "0x50005",
		metrics.ThrottledAlarm: true,
		metrics.UndervoltNow:   true,
		metrics.ThrottledNow:   true,
		metrics.CoreVoltage:    1.2,
		metrics.CPUTemp:        45.0,
		metrics.MaxLatencyUs:   int64(44),
		metrics.LatencyHigh:    false,
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v; want %v", k, got[k], v)
		}
	}
	if _, ok := got[metrics.Load1Min]; !ok {
		t.Error("basic system mode did not report load_1min")
	}
}

type stopAfterOne struct {
	s      *sampling.Sampler
	cancel context.CancelFunc
}

func (c stopAfterOne) Collect(ctx context.Context) metrics.Record {
	defer c.cancel()
	return c.s.Collect(ctx)
}
