// Package monitor drives the sampling loop: collect, record, sleep out the
// rest of the interval, until the context is cancelled.
package monitor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"VoronMonitor/pkg/metrics"
)

// State is the driver's lifecycle position.
type State int

const (
	StateInit State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Collector produces one merged record per call.
type Collector interface {
	Collect(ctx context.Context) metrics.Record
}

// Recorder persists records. Log errors are informational; the recorder
// reports its own sink failures.
type Recorder interface {
	Log(record metrics.Record) error
	Close() error
}

// Monitor runs Collector then Recorder at a fixed period.
type Monitor struct {
	collector Collector
	recorder  Recorder
	interval  time.Duration
	verbose   bool

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)

	mu     sync.Mutex
	state  State
	cycles int
}

func New(c Collector, r Recorder, interval time.Duration, verbose bool) *Monitor {
	return &Monitor{
		collector: c,
		recorder:  r,
		interval:  interval,
		verbose:   verbose,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// Run loops until ctx is cancelled or the loop itself panics. The recorder is
// closed exactly once on every exit path. Only a recovered panic is returned
// as an error.
func (m *Monitor) Run(ctx context.Context) (err error) {
	m.setState(StateRunning)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("CRITICAL: monitor loop: %v", r)
			err = fmt.Errorf("monitor loop: %v", r)
		}
		m.setState(StateStopping)
		log.Println("Stopping monitor...")
		if cerr := m.recorder.Close(); cerr != nil {
			log.Printf("Warning: closing logs: %v", cerr)
		}
		m.setState(StateStopped)
	}()

	for ctx.Err() == nil {
		loopStart := m.now()

		record := m.collector.Collect(ctx)
		_ = m.recorder.Log(record)
		m.mu.Lock()
		m.cycles++
		m.mu.Unlock()

		if m.verbose {
			printInteresting(record)
		}

		elapsed := m.now().Sub(loopStart)
		m.sleep(ctx, SleepFor(m.interval, elapsed))
	}
	return nil
}

// SleepFor is the pause before the next cycle: the rest of the interval, or
// zero when the cycle overran.
func SleepFor(interval, elapsed time.Duration) time.Duration {
	if d := interval - elapsed; d > 0 {
		return d
	}
	return 0
}

// State returns the current lifecycle state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Cycles returns how many records were handed to the recorder.
func (m *Monitor) Cycles() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cycles
}

func (m *Monitor) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func printInteresting(record metrics.Record) {
	fields := metrics.Interesting(record)
	if len(fields) == 0 {
		return
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + "=" + metrics.FormatValue(record[f])
	}
	log.Printf("[%s] %s", time.Now().Format("15:04:05.000"), strings.Join(parts, " "))
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
