// Package sampling runs the probes once per cycle and merges their results
// into a single record.
package sampling

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"VoronMonitor/pkg/metrics"
	"VoronMonitor/pkg/probing"
)

// TimestampLayout is local ISO-8601 with microseconds.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Sampler executes probes sequentially in registration order. A failing or
// panicking probe becomes a note on the record and never stops the others.
type Sampler struct {
	probes  []probing.Probe
	timeout time.Duration
	now     func() time.Time
}

// New creates a sampler bounding each probe by timeout. A zero timeout leaves
// probes unbounded.
func New(timeout time.Duration, probes ...probing.Probe) *Sampler {
	s := &Sampler{timeout: timeout, now: time.Now}
	for _, p := range probes {
		s.Register(p)
	}
	return s
}

// Register appends a probe to the execution order.
func (s *Sampler) Register(p probing.Probe) {
	s.probes = append(s.probes, p)
}

// ProbeNames returns the probe names in execution order.
func (s *Sampler) ProbeNames() []string {
	names := make([]string, len(s.probes))
	for i, p := range s.probes {
		names[i] = p.Name()
	}
	return names
}

// Collect runs one cycle. The record always carries timestamp (the cycle
// start) and check_duration_ms.
//
// Probes run detached from ctx cancellation so an interrupt never kills an
// external command half way; only the per-probe timeout bounds them.
func (s *Sampler) Collect(ctx context.Context) metrics.Record {
	start := s.now()
	rec := metrics.Record{}
	var notes []string

	probeCtx := context.WithoutCancel(ctx)
	for _, p := range s.probes {
		res, err := s.run(probeCtx, p)
		metrics.MergeInto(rec, res)
		if err != nil {
			msg := strings.ReplaceAll(strings.TrimSpace(err.Error()), "\n", "; ")
			log.Printf("Warning: probe %s: %s", p.Name(), msg)
			notes = append(notes, p.Name()+": "+msg)
		}
	}

	if len(notes) > 0 {
		rec[metrics.Notes] = strings.Join(notes, "; ")
	}
	elapsed := s.now().Sub(start)
	rec[metrics.Timestamp] = start.Format(TimestampLayout)
	rec[metrics.CheckDurationMs] = metrics.Round(float64(elapsed)/float64(time.Millisecond), 2)
	return rec
}

func (s *Sampler) run(ctx context.Context, p probing.Probe) (rec metrics.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return p.Check(ctx)
}
