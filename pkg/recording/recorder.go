// Package recording persists monitor records to the primary log, an optional
// mirror and an optional node_exporter textfile.
package recording

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"VoronMonitor/pkg/config"
	"VoronMonitor/pkg/metrics"
)

// Sink is an append-only destination bound to the fixed schema.
type Sink interface {
	Write(record metrics.Record) error
	Close() error
	Path() string
}

// LogFileName returns the session log basename for a start time.
func LogFileName(t time.Time) string {
	return "monitor_log_" + t.Format("20060102_150405") + ".csv"
}

// SiblingPath swaps the extension of a log path, adding suffix before it.
func SiblingPath(logPath, suffix, ext string) string {
	return strings.TrimSuffix(logPath, filepath.Ext(logPath)) + suffix + ext
}

// Recorder fans each record out to its sinks. A failing sink is logged and
// skipped; the others still receive the row.
type Recorder struct {
	sinks     []Sink
	primary   string
	mirror    string
	closeOnce sync.Once
	closeErr  error
}

// Open creates the log directories and sinks. Any failure here is fatal and
// closes whatever was already opened.
func Open(cfg *config.Config) (*Recorder, error) {
	name := LogFileName(cfg.StartedAt)
	r := &Recorder{}

	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	r.primary = filepath.Join(cfg.LogDir, name)
	primary, err := NewCSVSink(r.primary, true)
	if err != nil {
		return nil, fmt.Errorf("primary log %s: %w", r.primary, err)
	}
	r.sinks = append(r.sinks, primary)

	if cfg.HasMirror() {
		if err := os.MkdirAll(cfg.BackupDir, 0755); err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("failed to create backup directory: %w", err)
		}
		r.mirror = filepath.Join(cfg.BackupDir, name)
		mirror, err := NewCSVSink(r.mirror, false)
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("mirror log %s: %w", r.mirror, err)
		}
		r.sinks = append(r.sinks, mirror)
	}

	if cfg.TextfilePath != "" {
		r.sinks = append(r.sinks, NewTextfileSink(cfg.TextfilePath))
	}
	return r, nil
}

// New wraps already opened sinks. The first sink is reported as primary.
func New(sinks ...Sink) *Recorder {
	r := &Recorder{sinks: sinks}
	if len(sinks) > 0 {
		r.primary = sinks[0].Path()
	}
	if len(sinks) > 1 {
		r.mirror = sinks[1].Path()
	}
	return r
}

// Log writes record to every sink. Per-sink failures are logged and joined
// into the returned error, which callers may treat as informational.
func (r *Recorder) Log(record metrics.Record) error {
	var errs []error
	for _, s := range r.sinks {
		if err := s.Write(record); err != nil {
			log.Printf("Warning: logging to %s failed: %v", s.Path(), err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Path(), err))
		}
	}
	return errors.Join(errs...)
}

// Close flushes and releases every sink. Only the first call has effect.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		var errs []error
		for _, s := range r.sinks {
			if err := s.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", s.Path(), err))
			}
		}
		r.closeErr = errors.Join(errs...)
	})
	return r.closeErr
}

// PrimaryPath returns the primary log file.
func (r *Recorder) PrimaryPath() string { return r.primary }

// MirrorPath returns the mirror log file, or "" without a mirror.
func (r *Recorder) MirrorPath() string { return r.mirror }
