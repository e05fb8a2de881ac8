// Package probing holds the health probes. Each probe samples one category of
// signal per cycle and returns a partial record, nothing, or a diagnostic.
package probing

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"VoronMonitor/pkg/config"
	"VoronMonitor/pkg/metrics"
)

// Probe samples one category of health signal.
//
// Check returns the fields it could gather, or nil when there is nothing to
// report. A non-nil error is a diagnostic: it never aborts the cycle, and any
// record returned alongside it is still merged.
type Probe interface {
	Name() string
	Check(ctx context.Context) (metrics.Record, error)
}

// Runner executes an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes the command. A non-zero exit, a missing binary and context
// expiry are all returned as errors.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return string(out), nil
}

// Build constructs every probe in the fixed execution order: USB, power,
// system resources, latency, Klipper log.
func Build(cfg *config.Config, runner Runner) []Probe {
	return []Probe{
		NewUSBProbe(runner, cfg.Tools.Dmesg),
		NewPowerProbe(runner, cfg.Tools.Vcgencmd, cfg.Thresholds),
		NewSystemProbe(cfg.ProcRoot, cfg.BasicSystem, cfg.Thresholds),
		NewLatencyProbe(runner, cfg.Tools.Cyclictest, cfg.Thresholds),
		NewKlipperLogProbe(cfg.KlipperLog),
	}
}
