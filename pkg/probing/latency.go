package probing

import (
	"context"
	"regexp"
	"strconv"

	"VoronMonitor/pkg/config"
	"VoronMonitor/pkg/metrics"
)

var maxLatencyRe = regexp.MustCompile(`Max:\s*(\d+)`)

// LatencyProbe runs cyclictest and reports the worst scheduling latency.
// It is by far the slowest probe; the tool itself runs for about a second.
// Failures of any kind yield nothing for the cycle.
type LatencyProbe struct {
	runner     Runner
	cmd        []string
	thresholds config.Thresholds
}

func NewLatencyProbe(runner Runner, cmd []string, th config.Thresholds) *LatencyProbe {
	return &LatencyProbe{runner: runner, cmd: cmd, thresholds: th}
}

func (p *LatencyProbe) Name() string { return "Latency" }

func (p *LatencyProbe) Check(ctx context.Context) (metrics.Record, error) {
	out, err := p.runner.Run(ctx, p.cmd[0], p.cmd[1:]...)
	if err != nil {
		return nil, nil
	}
	maxUs, ok := ParseMaxLatency(out)
	if !ok {
		return nil, nil
	}
	return metrics.Record{
		metrics.MaxLatencyUs: maxUs,
		metrics.LatencyHigh:  maxUs > p.thresholds.LatencyWarnUs,
	}, nil
}

// ParseMaxLatency returns the largest "Max: <n>" figure in cyclictest output.
// With one thread per CPU there is one such line per thread.
func ParseMaxLatency(out string) (int64, bool) {
	var best int64
	found := false
	for _, m := range maxLatencyRe.FindAllStringSubmatch(out, -1) {
		v, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		if !found || v > best {
			best = v
			found = true
		}
	}
	return best, found
}
