package probing

import (
	"context"
	"regexp"
	"strings"

	"VoronMonitor/pkg/metrics"
)

const usbWindowSize = 20

var usbPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)usb disconnect`),
	regexp.MustCompile(`(?i)reset high-speed USB device`),
	regexp.MustCompile(`(?i)ttyACM\d+ disconnect`),
	regexp.MustCompile(`(?i)xHCI host controller not responding`),
}

// USBProbe watches the tail of the kernel ring buffer for bus resets and
// disconnects.
//
// Only lines absent from the previous cycle's window are reported. The window
// is replaced with the full current tail every cycle, so a line that drops out
// and comes back later is reported again.
type USBProbe struct {
	runner Runner
	cmd    []string
	window map[string]struct{}
}

func NewUSBProbe(runner Runner, cmd []string) *USBProbe {
	return &USBProbe{runner: runner, cmd: cmd}
}

func (p *USBProbe) Name() string { return "USB" }

func (p *USBProbe) Check(ctx context.Context) (metrics.Record, error) {
	out, err := p.runner.Run(ctx, p.cmd[0], p.cmd[1:]...)
	if err != nil {
		return nil, err
	}

	lines := tailLines(out, usbWindowSize)
	var events []string
	for _, line := range lines {
		if _, seen := p.window[line]; seen {
			continue
		}
		if matchesAny(usbPatterns, line) {
			events = append(events, line)
		}
	}

	p.window = make(map[string]struct{}, len(lines))
	for _, line := range lines {
		p.window[line] = struct{}{}
	}

	if len(events) == 0 {
		return nil, nil
	}
	return metrics.Record{metrics.USBEvents: strings.Join(events, "; ")}, nil
}

// tailLines returns the last n trimmed, non-empty lines of out.
func tailLines(out string, n int) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

func matchesAny(patterns []*regexp.Regexp, line string) bool {
	for _, re := range patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
