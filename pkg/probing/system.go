package probing

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"VoronMonitor/pkg/config"
	"VoronMonitor/pkg/metrics"
)

// Resource probe modes, chosen once at construction.
const (
	ModeProcfs  = "procfs"
	ModeLoadAvg = "loadavg"
)

// SystemProbe reports CPU, RAM and swap usage from procfs. When procfs cannot
// be read at construction, or the basic mode is forced, it reports the 1 and 5
// minute load averages instead. The two field sets never mix.
type SystemProbe struct {
	procRoot   string
	mode       string
	thresholds config.Thresholds

	prevCPU *CPUReading

	loads func() (float64, float64, error)
}

func NewSystemProbe(procRoot string, basic bool, th config.Thresholds) *SystemProbe {
	p := &SystemProbe{
		procRoot:   procRoot,
		mode:       ModeLoadAvg,
		thresholds: th,
		loads:      sysinfoLoads,
	}
	if basic {
		return p
	}

	cpu, err := ReadCPUStats(filepath.Join(procRoot, "stat"))
	if err != nil {
		return p
	}
	if _, err := MemInfo(filepath.Join(procRoot, "meminfo")); err != nil {
		return p
	}
	p.mode = ModeProcfs
	p.prevCPU = cpu
	return p
}

func (p *SystemProbe) Name() string { return "System" }

// Mode reports which field set the probe produces.
func (p *SystemProbe) Mode() string { return p.mode }

func (p *SystemProbe) Check(ctx context.Context) (metrics.Record, error) {
	if p.mode == ModeLoadAvg {
		load1, load5, err := p.loads()
		if err != nil {
			return nil, err
		}
		return metrics.Record{
			metrics.Load1Min: metrics.Round(load1, 2),
			metrics.Load5Min: metrics.Round(load5, 2),
		}, nil
	}

	rec := metrics.Record{}
	var errs []error

	cpu, err := ReadCPUStats(filepath.Join(p.procRoot, "stat"))
	if err != nil {
		errs = append(errs, err)
	} else {
		pct := metrics.Round(CPUPercent(p.prevCPU, cpu), 1)
		p.prevCPU = cpu
		rec[metrics.CPUUsage] = pct
		if pct > p.thresholds.CPULoadWarnPercent {
			rec[metrics.CPUSaturation] = true
		}
	}

	mem, err := MemInfo(filepath.Join(p.procRoot, "meminfo"))
	if err != nil {
		errs = append(errs, err)
	} else {
		if total := mem["MemTotal"]; total > 0 {
			used := total - min(mem["MemAvailable"], total)
			rec[metrics.RAMUsedPct] = metrics.Round(float64(used)/float64(total)*100, 1)
		}
		swapUsedKB := mem["SwapTotal"] - min(mem["SwapFree"], mem["SwapTotal"])
		swapMB := metrics.Round(float64(swapUsedKB)/1024, 2)
		rec[metrics.SwapUsedMB] = swapMB
		if swapMB > p.thresholds.SwapPressureMB {
			rec[metrics.MemPressure] = true
		}
	}

	if len(rec) == 0 {
		rec = nil
	}
	return rec, errors.Join(errs...)
}

// CPUReading captures cumulative CPU jiffies from the aggregate line of
// /proc/stat:
//
//	cpu  user nice system idle iowait irq softirq steal guest guest_nice
//
// busy = user + nice + system + irq + softirq + steal
// idle = idle + iowait
type CPUReading struct {
	Busy uint64
	Idle uint64
}

// ReadCPUStats parses the first line of a /proc/stat file.
func ReadCPUStats(path string) (*CPUReading, error) {
	content, err := File(path)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(strings.NewReader(content))
	if !scanner.Scan() {
		return nil, fmt.Errorf("%s: empty", path)
	}

	fields := strings.Fields(scanner.Text())
	if len(fields) < 9 || fields[0] != "cpu" {
		return nil, fmt.Errorf("%s: unexpected cpu line", path)
	}
	values := make([]uint64, len(fields)-1)
	for i := 1; i < len(fields); i++ {
		v, err := strconv.ParseUint(fields[i], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		values[i-1] = v
	}

	return &CPUReading{
		Busy: values[0] + values[1] + values[2] + values[5] + values[6] + values[7],
		Idle: values[3] + values[4],
	}, nil
}

// CPUPercent computes utilization between two readings. It returns 0 when
// either reading is missing or no time has passed.
func CPUPercent(prev, cur *CPUReading) float64 {
	if prev == nil || cur == nil || cur.Busy < prev.Busy || cur.Idle < prev.Idle {
		return 0
	}
	busy := cur.Busy - prev.Busy
	total := busy + cur.Idle - prev.Idle
	if total == 0 {
		return 0
	}
	return float64(busy) / float64(total) * 100
}

func sysinfoLoads() (float64, float64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, 0, fmt.Errorf("sysinfo: %w", err)
	}
	const scale = 1 << 16 // SI_LOAD_SHIFT
	return float64(info.Loads[0]) / scale, float64(info.Loads[1]) / scale, nil
}
