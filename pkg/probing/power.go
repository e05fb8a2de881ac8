package probing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"VoronMonitor/pkg/config"
	"VoronMonitor/pkg/metrics"
)

// Current-state bits of the vcgencmd get_throttled mask. The sticky
// "has occurred" bits live at 16-19 and only contribute to the alarm flag.
const (
	throttleUndervoltNow = 1 << 0
	throttleFreqCapNow   = 1 << 1
	throttleThrottledNow = 1 << 2
	throttleSoftTempNow  = 1 << 3
)

// PowerProbe queries the VideoCore firmware for the throttle mask, core
// voltage and SoC temperature. The three queries fail independently.
type PowerProbe struct {
	runner     Runner
	vcgencmd   string
	thresholds config.Thresholds
}

func NewPowerProbe(runner Runner, vcgencmd string, th config.Thresholds) *PowerProbe {
	return &PowerProbe{runner: runner, vcgencmd: vcgencmd, thresholds: th}
}

func (p *PowerProbe) Name() string { return "Power" }

func (p *PowerProbe) Check(ctx context.Context) (metrics.Record, error) {
	rec := metrics.Record{}
	var errs []error

	if out, err := p.runner.Run(ctx, p.vcgencmd, "get_throttled"); err != nil {
		errs = append(errs, fmt.Errorf("get_throttled: %w", err))
	} else if hex, mask, err := ParseThrottled(out); err != nil {
		errs = append(errs, err)
	} else {
		rec[metrics.ThrottledHex] = hex
		metrics.MergeInto(rec, DecodeThrottled(mask))
	}

	if out, err := p.runner.Run(ctx, p.vcgencmd, "measure_volts"); err != nil {
		errs = append(errs, fmt.Errorf("measure_volts: %w", err))
	} else if volts, err := ParseVolts(out); err != nil {
		errs = append(errs, err)
	} else {
		rec[metrics.CoreVoltage] = volts
	}

	if out, err := p.runner.Run(ctx, p.vcgencmd, "measure_temp"); err != nil {
		errs = append(errs, fmt.Errorf("measure_temp: %w", err))
	} else if temp, err := ParseTemp(out); err != nil {
		errs = append(errs, err)
	} else {
		rec[metrics.CPUTemp] = temp
		if temp > p.thresholds.TempWarnCelsius {
			rec[metrics.TempWarning] = true
		}
	}

	if len(rec) == 0 {
		rec = nil
	}
	return rec, errors.Join(errs...)
}

// ParseThrottled parses "throttled=0x50005" into the hex text and its value.
func ParseThrottled(out string) (string, uint64, error) {
	hex, err := valueAfterEquals(out)
	if err != nil {
		return "", 0, fmt.Errorf("get_throttled: %w", err)
	}
	mask, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(hex), "0x"), 16, 64)
	if err != nil {
		return "", 0, fmt.Errorf("get_throttled: invalid mask %q", hex)
	}
	return hex, mask, nil
}

// DecodeThrottled expands a throttle mask into flag fields. A zero mask
// yields no fields. Flags are only set when true.
func DecodeThrottled(mask uint64) metrics.Record {
	rec := metrics.Record{}
	if mask == 0 {
		return rec
	}
	rec[metrics.ThrottledAlarm] = true
	bits := []struct {
		bit   uint64
		field string
	}{
		{throttleUndervoltNow, metrics.UndervoltNow},
		{throttleFreqCapNow, metrics.FreqCapNow},
		{throttleThrottledNow, metrics.ThrottledNow},
		{throttleSoftTempNow, metrics.SoftTempNow},
	}
	for _, b := range bits {
		if mask&b.bit != 0 {
			rec[b.field] = true
		}
	}
	return rec
}

// ParseVolts parses "volt=1.2000V".
func ParseVolts(out string) (float64, error) {
	v, err := valueAfterEquals(out)
	if err != nil {
		return 0, fmt.Errorf("measure_volts: %w", err)
	}
	volts, err := strconv.ParseFloat(strings.TrimSuffix(v, "V"), 64)
	if err != nil {
		return 0, fmt.Errorf("measure_volts: invalid value %q", v)
	}
	return volts, nil
}

// ParseTemp parses "temp=48.3'C".
func ParseTemp(out string) (float64, error) {
	v, err := valueAfterEquals(out)
	if err != nil {
		return 0, fmt.Errorf("measure_temp: %w", err)
	}
	temp, err := strconv.ParseFloat(strings.TrimSuffix(v, "'C"), 64)
	if err != nil {
		return 0, fmt.Errorf("measure_temp: invalid value %q", v)
	}
	return temp, nil
}

func valueAfterEquals(out string) (string, error) {
	out = strings.TrimSpace(out)
	_, v, ok := strings.Cut(out, "=")
	if !ok || v == "" {
		return "", fmt.Errorf("unexpected output %q", out)
	}
	return strings.TrimSpace(v), nil
}
