// Package metrics defines the flat health record and its fixed column schema.
package metrics

import (
	"errors"
	"fmt"
)

// Record is one cycle's worth of health fields keyed by column name.
type Record = map[string]interface{}

// Column names, in the order they appear in the CSV header.
const (
	Timestamp       = "timestamp"
	CheckDurationMs = "check_duration_ms"
	ThrottledHex    = "throttled_hex"
	ThrottledAlarm  = "throttled_alarm"
	UndervoltNow    = "ue_now"
	FreqCapNow      = "freq_cap_now"
	ThrottledNow    = "throt_now"
	SoftTempNow     = "soft_temp_now"
	CoreVoltage     = "core_voltage"
	CPUTemp         = "cpu_temp"
	TempWarning     = "temp_warning"
	CPUUsage        = "cpu_usage"
	CPUSaturation   = "cpu_saturation"
	RAMUsedPct      = "ram_used_pct"
	SwapUsedMB      = "swap_used_mb"
	MemPressure     = "mem_pressure"
	Load1Min        = "load_1min"
	Load5Min        = "load_5min"
	MaxLatencyUs    = "max_latency_us"
	LatencyHigh     = "latency_high"
	USBEvents       = "usb_events"
	LogErrors       = "log_errors"
	Notes           = "notes"
)

// FieldKind is the declared value type of a column.
type FieldKind int

const (
	KindTime FieldKind = iota
	KindFloat
	KindInt
	KindBool
	KindText
)

func (k FieldKind) String() string {
	switch k {
	case KindTime:
		return "time"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindText:
		return "text"
	}
	return "unknown"
}

type column struct {
	name string
	kind FieldKind
}

var schema = []column{
	{Timestamp, KindTime},
	{CheckDurationMs, KindFloat},
	{ThrottledHex, KindText},
	{ThrottledAlarm, KindBool},
	{UndervoltNow, KindBool},
	{FreqCapNow, KindBool},
	{ThrottledNow, KindBool},
	{SoftTempNow, KindBool},
	{CoreVoltage, KindFloat},
	{CPUTemp, KindFloat},
	{TempWarning, KindBool},
	{CPUUsage, KindFloat},
	{CPUSaturation, KindBool},
	{RAMUsedPct, KindFloat},
	{SwapUsedMB, KindFloat},
	{MemPressure, KindBool},
	{Load1Min, KindFloat},
	{Load5Min, KindFloat},
	{MaxLatencyUs, KindInt},
	{LatencyHigh, KindBool},
	{USBEvents, KindText},
	{LogErrors, KindText},
	{Notes, KindText},
}

var kinds = func() map[string]FieldKind {
	m := make(map[string]FieldKind, len(schema))
	for _, c := range schema {
		m[c.name] = c.kind
	}
	return m
}()

// Columns returns the schema's column names in header order. The returned
// slice is a fresh copy.
func Columns() []string {
	names := make([]string, len(schema))
	for i, c := range schema {
		names[i] = c.name
	}
	return names
}

// Kind reports the declared type of a column.
func Kind(field string) (FieldKind, bool) {
	k, ok := kinds[field]
	return k, ok
}

// Validate checks that every field of r belongs to the schema and carries a
// value of the declared kind, and that the always-present fields are set.
func Validate(r Record) error {
	var errs []error
	for _, required := range []string{Timestamp, CheckDurationMs} {
		if _, ok := r[required]; !ok {
			errs = append(errs, fmt.Errorf("missing %s", required))
		}
	}
	for field, v := range r {
		kind, ok := kinds[field]
		if !ok {
			errs = append(errs, fmt.Errorf("unknown field %q", field))
			continue
		}
		if !matchesKind(kind, v) {
			errs = append(errs, fmt.Errorf("field %q: %T is not %s", field, v, kind))
		}
	}
	return errors.Join(errs...)
}

func matchesKind(kind FieldKind, v interface{}) bool {
	switch kind {
	case KindTime, KindText:
		_, ok := v.(string)
		return ok
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindInt:
		switch v.(type) {
		case int, int32, int64:
			return true
		}
	case KindFloat:
		switch v.(type) {
		case float32, float64, int, int64:
			return true
		}
	}
	return false
}
