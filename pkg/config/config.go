package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

// Config holds all monitor configuration. It is built once at startup and
// passed explicitly to the components that need it; nothing mutates it after
// ParseFlags returns.
type Config struct {
	// Session identifier
	SessionUUID uuid.UUID
	StartedAt   time.Time

	// Sampling
	Interval     time.Duration
	ProbeTimeout time.Duration
	BasicSystem  bool

	// Output settings
	LogDir       string
	BackupDir    string
	TextfilePath string
	ExportFormat string
	Verbose      bool

	// Graph generation
	Graphs    bool
	GraphOnly string // existing CSV for graph-only mode (skips monitoring)

	// External collaborators
	ConfigFile string
	KlipperLog string
	ProcRoot   string
	Tools      Tools

	Thresholds Thresholds
}

// Tools are the external commands the probes run.
type Tools struct {
	Vcgencmd   string   `yaml:"vcgencmd"`
	Cyclictest []string `yaml:"cyclictest"`
	Dmesg      []string `yaml:"dmesg"`
}

// Thresholds decide when a raw reading also raises its flag column.
type Thresholds struct {
	TempWarnCelsius    float64 `yaml:"temp_warn_celsius"`
	CPULoadWarnPercent float64 `yaml:"cpu_load_warn_percent"`
	SwapPressureMB     float64 `yaml:"swap_pressure_mb"`
	LatencyWarnUs      int64   `yaml:"latency_warn_us"`
}

// DefaultConfig returns configuration with the stock Voron/Klipper defaults
func DefaultConfig() *Config {
	return &Config{
		SessionUUID:  uuid.New(),
		StartedAt:    time.Now(),
		Interval:     DefaultInterval,
		ProbeTimeout: DefaultProbeTimeout,
		LogDir:       DefaultLogDir,
		KlipperLog:   DefaultKlipperLog,
		ProcRoot:     DefaultProcRoot,
		Tools: Tools{
			Vcgencmd:   DefaultVcgencmd,
			Cyclictest: append([]string(nil), DefaultCyclictest...),
			Dmesg:      append([]string(nil), DefaultDmesg...),
		},
		Thresholds: Thresholds{
			TempWarnCelsius:    TempWarnCelsius,
			CPULoadWarnPercent: CPULoadWarnPercent,
			SwapPressureMB:     SwapPressureWarnMB,
			LatencyWarnUs:      LatencyWarnUs,
		},
	}
}

// ParseFlags parses command-line arguments into a Config. A --config file is
// applied first, then any flag given explicitly on the command line wins.
func ParseFlags(name string, args []string) (*Config, error) {
	cfg := DefaultConfig()

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	interval := fs.Float64("interval", cfg.Interval.Seconds(), "Check interval in seconds")
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Directory to save logs")
	fs.StringVar(&cfg.BackupDir, "backup-dir", "", "Directory for mirrored backup logs")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Print interesting fields to the console every cycle")

	fs.StringVar(&cfg.ConfigFile, "config", "", "YAML file with thresholds, tool paths and defaults")
	fs.StringVar(&cfg.KlipperLog, "klipper-log", cfg.KlipperLog, "Klipper log file to tail")
	fs.DurationVar(&cfg.ProbeTimeout, "probe-timeout", cfg.ProbeTimeout, "Upper bound for a single probe")
	fs.BoolVar(&cfg.BasicSystem, "basic-system", false, "Report load averages instead of procfs CPU/memory usage")
	fs.StringVar(&cfg.TextfilePath, "textfile", "", "Write node_exporter textfile metrics to this .prom path")
	fs.StringVar(&cfg.ExportFormat, "export", "", "Convert the session log on shutdown (parquet)")
	fs.BoolVar(&cfg.Graphs, "graphs", false, "Generate an HTML report after monitoring stops")
	fs.StringVar(&cfg.GraphOnly, "graph-only", "", "Generate an HTML report from an existing log and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if cfg.ConfigFile != "" {
		if err := cfg.applyFile(cfg.ConfigFile, fs.Changed); err != nil {
			return nil, err
		}
	}
	if fs.Changed("interval") {
		cfg.Interval = secondsToDuration(*interval)
	}

	cfg.KlipperLog = ExpandHome(cfg.KlipperLog)

	return cfg, cfg.Validate()
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	var errs []error

	if c.Interval < 0 {
		errs = append(errs, errors.New("interval must be >= 0"))
	}
	if c.ProbeTimeout <= 0 {
		errs = append(errs, errors.New("probe timeout must be > 0"))
	}
	if c.ExportFormat != "" && c.ExportFormat != ExportFormatParquet {
		errs = append(errs, fmt.Errorf("invalid export format %q: must be %s", c.ExportFormat, ExportFormatParquet))
	}
	if c.LogDir == "" && !c.IsGraphOnlyMode() {
		errs = append(errs, errors.New("log directory must not be empty"))
	}
	if len(c.Tools.Cyclictest) == 0 {
		errs = append(errs, errors.New("cyclictest command must not be empty"))
	}
	if len(c.Tools.Dmesg) == 0 {
		errs = append(errs, errors.New("dmesg command must not be empty"))
	}

	if c.GraphOnly != "" {
		if _, err := os.Stat(c.GraphOnly); err != nil {
			errs = append(errs, fmt.Errorf("graph input: %w", err))
		}
	}

	return errors.Join(errs...)
}

// IsGraphOnlyMode returns true if we should only generate a report
func (c *Config) IsGraphOnlyMode() bool {
	return c.GraphOnly != ""
}

// HasMirror returns true if rows are mirrored to a backup directory
func (c *Config) HasMirror() bool {
	return c.BackupDir != ""
}

// String returns a human-readable configuration summary
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Session:      %s\n", c.SessionUUID))
	b.WriteString(fmt.Sprintf("Interval:     %v\n", c.Interval))
	b.WriteString(fmt.Sprintf("Log Dir:      %s\n", c.LogDir))
	if c.HasMirror() {
		b.WriteString(fmt.Sprintf("Backup Dir:   %s\n", c.BackupDir))
	}
	b.WriteString(fmt.Sprintf("Klipper Log:  %s\n", c.KlipperLog))
	b.WriteString(fmt.Sprintf("Probe Limit:  %v\n", c.ProbeTimeout))
	if c.TextfilePath != "" {
		b.WriteString(fmt.Sprintf("Textfile:     %s\n", c.TextfilePath))
	}
	if c.ExportFormat != "" {
		b.WriteString(fmt.Sprintf("Export:       %s\n", c.ExportFormat))
	}
	if c.Graphs {
		b.WriteString("Graphs:       enabled\n")
	}
	return b.String()
}

// ExpandHome replaces a leading "~/" with the current user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
