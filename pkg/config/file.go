package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML layout of a --config file. Tools and
// Thresholds are decoded on top of the current values so a file only needs
// the keys it changes.
type fileConfig struct {
	Interval     *float64      `yaml:"interval"` // seconds
	LogDir       string        `yaml:"log_dir"`
	BackupDir    string        `yaml:"backup_dir"`
	KlipperLog   string        `yaml:"klipper_log"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	Textfile     string        `yaml:"textfile"`
	Tools        Tools         `yaml:"tools"`
	Thresholds   Thresholds    `yaml:"thresholds"`
}

// applyFile loads path and copies its settings into c, skipping every option
// whose flag was set explicitly.
func (c *Config) applyFile(path string, changed func(string) bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	fc := fileConfig{Tools: c.Tools, Thresholds: c.Thresholds}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Interval != nil && !changed("interval") {
		c.Interval = secondsToDuration(*fc.Interval)
	}
	if fc.LogDir != "" && !changed("log-dir") {
		c.LogDir = fc.LogDir
	}
	if fc.BackupDir != "" && !changed("backup-dir") {
		c.BackupDir = fc.BackupDir
	}
	if fc.KlipperLog != "" && !changed("klipper-log") {
		c.KlipperLog = fc.KlipperLog
	}
	if fc.ProbeTimeout != 0 && !changed("probe-timeout") {
		c.ProbeTimeout = fc.ProbeTimeout
	}
	if fc.Textfile != "" && !changed("textfile") {
		c.TextfilePath = fc.Textfile
	}

	c.Tools = fc.Tools
	c.Thresholds = fc.Thresholds
	return nil
}
