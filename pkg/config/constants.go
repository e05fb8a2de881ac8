package config

import "time"

const (
	DefaultInterval     = time.Second
	DefaultLogDir       = "logs"
	DefaultProbeTimeout = 5 * time.Second
	DefaultKlipperLog   = "~/printer_data/logs/klippy.log"
	DefaultVcgencmd     = "/usr/bin/vcgencmd"
	DefaultProcRoot     = "/proc"

	TempWarnCelsius     = 75.0
	LatencyWarnUs       = 3000
	CPULoadWarnPercent  = 85.0
	SwapPressureWarnMB  = 100.0
	ExportFormatParquet = "parquet"
)

var (
	DefaultCyclictest = []string{"cyclictest", "-m", "-Sp90", "-i200", "-h400", "-l1000", "-q"}
	DefaultDmesg      = []string{"dmesg", "-k"}
)
