package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"VoronMonitor/pkg/config"
	"VoronMonitor/pkg/exporting"
	"VoronMonitor/pkg/graphing"
	"VoronMonitor/pkg/monitor"
	"VoronMonitor/pkg/probing"
	"VoronMonitor/pkg/recording"
	"VoronMonitor/pkg/sampling"
)

// Monitor runs a monitoring session until SIGINT or SIGTERM.
func Monitor(cfg *config.Config) int {
	probes := probing.Build(cfg, probing.ExecRunner{})
	sampler := sampling.New(cfg.ProbeTimeout, probes...)

	rec, err := recording.Open(cfg)
	if err != nil {
		log.Printf("Error: %v", err)
		return 1
	}

	log.Println("Starting Voron Monitor...")
	log.Printf("Main Log:     %s", rec.PrimaryPath())
	if mirror := rec.MirrorPath(); mirror != "" {
		log.Printf("Backup Log:   %s", mirror)
	}
	for _, line := range strings.Split(strings.TrimSpace(cfg.String()), "\n") {
		log.Print(line)
	}
	log.Printf("Probes:       %s", strings.Join(sampler.ProbeNames(), ", "))

	static := &exporting.Static{
		SessionUUID:     cfg.SessionUUID.String(),
		StartedAt:       cfg.StartedAt,
		IntervalSeconds: cfg.Interval.Seconds(),
		ResourceMode:    resourceMode(probes),
		Probes:          sampler.ProbeNames(),
		LogPath:         rec.PrimaryPath(),
		MirrorPath:      rec.MirrorPath(),
		HostInfo:        probing.ReadHostInfo(),
	}
	if _, err := exporting.WriteStatic(static); err != nil {
		log.Printf("Warning: Failed to save static info: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := monitor.New(sampler, rec, cfg.Interval, cfg.Verbose)
	loopErr := m.Run(ctx)
	log.Printf("Recorded %d cycles", m.Cycles())

	finish(cfg, rec.PrimaryPath())

	if loopErr != nil {
		return 1
	}
	log.Println("Done.")
	return 0
}

// finish runs the optional post-session conversions. Failures are logged;
// the CSV log is already complete.
func finish(cfg *config.Config, logPath string) {
	if cfg.ExportFormat == config.ExportFormatParquet {
		out := recording.SiblingPath(logPath, "", ".parquet")
		log.Printf("Converting session data to %s...", cfg.ExportFormat)
		if n, err := exporting.ExportParquet(logPath, out, cfg.SessionUUID); err != nil {
			log.Printf("Error exporting session: %v", err)
		} else {
			log.Printf("Wrote %d rows to %s", n, out)
		}
	}

	if cfg.Graphs {
		if err := graphing.GenerateFromFile(logPath, graphing.ReportPath(logPath), cfg.Thresholds); err != nil {
			log.Printf("Failed to generate report: %v", err)
		}
	}
}

func resourceMode(probes []probing.Probe) string {
	for _, p := range probes {
		if sp, ok := p.(*probing.SystemProbe); ok {
			return sp.Mode()
		}
	}
	return ""
}
