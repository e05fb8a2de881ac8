package cmd

import (
	"log"

	"VoronMonitor/pkg/config"
	"VoronMonitor/pkg/graphing"
)

// Graph renders the HTML report for an existing log and exits.
func Graph(cfg *config.Config) int {
	out := graphing.ReportPath(cfg.GraphOnly)
	log.Printf("Generating report from %s", cfg.GraphOnly)

	if err := graphing.GenerateFromFile(cfg.GraphOnly, out, cfg.Thresholds); err != nil {
		log.Printf("Failed to generate report: %v", err)
		return 1
	}
	return 0
}
