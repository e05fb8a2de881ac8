// Package cmd wires configuration, probes, recorder and loop driver into the
// voronmon command.
package cmd

import (
	"errors"
	"log"

	"github.com/spf13/pflag"

	"VoronMonitor/pkg/config"
)

// Run parses args and executes either a monitoring session or graph-only
// mode. It returns the process exit code.
func Run(args []string) int {
	log.SetFlags(log.LstdFlags)
	log.SetPrefix("")

	cfg, err := config.ParseFlags("voronmon", args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		log.Printf("Error: %v", err)
		return 1
	}

	if cfg.IsGraphOnlyMode() {
		return Graph(cfg)
	}
	return Monitor(cfg)
}
