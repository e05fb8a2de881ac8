package main

import (
	"os"

	"VoronMonitor/pkg/cmd"
)

func main() {
	os.Exit(cmd.Run(os.Args[1:]))
}
