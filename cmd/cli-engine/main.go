package main

import (
	"os"

	"github.com/scottdixon/cli-engine/internal/engine"
)

// version is injected via ldflags at release build time.
var version = "0.0.0"

func main() {
	os.Exit(engine.Run(version, os.Args[1:]))
}
