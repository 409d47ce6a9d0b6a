package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/arandu-labs/jurisrag/internal/adapters/driving/cli"
)

// version is overridden at build time via ldflags.
var version = "dev"

func main() {
	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()

	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
