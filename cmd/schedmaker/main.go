// Command schedmaker edits the configuration of a weekly schedule graphic.
package main

import (
	"os"

	"github.com/custodia-labs/schedmaker/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
