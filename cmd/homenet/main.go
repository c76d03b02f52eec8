// Command homenet indexes documents and photos on the local machine.
package main

import (
	"context"
	"os"

	"github.com/custodia-labs/homenet/internal/adapters/driving/cli"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
