package main

import (
	"os"

	"github.com/aqasim81/migration-runner/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
