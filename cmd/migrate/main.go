package main

import (
	"fmt"
	"os"

	"github.com/spatial-summarize/internal/cli"
)

func main() {
	if err := cli.NewMigrateCommand(os.Stdout, cli.ConnectPostgres).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
