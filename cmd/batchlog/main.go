// Command batchlog drives a logging pipeline built from a YAML file. It is
// used to try out configurations and to measure appender throughput.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	// database/sql drivers for the database appender
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "batchlog",
		Usage: "run a batched logging pipeline from a configuration file",
		Commands: []*cli.Command{
			cmdRun(),
			cmdCheck(),
			cmdKinds(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "batchlog:", err)
		os.Exit(1)
	}
}
