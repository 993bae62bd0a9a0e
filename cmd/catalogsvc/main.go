package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "catalogsvc",
		Usage: "Catalog and product API with CSV ingestion",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Override LOG_LEVEL (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file, overwriting existing ones",
				Value: ".env",
			},
		},
		Before: loadEnv,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveCommand,
			},
			{
				Name:   "migrate",
				Usage:  "Create the database schema if absent",
				Action: migrateCommand,
			},
			{
				Name:      "import",
				Usage:     "Load catalogs or products from a CSV file",
				ArgsUsage: "FILE",
				Action:    importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "kind",
						Aliases:  []string{"k"},
						Usage:    "Record kind: catalogs or products",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "raise-on-error",
						Usage: "Abort the whole import on the first invalid row",
					},
					&cli.StringFlag{
						Name:  "content-type",
						Usage: "Declared content type of the file",
						Value: "text/csv",
					},
				},
			},
			{
				Name:   "reset",
				Usage:  "Delete every catalog and product",
				Action: resetCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Confirm the reset",
					},
				},
			},
		},
	}
}
