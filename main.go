package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/martinsuchenak/netgen/cmd/generate"
	"github.com/martinsuchenak/netgen/cmd/plans"
	"github.com/martinsuchenak/netgen/cmd/server"
	"github.com/martinsuchenak/netgen/cmd/validate"
	"github.com/martinsuchenak/netgen/internal/log"
	"github.com/martinsuchenak/netgen/internal/manifest"
	"github.com/martinsuchenak/netgen/internal/netspace"
	"github.com/paularlott/cli"
	"github.com/paularlott/cli/env"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Load .env file if it exists
	env.Load()

	// Initialize structured logging
	log.Configure("info", "auto")

	rootCmd := &cli.Command{
		Name:        "netgen",
		Version:     version,
		Usage:       "Network config generation from subnet manifests",
		Description: "Expands subnet definitions and named network requests into a conflict-free network configuration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:         "log-level",
				Usage:        "Log level (debug, info, warn, error)",
				DefaultValue: "info",
				EnvVars:      []string{"NETGEN_LOG_LEVEL"},
				Global:       true,
			},
			&cli.StringFlag{
				Name:         "log-format",
				Usage:        "Log format (console, json, auto)",
				DefaultValue: "auto",
				EnvVars:      []string{"NETGEN_LOG_FORMAT"},
				Global:       true,
			},
		},
		PreRun: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			log.Configure(cmd.GetString("log-level"), cmd.GetString("log-format"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			generate.Command(),
			validate.Command(),
			{
				Name:        "plans",
				Usage:       "Plan history commands",
				Description: "Inspect and manage the saved plan history",
				Commands:    plans.Commands(),
			},
			server.Command(),
			versionCommand(),
		},
	}

	if err := rootCmd.Execute(context.Background()); err != nil {
		log.Error("Command failed", "error", err)
		os.Exit(exitCode(err))
	}
}

// exitCode distinguishes the manifest fault classes so scripts can react
// to what went wrong.
func exitCode(err error) int {
	switch {
	case errors.Is(err, netspace.ErrInvalidSubnet):
		return 3
	case errors.Is(err, netspace.ErrInvalidRequest):
		return 4
	case errors.Is(err, netspace.ErrCapacityExceeded):
		return 5
	case errors.Is(err, manifest.ErrManifest):
		return 2
	default:
		return 1
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:        "version",
		Usage:       "Show version information",
		Description: "Show the build version, commit and date",
		Run: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Printf("netgen %s (commit %s, built %s)\n", version, commit, date)
			return nil
		},
	}
}
