package generate

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/martinsuchenak/netgen/internal/config"
	"github.com/martinsuchenak/netgen/internal/log"
	"github.com/martinsuchenak/netgen/internal/manifest"
	"github.com/martinsuchenak/netgen/internal/model"
	"github.com/martinsuchenak/netgen/internal/planner"
	"github.com/martinsuchenak/netgen/internal/storage"
	"github.com/paularlott/cli"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:        "generate",
		Usage:       "Generate a network config from a manifest",
		Description: "Expand the manifest's network requests into a full network configuration and print it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:         "config",
				Aliases:      []string{"c"},
				Usage:        "Path to the manifest file",
				DefaultValue: "config.yml",
				EnvVars:      []string{"NETGEN_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the config to a file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save the plan to the local history",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Plan history directory",
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.GetString("config")

			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("%w: %v", manifest.ErrManifest, err)
			}

			plan, err := planner.Generate(raw, path)
			if err != nil {
				return err
			}

			if cmd.GetBool("save") {
				if err := savePlan(plan, cmd.GetString("data-dir")); err != nil {
					return err
				}
			}

			if out := cmd.GetString("output"); out != "" {
				if err := os.WriteFile(out, []byte(plan.Output), 0644); err != nil {
					return fmt.Errorf("writing config: %w", err)
				}
				log.Info("Config written", "path", out, "networks", plan.Networks)
				return nil
			}

			fmt.Print(plan.Output)
			return nil
		},
	}
}

func savePlan(plan *model.Plan, dataDir string) error {
	cfg := config.Load(&config.Config{DataDir: dataDir})
	store, err := storage.NewSQLiteStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening plan history: %w", err)
	}
	defer store.Close()

	if prior, err := store.FindPlanByDigest(plan.Digest); err == nil {
		log.Debug("Manifest previously planned", "prior_id", prior.ID, "digest", plan.Digest)
	} else if !errors.Is(err, storage.ErrPlanNotFound) {
		return err
	}

	if err := store.SavePlan(plan); err != nil {
		return err
	}

	log.Info("Plan saved", "id", plan.ID)
	return nil
}
