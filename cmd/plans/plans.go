package plans

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/martinsuchenak/netgen/internal/config"
	"github.com/martinsuchenak/netgen/internal/model"
	"github.com/martinsuchenak/netgen/internal/storage"
	"github.com/paularlott/cli"
)

// Commands returns the plan history subcommands
func Commands() []*cli.Command {
	return []*cli.Command{
		listCommand(),
		showCommand(),
		deleteCommand(),
		pruneCommand(),
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Usage:       "List saved plans",
		Description: "List saved plans, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Usage: "Filter by plan source (cli, api or mcp)"},
			&cli.IntFlag{Name: "limit", Usage: "Maximum number of plans to show"},
			&cli.StringFlag{Name: "data-dir", Usage: "Plan history directory"},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			store, err := openStore(cmd.GetString("data-dir"))
			if err != nil {
				return err
			}
			defer store.Close()

			limit := cmd.GetInt("limit")
			if limit < 0 {
				return fmt.Errorf("invalid limit: %d", limit)
			}

			plans, err := store.ListPlans(&model.PlanFilter{
				Source: cmd.GetString("source"),
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			printPlans(plans)
			return nil
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:        "show",
		Usage:       "Show a saved plan",
		Description: "Show a plan's details and its rendered configuration",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Usage: "Output format, json or yaml (default is a text summary)"},
			&cli.StringFlag{Name: "data-dir", Usage: "Plan history directory"},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			store, err := openStore(cmd.GetString("data-dir"))
			if err != nil {
				return err
			}
			defer store.Close()

			plan, err := store.GetPlan(cmd.GetStringArg("id"))
			if err != nil {
				return err
			}

			switch format := cmd.GetString("output"); format {
			case "":
				printPlan(plan)
			case "json":
				data, err := json.MarshalIndent(plan, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			case "yaml":
				fmt.Print(plan.Output)
			default:
				return fmt.Errorf("invalid output format: %s", format)
			}
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:        "delete",
		Usage:       "Delete a saved plan",
		Description: "Remove a plan from the history",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data-dir", Usage: "Plan history directory"},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			store, err := openStore(cmd.GetString("data-dir"))
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeletePlan(cmd.GetStringArg("id")); err != nil {
				return err
			}

			fmt.Println("Plan deleted")
			return nil
		},
	}
}

func pruneCommand() *cli.Command {
	return &cli.Command{
		Name:        "prune",
		Usage:       "Remove old plans",
		Description: "Remove plans older than the retention window",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "older-than",
				Usage: "Remove plans older than this many days (defaults to the configured retention)",
			},
			&cli.StringFlag{Name: "data-dir", Usage: "Plan history directory"},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Load(&config.Config{DataDir: cmd.GetString("data-dir")})

			days := cmd.GetInt("older-than")
			if days < 0 {
				return fmt.Errorf("invalid age: %d days", days)
			}
			if days == 0 {
				days = cfg.RetentionDays
			}
			if days <= 0 {
				return fmt.Errorf("no retention window configured, pass --older-than")
			}

			store, err := storage.NewSQLiteStore(cfg.DataDir)
			if err != nil {
				return err
			}
			defer store.Close()

			cutoff := time.Now().UTC().AddDate(0, 0, -days)
			removed, err := store.PrunePlans(cutoff)
			if err != nil {
				return err
			}

			fmt.Printf("Removed %d plans older than %d days\n", removed, days)
			return nil
		},
	}
}

func openStore(dataDir string) (*storage.SQLiteStore, error) {
	cfg := config.Load(&config.Config{DataDir: dataDir})
	return storage.NewSQLiteStore(cfg.DataDir)
}

func printPlans(plans []model.Plan) {
	if len(plans) == 0 {
		fmt.Println("No plans found")
		return
	}

	for _, p := range plans {
		fmt.Printf("%s\t%s\t%s\t%d networks\t%d subnets\n",
			p.ID, p.CreatedAt.Format("2006-01-02 15:04:05"), p.Source, p.Networks, p.Subnets)
	}
}

func printPlan(plan *model.Plan) {
	fmt.Printf("ID:       %s\n", plan.ID)
	fmt.Printf("Created:  %s\n", plan.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Source:   %s\n", plan.Source)
	fmt.Printf("Digest:   %s\n", plan.Digest)
	fmt.Printf("Networks: %d\n", plan.Networks)
	fmt.Printf("Subnets:  %d\n", plan.Subnets)
	fmt.Println()
	fmt.Print(plan.Output)
}
