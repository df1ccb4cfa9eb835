package validate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/martinsuchenak/netgen/internal/manifest"
	"github.com/martinsuchenak/netgen/internal/planner"
	"github.com/martinsuchenak/netgen/internal/worker"
	"github.com/paularlott/cli"
)

const defaultConcurrency = 4

func Command() *cli.Command {
	return &cli.Command{
		Name:        "validate",
		Usage:       "Validate a manifest without generating output",
		Description: "Check that every network request in the manifest fits the declared subnets",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "manifest"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Validate every .yml and .yaml manifest in a directory",
			},
			&cli.IntFlag{
				Name:         "concurrency",
				Usage:        "Number of manifests validated in parallel",
				DefaultValue: defaultConcurrency,
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			if dir := cmd.GetString("dir"); dir != "" {
				workers := cmd.GetInt("concurrency")
				if workers < 1 {
					return fmt.Errorf("invalid concurrency: %d", workers)
				}
				return validateDir(dir, workers)
			}

			path := cmd.GetStringArg("manifest")
			if path == "" {
				return fmt.Errorf("%w: no manifest given", manifest.ErrManifest)
			}
			return validateFile(path)
		},
	}
}

func validateFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", manifest.ErrManifest, err)
	}

	summary, err := planner.Validate(raw)
	if err != nil {
		return err
	}

	fmt.Printf("Manifest is valid: %d networks across %d subnets\n", summary.Networks, summary.Subnets)
	return nil
}

// validateDir runs every manifest in the directory through the worker
// pool and reports per-file results.
func validateDir(dir string, workers int) error {
	paths, err := manifestPaths(dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("%w: no manifests found in %s", manifest.ErrManifest, dir)
	}

	pool := worker.NewPool(workers)
	pool.Start()
	defer pool.Stop()

	results := make(chan worker.Result, len(paths))
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%w: %v", manifest.ErrManifest, err)
		}
		if err := pool.Submit(worker.Job{Path: path, Raw: raw, Result: results}); err != nil {
			return err
		}
	}

	byPath := make(map[string]worker.Result, len(paths))
	for i := 0; i < len(paths); i++ {
		r := <-results
		byPath[r.Path] = r
	}

	var failed []string
	for _, path := range paths {
		r := byPath[path]
		if r.Err != nil {
			fmt.Printf("%s: %v\n", path, r.Err)
			failed = append(failed, path)
			continue
		}
		fmt.Printf("%s: valid (%d networks across %d subnets)\n", path, r.Summary.Networks, r.Summary.Subnets)
	}

	switch len(failed) {
	case 0:
		return nil
	case 1:
		return byPath[failed[0]].Err
	default:
		return fmt.Errorf("%d of %d manifests invalid", len(failed), len(paths))
	}
}

func manifestPaths(dir string) ([]string, error) {
	var paths []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	return paths, nil
}
