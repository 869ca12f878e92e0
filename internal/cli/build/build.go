// Package build implements the `pagbundle build` command: the staged
// resolve, fetch, verify and assemble pipeline that turns pagbundle.toml
// into one transportable archive.
package build

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/pagdeploy/pagbundle/internal/core/aptindex"
	"github.com/pagdeploy/pagbundle/internal/core/assembler"
	"github.com/pagdeploy/pagbundle/internal/core/bundlecfg"
	"github.com/pagdeploy/pagbundle/internal/core/bundler"
	"github.com/pagdeploy/pagbundle/internal/core/envpack"
	"github.com/pagdeploy/pagbundle/internal/core/resolver"
)

// NewBuildCommand creates the cli.Command for "build".
func NewBuildCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Builds the offline software bundle described by pagbundle.toml",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Directory containing pagbundle.toml",
				Value:   ".",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory the final archive is written to",
				Value:   ".",
			},
			&cli.StringFlag{
				Name:  "version",
				Usage: "Bundle version tag embedded in the archive file name",
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Usage:   "Maximum number of concurrent package fetches",
				Value:   4,
			},
			&cli.BoolFlag{
				Name:  "skip-env",
				Usage: "Skip the environment-packing step (package-only bundle)",
			},
			&cli.BoolFlag{
				Name:  "keep-workdir",
				Usage: "Keep the unpacked bundle tree next to the archive",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output",
			},
		},
		Action: buildAction,
	}
}

func buildAction(c *cli.Context) error {
	verbose := c.Bool("verbose")

	cfg, err := bundlecfg.Load(c.String("config"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cli.Exit("Error: pagbundle.toml not found. Please run 'pagbundle init' first.", 1)
		}
		return cli.Exit(fmt.Sprintf("Error loading pagbundle.toml: %v", err), 1)
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("Error: invalid pagbundle.toml: %v", err), 1)
	}
	if verbose {
		fmt.Printf("Building %s for release %s (%d groups)\n", cfg.Bundle.Name, cfg.Bundle.TargetRelease, len(cfg.Groups))
	}

	// A user abort must cancel outstanding fetches promptly.
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	outputDir := c.String("output")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return cli.Exit(fmt.Sprintf("Error creating output directory: %v", err), 1)
	}
	workdir := filepath.Join(outputDir, cfg.Bundle.Name)
	if err := os.RemoveAll(workdir); err != nil {
		return cli.Exit(fmt.Sprintf("Error clearing work directory: %v", err), 1)
	}
	if err := os.MkdirAll(workdir, 0755); err != nil {
		return cli.Exit(fmt.Sprintf("Error creating work directory: %v", err), 1)
	}
	keepWorkdir := c.Bool("keep-workdir")
	cleanup := func() {
		if !keepWorkdir {
			_ = os.RemoveAll(workdir)
		}
	}

	scratch, err := os.MkdirTemp("", "pagbundle-scratch-*")
	if err != nil {
		_ = os.RemoveAll(workdir)
		return cli.Exit(fmt.Sprintf("Error creating scratch directory: %v", err), 1)
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	client := aptindex.NewClient(cfg.Index.URL, cfg.Bundle.TargetRelease, cfg.Index.Architecture, scratch, cfg.Index.Retries)
	cache := resolver.NewCache()
	jobs := c.Int("jobs")

	results := make([]*bundler.Result, 0, len(cfg.Groups))
	for _, group := range cfg.Groups {
		if verbose {
			fmt.Printf("Bundling group %s (seeds: %v)...\n", group.Name, group.Packages)
		}
		result, err := bundler.Bundle(ctx, group, bundler.Options{
			Workdir: workdir,
			Cache:   cache,
			Fetcher: client,
			Jobs:    jobs,
		})
		if err != nil {
			// The wrapped error names the failing package and kind;
			// never emit a bundle with missing groups.
			_ = os.RemoveAll(workdir)
			return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
		}
		if verbose {
			fmt.Printf("  %d artifacts in %s\n", len(result.Records), group.Dir)
		}
		results = append(results, result)
	}

	envArchive := ""
	if !c.Bool("skip-env") {
		if cfg.Environment.Spec == "" || cfg.Environment.Archive == "" || cfg.Environment.Packer == "" {
			_ = os.RemoveAll(workdir)
			return cli.Exit("Error: [environment] section is incomplete; configure it or build with --skip-env.", 1)
		}
		envArchive = cfg.Environment.Archive
		if verbose {
			fmt.Printf("Packing environment from %s...\n", cfg.Environment.Spec)
		}
		packer := &envpack.ExecPacker{Tool: cfg.Environment.Packer}
		if err := packer.ProduceArchive(ctx, cfg.Environment.Spec, filepath.Join(workdir, envArchive)); err != nil {
			_ = os.RemoveAll(workdir)
			return cli.Exit(fmt.Sprintf("Error packing environment: %v", err), 1)
		}
	}

	archive, err := assembler.Assemble(ctx, assembler.Input{
		Workdir:       workdir,
		Name:          cfg.Bundle.Name,
		Version:       c.String("version"),
		TargetRelease: cfg.Bundle.TargetRelease,
		Groups:        results,
		EnvArchive:    envArchive,
		OutputDir:     outputDir,
	})
	if err != nil {
		_ = os.RemoveAll(workdir)
		return cli.Exit(fmt.Sprintf("Error assembling bundle: %v", err), 1)
	}

	cleanup()
	fmt.Printf("Bundle written to %s (%d packages across %d groups)\n", archive, cache.Len(), len(cfg.Groups))
	return nil
}
