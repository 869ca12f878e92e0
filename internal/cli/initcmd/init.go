// Package initcmd contains the `pagbundle init` command, which writes a
// starter pagbundle.toml.
package initcmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/pagdeploy/pagbundle/internal/core/bundlecfg"
)

// GetInitCommand returns the definition for the "init" command.
func GetInitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a bundle project (creates pagbundle.toml)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "index-url",
				Usage: "Package index URL to resolve against",
			},
			&cli.StringFlag{
				Name:  "release",
				Usage: "Target OS release the cluster images are built from",
			},
			&cli.StringFlag{
				Name:  "arch",
				Usage: "Target architecture",
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Overwrite an existing pagbundle.toml",
			},
		},
		Action: func(c *cli.Context) error {
			path := filepath.Join(".", bundlecfg.ConfigName)
			if _, err := os.Stat(path); err == nil && !c.Bool("force") {
				return cli.Exit(fmt.Sprintf("Error: %s already exists. Use --force to overwrite.", bundlecfg.ConfigName), 1)
			}

			cfg := bundlecfg.Default()
			if v := c.String("index-url"); v != "" {
				cfg.Index.URL = v
			}
			if v := c.String("release"); v != "" {
				cfg.Bundle.TargetRelease = v
			}
			if v := c.String("arch"); v != "" {
				cfg.Index.Architecture = v
			}

			if err := bundlecfg.Write(".", cfg); err != nil {
				return cli.Exit(fmt.Sprintf("Error writing %s: %v", bundlecfg.ConfigName, err), 1)
			}
			fmt.Printf("Wrote %s with %d package groups. Review the group seeds before building.\n",
				bundlecfg.ConfigName, len(cfg.Groups))
			return nil
		},
	}
}
