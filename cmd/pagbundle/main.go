package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pagdeploy/pagbundle/internal/cli/build"
	"github.com/pagdeploy/pagbundle/internal/cli/initcmd"
	"github.com/pagdeploy/pagbundle/internal/cli/self"
	"github.com/pagdeploy/pagbundle/internal/cli/verify"
)

func main() {
	app := &cli.App{
		Name:    "pagbundle",
		Usage:   "Builds offline software bundles for air-gapped pag clusters",
		Version: "v0.1.0",
		Action: func(c *cli.Context) error {
			// Default action if no command is specified
			_ = cli.ShowAppHelp(c)
			return nil
		},
		Commands: []*cli.Command{
			initcmd.GetInitCommand(),
			build.NewBuildCommand(),
			verify.NewVerifyCommand(),
			self.NewSelfCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
