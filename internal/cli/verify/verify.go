// Package verify implements the `pagbundle verify` command, the
// controller-side check that an extracted bundle still matches its manifest.
package verify

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/pagdeploy/pagbundle/internal/core/hasher"
	"github.com/pagdeploy/pagbundle/internal/core/manifest"
)

// NewVerifyCommand creates the cli.Command for "verify".
func NewVerifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Verifies an extracted bundle directory against its manifest",
		ArgsUsage: "[bundle-dir]",
		Action: func(c *cli.Context) error {
			bundleDir := c.Args().First()
			if bundleDir == "" {
				bundleDir = "."
			}

			m, err := manifest.Load(bundleDir)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v. The bundle must not be trusted or deployed.", err), 1)
			}

			headerColor := color.New(color.FgCyan, color.Bold).SprintFunc()
			okColor := color.New(color.FgGreen).SprintFunc()
			badColor := color.New(color.FgRed, color.Bold).SprintFunc()

			fmt.Printf("%s %s (release %s, built %s)\n",
				headerColor("bundle:"), m.Name, m.TargetRelease, m.BuiltAt)

			listed := make(map[string]bool, len(m.Artifacts))
			var problems int
			for _, rec := range m.Artifacts {
				listed[rec.File] = true
				path := filepath.Join(bundleDir, filepath.FromSlash(rec.File))
				got, err := hasher.CalculateFileSHA256(path)
				switch {
				case errors.Is(err, os.ErrNotExist):
					problems++
					fmt.Printf("%s %s/%s: file missing (%s)\n", badColor("FAIL"), rec.Group, rec.Package, rec.File)
				case err != nil:
					problems++
					fmt.Printf("%s %s/%s: %v\n", badColor("FAIL"), rec.Group, rec.Package, err)
				case got != rec.Checksum:
					problems++
					fmt.Printf("%s %s/%s: checksum mismatch (want %s, got %s)\n",
						badColor("FAIL"), rec.Group, rec.Package, rec.Checksum, got)
				default:
					fmt.Printf("%s  %s/%s %s\n", okColor("ok"), rec.Group, rec.Package, rec.Version)
				}
			}

			// Every artifact on disk must appear in the manifest.
			orphans, err := findOrphans(bundleDir, m, listed)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error scanning bundle directories: %v", err), 1)
			}
			for _, orphan := range orphans {
				problems++
				fmt.Printf("%s orphan artifact not in manifest: %s\n", badColor("FAIL"), orphan)
			}

			if problems > 0 {
				return cli.Exit(fmt.Sprintf("Bundle verification failed: %d problem(s). The bundle must not be deployed.", problems), 1)
			}
			fmt.Printf("%s all %d artifacts verified\n", okColor("ok"), len(m.Artifacts))
			return nil
		},
	}
}

// findOrphans walks every directory the manifest references and reports files
// the manifest does not list.
func findOrphans(bundleDir string, m *manifest.Manifest, listed map[string]bool) ([]string, error) {
	dirs := make(map[string]bool)
	for _, rec := range m.Artifacts {
		dirs[filepath.Dir(filepath.FromSlash(rec.File))] = true
	}

	var orphans []string
	for dir := range dirs {
		entries, err := os.ReadDir(filepath.Join(bundleDir, dir))
		if err != nil {
			if os.IsNotExist(err) {
				continue // missing dir already reported per record
			}
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			rel := filepath.ToSlash(filepath.Join(dir, entry.Name()))
			if !listed[rel] {
				orphans = append(orphans, rel)
			}
		}
	}
	sort.Strings(orphans)
	return orphans, nil
}
