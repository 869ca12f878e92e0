// Package assembler combines completed group directories, the environment
// archive and the installer script into the final transportable bundle.
//
// Assembly is staged with explicit completion barriers: every artifact is
// re-verified against its checksum first, the manifest is written only after
// everything else is confirmed present, and the archive is produced last.
// A run that fails partway never leaves a manifest behind, so manifest
// existence is itself a completeness signal.
package assembler

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pagdeploy/pagbundle/internal/core/aptindex"
	"github.com/pagdeploy/pagbundle/internal/core/bundlecfg"
	"github.com/pagdeploy/pagbundle/internal/core/bundler"
	"github.com/pagdeploy/pagbundle/internal/core/envpack"
	"github.com/pagdeploy/pagbundle/internal/core/hasher"
	"github.com/pagdeploy/pagbundle/internal/core/manifest"
)

// Input is everything a completed build hands to assembly.
type Input struct {
	Workdir       string            // populated bundle work tree
	Name          string            // stable top-level directory name inside the archive
	Version       string            // optional tag appended to the archive file name
	TargetRelease string
	Groups        []*bundler.Result // in config order
	EnvArchive    string            // workdir-relative archive name; empty when skipped
	OutputDir     string            // where the final .tar.gz lands
}

// Assemble verifies, manifests and archives the bundle, returning the path of
// the produced .tar.gz. Any verification failure aborts before the manifest
// is written; no partial bundle is emitted.
func Assemble(ctx context.Context, in Input) (string, error) {
	// Barrier 1: every artifact on disk matches its record.
	for _, group := range in.Groups {
		for i, rec := range group.Records {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			path := filepath.Join(in.Workdir, group.Files[i])
			got, err := hasher.CalculateFileSHA256(path)
			if err != nil {
				return "", fmt.Errorf("artifact %q missing from group %q: %w", rec.Name, group.Group.Name, err)
			}
			if got != rec.Checksum {
				return "", &aptindex.IntegrityError{Package: rec.Name, Path: path, Want: rec.Checksum, Got: got}
			}
		}
	}

	// Barrier 2: the environment archive, when present, is real.
	if in.EnvArchive != "" {
		if err := envpack.ValidateArchive(filepath.Join(in.Workdir, in.EnvArchive)); err != nil {
			return "", err
		}
	}

	groups := make([]bundlecfg.Group, 0, len(in.Groups))
	for _, g := range in.Groups {
		groups = append(groups, g.Group)
	}
	if err := writeInstaller(in.Workdir, groups); err != nil {
		return "", err
	}

	// The manifest is written last: its existence signals completeness.
	m := manifest.New(in.Name, in.TargetRelease)
	for _, group := range in.Groups {
		for i, rec := range group.Records {
			m.Append(group.Group.Name, rec.Name, rec.Version, rec.Checksum, filepath.ToSlash(group.Files[i]))
		}
	}
	if err := manifest.Save(in.Workdir, m); err != nil {
		return "", err
	}

	archiveName := in.Name
	if in.Version != "" {
		archiveName += "-" + in.Version
	}
	target := filepath.Join(in.OutputDir, archiveName+".tar.gz")
	if err := createArchive(in.Workdir, in.Name, target); err != nil {
		return "", err
	}
	return target, nil
}
