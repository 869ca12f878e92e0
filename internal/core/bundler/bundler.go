// Package bundler materializes one package group's resolved closure into its
// dedicated output directory inside the bundle work tree.
package bundler

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pagdeploy/pagbundle/internal/core/aptindex"
	"github.com/pagdeploy/pagbundle/internal/core/bundlecfg"
	"github.com/pagdeploy/pagbundle/internal/core/resolver"
)

// Options carries the run-wide collaborators a group bundling step needs.
type Options struct {
	Workdir string // root of the bundle tree being built
	Cache   *resolver.Cache
	Fetcher resolver.Fetcher
	Jobs    int
}

// Result is one completed group directory, with the closure records and
// their workdir-relative file paths in manifest order.
type Result struct {
	Group   bundlecfg.Group
	Records []*aptindex.PackageRecord
	Files   []string // parallel to Records
}

// Bundle resolves the group's closure through the shared run cache and
// populates the group's directory. Population is staged: artifacts land in a
// ".partial" sibling that is renamed into place only once every copy
// succeeded, so a group directory never exists half-populated. Artifacts
// shared with other groups are copied again here; groups are intentionally
// self-contained install sets, and the cache only avoids redundant network
// fetches, not redundant disk copies.
func Bundle(ctx context.Context, group bundlecfg.Group, opts Options) (*Result, error) {
	closure, err := resolver.Resolve(ctx, group.Packages, opts.Cache, opts.Fetcher, opts.Jobs)
	if err != nil {
		return nil, fmt.Errorf("resolving group %q: %w", group.Name, err)
	}

	finalDir := filepath.Join(opts.Workdir, group.Dir)
	stageDir := finalDir + ".partial"
	if err := os.RemoveAll(stageDir); err != nil {
		return nil, fmt.Errorf("failed to clear stage dir for group %q: %w", group.Name, err)
	}
	if err := os.MkdirAll(stageDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create stage dir for group %q: %w", group.Name, err)
	}

	result := &Result{Group: group}
	for _, rec := range closure {
		if err := ctx.Err(); err != nil {
			_ = os.RemoveAll(stageDir)
			return nil, err
		}
		name := filepath.Base(rec.Filename)
		if err := copyFile(rec.Path, filepath.Join(stageDir, name)); err != nil {
			_ = os.RemoveAll(stageDir)
			return nil, fmt.Errorf("failed to place %q into group %q: %w", rec.Name, group.Name, err)
		}
		result.Records = append(result.Records, rec)
		result.Files = append(result.Files, filepath.Join(group.Dir, name))
	}

	if err := os.RemoveAll(finalDir); err != nil {
		_ = os.RemoveAll(stageDir)
		return nil, fmt.Errorf("failed to replace group dir %q: %w", group.Name, err)
	}
	if err := os.Rename(stageDir, finalDir); err != nil {
		_ = os.RemoveAll(stageDir)
		return nil, fmt.Errorf("failed to commit group dir %q: %w", group.Name, err)
	}
	return result, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
