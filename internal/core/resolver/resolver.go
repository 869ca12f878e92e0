// Package resolver computes the full transitive dependency closure of a set
// of seed packages against one index snapshot, deduplicating fetches across
// package groups through a shared run-scoped cache.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pagdeploy/pagbundle/internal/core/aptindex"
)

// Fetcher retrieves one package's record and artifact from the index.
// *aptindex.Client is the production implementation; tests substitute fakes.
type Fetcher interface {
	Fetch(ctx context.Context, name string) (*aptindex.PackageRecord, error)
}

// Closure is the set of records reachable from a group's seeds, in
// deterministic breadth-first discovery order: seeds in declared order, then
// dependencies in the order the index declared them.
type Closure []*aptindex.PackageRecord

// VersionConflictError reports a package whose pinned version (from a group
// seed) disagrees with the canonical version the index yields, or with a pin
// another group declared. It is fatal: the resolver never silently picks a
// version.
type VersionConflictError struct {
	Package string
	Want    string
	Got     string
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict for %q: pinned %s, index yields %s", e.Package, e.Want, e.Got)
}

// Resolve expands seeds breadth-first until fixpoint. Fetches within one
// frontier level run concurrently under a bounded worker pool of size jobs;
// the shared cache guarantees each name is fetched at most once per run, even
// when groups resolve concurrently. Seeds may pin a version as
// "name=version"; a pin that disagrees with the index's canonical version
// fails with *VersionConflictError. Dependency cycles terminate through the
// per-resolution visited set, independent of cache state.
func Resolve(ctx context.Context, seeds []string, cache *Cache, fetcher Fetcher, jobs int) (Closure, error) {
	if jobs < 1 {
		jobs = 1
	}

	visited := make(map[string]bool)
	pins := make(map[string]string)
	var closure Closure

	var frontier []string
	for _, seed := range seeds {
		name, pin, err := parseRequest(seed)
		if err != nil {
			return nil, err
		}
		if pin != "" {
			if prev, ok := pins[name]; ok && prev != pin {
				return nil, &VersionConflictError{Package: name, Want: pin, Got: prev}
			}
			pins[name] = pin
		}
		if !visited[name] {
			visited[name] = true
			frontier = append(frontier, name)
		}
	}

	for len(frontier) > 0 {
		recs := make([]*aptindex.PackageRecord, len(frontier))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(jobs)
		for i, name := range frontier {
			g.Go(func() error {
				rec, err := cache.Do(gctx, name, func(ctx context.Context) (*aptindex.PackageRecord, error) {
					return fetcher.Fetch(ctx, name)
				})
				if err != nil {
					return err
				}
				recs[i] = rec
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		var next []string
		for _, rec := range recs {
			if pin, ok := pins[rec.Name]; ok && pin != rec.Version {
				return nil, &VersionConflictError{Package: rec.Name, Want: pin, Got: rec.Version}
			}
			closure = append(closure, rec)
			for _, dep := range rec.Depends {
				if !visited[dep] {
					visited[dep] = true
					next = append(next, dep)
				}
			}
		}
		frontier = next
	}

	return closure, nil
}

// parseRequest splits an optional "name=version" seed pin.
func parseRequest(spec string) (name, pin string, err error) {
	name, pin, _ = strings.Cut(spec, "=")
	name = strings.TrimSpace(name)
	pin = strings.TrimSpace(pin)
	if name == "" {
		return "", "", fmt.Errorf("empty package name in seed %q", spec)
	}
	return name, pin, nil
}
