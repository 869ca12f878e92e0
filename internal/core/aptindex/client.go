// Package aptindex resolves package names against an OS package index pinned
// to a single target release and retrieves the matching binary artifacts.
//
// The index is consumed read-only through two endpoints:
//
//	GET <url>/dists/<release>/<arch>/packages/<name>   control-style stanza
//	GET <url>/<Filename>                               artifact content
//
// Callers must run on the same OS release the cluster node images were built
// from; version skew between bootstrap host and target is a caller-side
// invariant, not something this client can detect.
package aptindex

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/pagdeploy/pagbundle/internal/core/hasher"
)

// DefaultRetries bounds the exponential backoff on transient index failures.
const DefaultRetries = 4

// Client fetches package metadata and artifacts from one index snapshot.
type Client struct {
	baseURL string
	release string
	arch    string
	scratch string
	http    *retryablehttp.Client
}

// NewClient returns a client pinned to the given index URL, target release
// and architecture. Downloaded artifacts are written to scratchDir; final
// placement is the group bundler's job. retries <= 0 falls back to
// DefaultRetries.
func NewClient(baseURL, release, arch, scratchDir string, retries int) *Client {
	if retries <= 0 {
		retries = DefaultRetries
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = retries
	rc.Logger = nil
	return &Client{
		baseURL: baseURL,
		release: release,
		arch:    arch,
		scratch: scratchDir,
		http:    rc,
	}
}

// Fetch resolves name against the pinned index and downloads its artifact
// into the scratch directory, verifying the content against the checksum the
// index declared. It returns *NotFoundError for unknown names,
// *IndexUnavailableError once transient failures exhaust their retries, and
// *IntegrityError when the downloaded content does not match the index.
func (c *Client) Fetch(ctx context.Context, name string) (*PackageRecord, error) {
	stanza, err := c.get(ctx, name, fmt.Sprintf("%s/dists/%s/%s/packages/%s", c.baseURL, c.release, c.arch, name))
	if err != nil {
		return nil, err
	}
	rec, err := parseStanza(stanza)
	if err != nil {
		return nil, fmt.Errorf("failed to parse index entry for %q: %w", name, err)
	}

	if err := c.download(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// get performs one retried GET and returns the response body. 404 maps to
// *NotFoundError, anything else non-200 (or exhausted retries) to
// *IndexUnavailableError.
func (c *Client) get(ctx context.Context, name, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &IndexUnavailableError{Package: name, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &NotFoundError{Package: name}
	case resp.StatusCode != http.StatusOK:
		return nil, &IndexUnavailableError{
			Package: name,
			Err:     fmt.Errorf("index returned status %d for %s", resp.StatusCode, url),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &IndexUnavailableError{Package: name, Err: err}
	}
	return body, nil
}

// download streams the record's artifact into the scratch directory, hashing
// it on the way. The artifact is removed again if the checksum does not match
// the index's declaration, so a tainted file never survives on disk.
func (c *Client) download(ctx context.Context, rec *PackageRecord) error {
	url := fmt.Sprintf("%s/%s", c.baseURL, rec.Filename)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build artifact request for %s: %w", url, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &IndexUnavailableError{Package: rec.Name, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{Package: rec.Name}
	case resp.StatusCode != http.StatusOK:
		return &IndexUnavailableError{
			Package: rec.Name,
			Err:     fmt.Errorf("artifact source returned status %d for %s", resp.StatusCode, url),
		}
	}

	dest := filepath.Join(c.scratch, filepath.Base(rec.Filename))
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create scratch file %s: %w", dest, err)
	}

	digest := sha256.New()
	_, copyErr := io.Copy(out, io.TeeReader(resp.Body, digest))
	closeErr := out.Close()
	if copyErr != nil {
		_ = os.Remove(dest)
		return &IndexUnavailableError{Package: rec.Name, Err: copyErr}
	}
	if closeErr != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("failed to finish writing %s: %w", dest, closeErr)
	}

	got := hasher.Format(digest.Sum(nil))
	if got != rec.Checksum {
		_ = os.Remove(dest)
		return &IntegrityError{Package: rec.Name, Path: dest, Want: rec.Checksum, Got: got}
	}

	rec.Path = dest
	return nil
}
