package aptindex

import "fmt"

// NotFoundError reports a package name that does not exist in the index.
// It is never retried: a missing dependency cannot be silently skipped, so
// callers treat it as fatal for the whole run.
type NotFoundError struct {
	Package string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("package %q not found in index", e.Package)
}

// IndexUnavailableError reports that the package index could not be reached
// (network, DNS or service failure) after the client's bounded retries were
// exhausted.
type IndexUnavailableError struct {
	Package string
	Err     error
}

func (e *IndexUnavailableError) Error() string {
	return fmt.Sprintf("index unavailable while fetching %q: %v", e.Package, e.Err)
}

func (e *IndexUnavailableError) Unwrap() error { return e.Err }

// IntegrityError reports content whose checksum does not match what the
// index (or the bundle manifest) declared. It is never retried automatically:
// a repeated identical corruption likely indicates a tampered or broken
// entry, so it is surfaced immediately.
type IntegrityError struct {
	Package string
	Path    string
	Want    string
	Got     string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check failed for %q (%s): want %s, got %s",
		e.Package, e.Path, e.Want, e.Got)
}
