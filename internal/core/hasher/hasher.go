package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// CalculateSHA256 computes the SHA256 hash of the given content
// and returns it in the format "sha256:<hex_hash>".
func CalculateSHA256(content []byte) (string, error) {
	hasher := sha256.New()
	_, err := hasher.Write(content)
	if err != nil {
		return "", fmt.Errorf("failed to write content to hasher: %w", err)
	}
	return Format(hasher.Sum(nil)), nil
}

// CalculateFileSHA256 computes the SHA256 hash of the file at path by
// streaming its content, returning it in the same "sha256:<hex_hash>" format.
// Artifacts can be full .deb files, so they are never read into memory whole.
func CalculateFileSHA256(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for hashing: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to read %s for hashing: %w", path, err)
	}
	return Format(hasher.Sum(nil)), nil
}

// Format renders a raw SHA256 digest in the canonical "sha256:<hex>" form
// used by package records and the bundle manifest.
func Format(digest []byte) string {
	return fmt.Sprintf("sha256:%s", hex.EncodeToString(digest))
}
