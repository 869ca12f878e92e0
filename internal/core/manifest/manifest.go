// Package manifest defines the bundle manifest: the ordered record of every
// artifact the bundle carries, written last during assembly so that its very
// existence signals a complete build.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest's fixed name inside the bundle tree.
const FileName = "bundle-manifest.toml"

// APIVersion is bumped on incompatible manifest format changes.
const APIVersion = "1"

// Record describes one artifact on disk.
type Record struct {
	Group    string `toml:"group"`
	Package  string `toml:"package"`
	Version  string `toml:"version"`
	Checksum string `toml:"checksum"`
	File     string `toml:"file"` // bundle-relative path
}

// Manifest is the structure of bundle-manifest.toml. Artifacts keep the
// order in which groups were bundled, so rebuilds against an unchanged index
// are byte-identical.
type Manifest struct {
	APIVersion    string   `toml:"api_version"`
	Name          string   `toml:"name"`
	BuiltAt       string   `toml:"built_at"`
	TargetRelease string   `toml:"target_release"`
	Artifacts     []Record `toml:"artifact"`
}

// New creates a manifest header for the given bundle name and target release,
// stamped with the current UTC time.
func New(name, targetRelease string) *Manifest {
	return &Manifest{
		APIVersion:    APIVersion,
		Name:          name,
		BuiltAt:       time.Now().UTC().Format(time.RFC3339),
		TargetRelease: targetRelease,
	}
}

// Load reads the manifest from bundleDir. A missing manifest is an error:
// a bundle without one must not be trusted.
func Load(bundleDir string) (*Manifest, error) {
	path := filepath.Join(bundleDir, FileName)
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no manifest at %s (incomplete or untrusted bundle): %w", path, err)
		}
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
	}
	if m.APIVersion != APIVersion {
		return nil, fmt.Errorf("unsupported manifest api_version %q (want %q)", m.APIVersion, APIVersion)
	}
	return &m, nil
}

// Save writes the manifest into bundleDir.
func Save(bundleDir string, m *Manifest) error {
	path := filepath.Join(bundleDir, FileName)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	if err := toml.NewEncoder(file).Encode(m); err != nil {
		return fmt.Errorf("failed to encode manifest %s: %w", path, err)
	}
	return nil
}

// Append adds one artifact record.
func (m *Manifest) Append(group, pkg, version, checksum, file string) {
	m.Artifacts = append(m.Artifacts, Record{
		Group:    group,
		Package:  pkg,
		Version:  version,
		Checksum: checksum,
		File:     file,
	})
}
