// Package bundlecfg loads and writes pagbundle.toml, the static description
// of what one bundle build produces: the index to resolve against, the
// environment archive to pack, and the ordered package groups.
package bundlecfg

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ConfigName is the file name looked up in the working directory.
const ConfigName = "pagbundle.toml"

// Config is the top-level structure of pagbundle.toml.
type Config struct {
	Bundle      Bundle      `toml:"bundle"`
	Index       Index       `toml:"index"`
	Environment Environment `toml:"environment"`
	Groups      []Group     `toml:"group"`
}

// Bundle names the deliverable and pins the target OS release.
type Bundle struct {
	Name          string `toml:"name"`
	TargetRelease string `toml:"target_release"`
}

// Index locates the package index the build resolves against.
type Index struct {
	URL          string `toml:"url"`
	Architecture string `toml:"architecture"`
	Retries      int    `toml:"retries,omitempty"`
}

// Environment describes the external environment-packing step.
type Environment struct {
	Spec    string `toml:"spec"`
	Archive string `toml:"archive"`
	Packer  string `toml:"packer"`
}

// Group is one named, independently installable package set. Groups are
// defined once, statically, before a run; order here is resolution and
// manifest order.
type Group struct {
	Name     string   `toml:"name"`
	Dir      string   `toml:"dir"`
	Packages []string `toml:"packages"`
}

// Default returns the stock controller-bundle configuration.
func Default() *Config {
	return &Config{
		Bundle: Bundle{
			Name:          "pag-software-bundle",
			TargetRelease: "noble",
		},
		Index: Index{
			URL:          "https://packages.example.internal/pag",
			Architecture: "amd64",
			Retries:      4,
		},
		Environment: Environment{
			Spec:    "pixi.toml",
			Archive: "prefect-base.tar",
			Packer:  "pixi-pack",
		},
		Groups: []Group{
			{Name: "database-server", Dir: "offline-packages/database-server", Packages: []string{"postgresql-17"}},
			{Name: "web-proxy", Dir: "offline-packages/web-proxy", Packages: []string{"caddy"}},
			{Name: "file-sync", Dir: "offline-packages/file-sync", Packages: []string{"rsync"}},
			{Name: "permissions", Dir: "offline-packages/permissions", Packages: []string{"acl"}},
		},
	}
}

// Load reads pagbundle.toml from dirPath and unmarshals it.
func Load(dirPath string) (*Config, error) {
	fullPath := filepath.Join(dirPath, ConfigName)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", fullPath, err)
	}
	return &cfg, nil
}

// Write marshals cfg and writes it to dirPath, overwriting an existing file.
func Write(dirPath string, cfg *Config) error {
	fullPath := filepath.Join(dirPath, ConfigName)
	file, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode %s: %w", fullPath, err)
	}
	return nil
}

// Validate checks the structural invariants a build relies on.
func (c *Config) Validate() error {
	if c.Bundle.Name == "" {
		return fmt.Errorf("bundle.name must not be empty")
	}
	if c.Bundle.TargetRelease == "" {
		return fmt.Errorf("bundle.target_release must not be empty")
	}
	if c.Index.URL == "" {
		return fmt.Errorf("index.url must not be empty")
	}
	if c.Index.Architecture == "" {
		return fmt.Errorf("index.architecture must not be empty")
	}
	if len(c.Groups) == 0 {
		return fmt.Errorf("at least one [[group]] must be defined")
	}
	seenNames := make(map[string]bool)
	seenDirs := make(map[string]bool)
	for _, g := range c.Groups {
		if g.Name == "" {
			return fmt.Errorf("group with empty name")
		}
		if g.Dir == "" {
			return fmt.Errorf("group %q has no dir", g.Name)
		}
		if filepath.IsAbs(g.Dir) {
			return fmt.Errorf("group %q dir must be relative, got %q", g.Name, g.Dir)
		}
		if len(g.Packages) == 0 {
			return fmt.Errorf("group %q has no seed packages", g.Name)
		}
		if seenNames[g.Name] {
			return fmt.Errorf("duplicate group name %q", g.Name)
		}
		if seenDirs[g.Dir] {
			return fmt.Errorf("duplicate group dir %q", g.Dir)
		}
		seenNames[g.Name] = true
		seenDirs[g.Dir] = true
	}
	return nil
}
