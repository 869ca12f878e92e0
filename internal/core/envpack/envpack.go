// Package envpack wraps the external environment-packing tool that turns a
// language-environment specification into one self-contained archive. The
// tool is a black box to the rest of the build: only the existence and
// non-emptiness of its output are validated before bundling.
package envpack

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Packer produces one portable environment archive from a spec file.
// ExecPacker is the production implementation; tests substitute fakes.
type Packer interface {
	ProduceArchive(ctx context.Context, specPath, outPath string) error
}

// ExecPacker shells out to an environment-packing tool, invoked as
// `<tool> <spec> --output-file <out>` (the pixi-pack convention).
type ExecPacker struct {
	Tool string
}

// ProduceArchive runs the tool and validates its output.
func (p *ExecPacker) ProduceArchive(ctx context.Context, specPath, outPath string) error {
	if _, err := os.Stat(specPath); err != nil {
		return fmt.Errorf("environment spec %s not readable: %w", specPath, err)
	}

	cmd := exec.CommandContext(ctx, p.Tool, specPath, "--output-file", outPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w (stderr: %s)", p.Tool, err, stderr.String())
	}
	return ValidateArchive(outPath)
}

// ValidateArchive confirms the packer's output exists and is non-empty.
func ValidateArchive(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("environment archive %s missing: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("environment archive %s is a directory", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("environment archive %s is empty", path)
	}
	return nil
}
