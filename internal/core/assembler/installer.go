package assembler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pagdeploy/pagbundle/internal/core/bundlecfg"
)

// InstallerName is the entry-point script's fixed name inside the bundle; the
// controller-side installer locates it at this relative path regardless of
// how the archive was extracted.
const InstallerName = "install-pag-controller.sh"

// writeInstaller generates the controller-side install script: each group is
// dpkg-installed in config order, falling back to apt's fix-broken path when
// dpkg cannot settle dependency order on its own.
func writeInstaller(workdir string, groups []bundlecfg.Group) error {
	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	b.WriteString("set -o errexit\n")
	for _, g := range groups {
		b.WriteString("\n")
		fmt.Fprintf(&b, "echo 'Installing %s...'\n", g.Name)
		fmt.Fprintf(&b, "pushd %s\n", g.Dir)
		b.WriteString("sudo dpkg --install ./*.deb || sudo apt install --yes --fix-broken --allow-downgrades ./*.deb\n")
		b.WriteString("popd\n")
	}
	b.WriteString("\necho 'Done - software bundle installed'\n")

	path := filepath.Join(workdir, InstallerName)
	if err := os.WriteFile(path, []byte(b.String()), 0755); err != nil {
		return fmt.Errorf("failed to write installer script: %w", err)
	}
	return nil
}
