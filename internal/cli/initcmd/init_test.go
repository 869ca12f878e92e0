package initcmd_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/pagdeploy/pagbundle/internal/cli/initcmd"
	"github.com/pagdeploy/pagbundle/internal/core/bundlecfg"
)

func runInit(t *testing.T, dir string, args ...string) error {
	t.Helper()

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { require.NoError(t, os.Chdir(originalWD)) }()

	app := &cli.App{
		Commands:       []*cli.Command{initcmd.GetInitCommand()},
		ExitErrHandler: func(context *cli.Context, err error) {},
	}
	fullArgs := append([]string{"pagbundle", "init"}, args...)
	return app.Run(fullArgs)
}

func TestInitCommand_WritesDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(t, dir))

	cfg, err := bundlecfg.Load(dir)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "pag-software-bundle", cfg.Bundle.Name)
	assert.Len(t, cfg.Groups, 4)
}

func TestInitCommand_FlagsOverrideDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(t, dir,
		"--index-url", "http://mirror.internal/pag",
		"--release", "jammy",
		"--arch", "arm64",
	))

	cfg, err := bundlecfg.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://mirror.internal/pag", cfg.Index.URL)
	assert.Equal(t, "jammy", cfg.Bundle.TargetRelease)
	assert.Equal(t, "arm64", cfg.Index.Architecture)
}

func TestInitCommand_RefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(t, dir))

	err := runInit(t, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, runInit(t, dir, "--force"))
}
