package verify_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/pagdeploy/pagbundle/internal/cli/verify"
	"github.com/pagdeploy/pagbundle/internal/core/hasher"
	"github.com/pagdeploy/pagbundle/internal/core/manifest"
)

// writeBundleDir lays out an extracted bundle: group artifacts plus a
// manifest that lists them.
func writeBundleDir(t *testing.T, artifacts map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()
	m := manifest.New("pag-software-bundle", "noble")

	for file, content := range artifacts {
		path := filepath.Join(dir, filepath.FromSlash(file))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, content, 0644))
		checksum, err := hasher.CalculateSHA256(content)
		require.NoError(t, err)
		m.Append("web-proxy", filepath.Base(file), "1.0-1", checksum, file)
	}
	require.NoError(t, manifest.Save(dir, m))
	return dir
}

func runVerify(t *testing.T, args ...string) (string, error) {
	t.Helper()

	originalStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = originalStdout }()

	t.Setenv("NO_COLOR", "1")

	app := &cli.App{
		Commands: []*cli.Command{verify.NewVerifyCommand()},
		ExitErrHandler: func(context *cli.Context, err error) {
			if err != nil {
				fmt.Fprintf(os.Stderr, "Note: cli.ExitErrHandler caught error (expected for tests): %v\n", err)
			}
		},
	}
	fullArgs := append([]string{"pagbundle", "verify"}, args...)
	cmdErr := app.Run(fullArgs)

	require.NoError(t, w.Close())
	var out bytes.Buffer
	_, readErr := out.ReadFrom(r)
	require.NoError(t, readErr)
	return out.String(), cmdErr
}

func TestVerifyCommand_CleanBundlePasses(t *testing.T) {
	dir := writeBundleDir(t, map[string][]byte{
		"offline-packages/web-proxy/caddy_1.0-1_amd64.deb":   []byte("proxy artifact"),
		"offline-packages/web-proxy/tls-lib_1.0-1_amd64.deb": []byte("tls artifact"),
	})

	output, err := runVerify(t, dir)
	require.NoError(t, err)
	assert.Contains(t, output, "all 2 artifacts verified")
}

func TestVerifyCommand_TamperedArtifactFails(t *testing.T) {
	dir := writeBundleDir(t, map[string][]byte{
		"offline-packages/web-proxy/caddy_1.0-1_amd64.deb": []byte("proxy artifact"),
	})
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "offline-packages/web-proxy/caddy_1.0-1_amd64.deb"),
		[]byte("tampered"), 0644))

	output, err := runVerify(t, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be deployed")
	assert.Contains(t, output, "checksum mismatch")
}

func TestVerifyCommand_MissingArtifactFails(t *testing.T) {
	dir := writeBundleDir(t, map[string][]byte{
		"offline-packages/web-proxy/caddy_1.0-1_amd64.deb": []byte("proxy artifact"),
	})
	require.NoError(t, os.Remove(filepath.Join(dir, "offline-packages/web-proxy/caddy_1.0-1_amd64.deb")))

	output, err := runVerify(t, dir)
	require.Error(t, err)
	assert.Contains(t, output, "file missing")
}

func TestVerifyCommand_OrphanArtifactFails(t *testing.T) {
	dir := writeBundleDir(t, map[string][]byte{
		"offline-packages/web-proxy/caddy_1.0-1_amd64.deb": []byte("proxy artifact"),
	})
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "offline-packages/web-proxy/sneaky_9.9-9_amd64.deb"),
		[]byte("unlisted"), 0644))

	output, err := runVerify(t, dir)
	require.Error(t, err)
	assert.Contains(t, output, "orphan artifact not in manifest: offline-packages/web-proxy/sneaky_9.9-9_amd64.deb")
}

func TestVerifyCommand_NoManifestIsUntrusted(t *testing.T) {
	_, err := runVerify(t, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be trusted")
}
