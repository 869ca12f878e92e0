package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagdeploy/pagbundle/internal/core/manifest"
)

func TestSaveThenLoad_RoundTripsInOrder(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	m := manifest.New("pag-software-bundle", "noble")
	m.Append("web-proxy", "caddy", "2.8.4-1", "sha256:aaaa", "offline-packages/web-proxy/caddy_2.8.4-1_amd64.deb")
	m.Append("web-proxy", "tls-lib", "3.0.13-1", "sha256:bbbb", "offline-packages/web-proxy/tls-lib_3.0.13-1_amd64.deb")
	m.Append("file-sync", "rsync", "3.2.7-1", "sha256:cccc", "offline-packages/file-sync/rsync_3.2.7-1_amd64.deb")

	require.NoError(t, manifest.Save(dir, m))

	loaded, err := manifest.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, manifest.APIVersion, loaded.APIVersion)
	assert.Equal(t, "pag-software-bundle", loaded.Name)
	assert.Equal(t, "noble", loaded.TargetRelease)
	assert.NotEmpty(t, loaded.BuiltAt)
	require.Len(t, loaded.Artifacts, 3)
	assert.Equal(t, m.Artifacts, loaded.Artifacts, "record order must survive the round trip")
}

func TestLoad_MissingManifest(t *testing.T) {
	t.Parallel()
	_, err := manifest.Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no manifest")
}

func TestLoad_UnsupportedAPIVersion(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	content := "api_version = \"99\"\nname = \"x\"\nbuilt_at = \"2026-01-01T00:00:00Z\"\ntarget_release = \"noble\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.FileName), []byte(content), 0644))

	_, err := manifest.Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported manifest api_version")
}
