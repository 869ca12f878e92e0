package aptindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStanza_FullEntry(t *testing.T) {
	t.Parallel()
	stanza := []byte(`Package: postgresql-17
Version: 17.2-1.pgdg24.04+1
Depends: postgresql-client-17, libc6 (>= 2.38), libssl3t64 (>= 3.0.0)
Filename: pool/main/p/postgresql-17/postgresql-17_17.2-1_amd64.deb
SHA256: a5f659a3d254d803130bbe6bf55204090796c023f1e8f63886a1d9fa26ec9da8
Size: 16424532
`)

	rec, err := parseStanza(stanza)
	require.NoError(t, err)
	assert.Equal(t, "postgresql-17", rec.Name)
	assert.Equal(t, "17.2-1.pgdg24.04+1", rec.Version)
	assert.Equal(t, []string{"postgresql-client-17", "libc6", "libssl3t64"}, rec.Depends)
	assert.Equal(t, "pool/main/p/postgresql-17/postgresql-17_17.2-1_amd64.deb", rec.Filename)
	assert.Equal(t, "sha256:a5f659a3d254d803130bbe6bf55204090796c023f1e8f63886a1d9fa26ec9da8", rec.Checksum)
	assert.Equal(t, int64(16424532), rec.Size)
}

func TestParseStanza_MissingRequiredFields(t *testing.T) {
	t.Parallel()
	_, err := parseStanza([]byte("Package: rsync\nVersion: 3.2.7-1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required fields")
}

func TestParseStanza_MalformedLine(t *testing.T) {
	t.Parallel()
	_, err := parseStanza([]byte("Package postgresql-17\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed stanza line")
}

func TestParseDepends(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{
			name:  "plain list keeps declared order",
			value: "libacl1, libattr1, libc6",
			want:  []string{"libacl1", "libattr1", "libc6"},
		},
		{
			name:  "version constraints stripped",
			value: "libc6 (>= 2.38), zlib1g (>= 1:1.2.0)",
			want:  []string{"libc6", "zlib1g"},
		},
		{
			name:  "first alternative wins",
			value: "debconf (>= 0.5) | debconf-2.0, ucf",
			want:  []string{"debconf", "ucf"},
		},
		{
			name:  "architecture qualifier normalized",
			value: "python3:any, libpopt0",
			want:  []string{"python3", "libpopt0"},
		},
		{
			name:  "empty field",
			value: "",
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseDepends(tt.value))
		})
	}
}
