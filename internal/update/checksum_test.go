package update

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedDigest(t *testing.T) {
	const (
		linux   = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
		windows = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	)

	tests := []struct {
		name     string
		manifest string
		filename string
		want     string
		wantKind Kind
	}{
		{
			name:     "two spaces",
			manifest: linux + "  yt-dlp\n" + windows + "  yt-dlp.exe\n",
			filename: "yt-dlp",
			want:     linux,
		},
		{
			name:     "windows entry",
			manifest: linux + "  yt-dlp\n" + windows + "  yt-dlp.exe\n",
			filename: "yt-dlp.exe",
			want:     windows,
		},
		{
			name:     "binary marker",
			manifest: linux + " *yt-dlp\n",
			filename: "yt-dlp",
			want:     linux,
		},
		{
			name:     "path prefix",
			manifest: linux + "  dist/yt-dlp\n",
			filename: "yt-dlp",
			want:     linux,
		},
		{
			name:     "crlf and tab",
			manifest: linux + "\tyt-dlp\r\n",
			filename: "yt-dlp",
			want:     linux,
		},
		{
			name:     "uppercase digest is lowered",
			manifest: "ABCDEF  yt-dlp\n",
			filename: "yt-dlp",
			want:     "abcdef",
		},
		{
			name:     "first match wins",
			manifest: "# comment yt-dlp\n\n" + linux + "  yt-dlp\n" + windows + "  yt-dlp\n",
			filename: "yt-dlp",
			want:     linux,
		},
		{
			name:     "longer name is not a match",
			manifest: linux + "  not-yt-dlp\n",
			filename: "yt-dlp",
			wantKind: KindManifestEntryMissing,
		},
		{
			name:     "prefix of another name is not a match",
			manifest: linux + "  yt-dlp_linux\n",
			filename: "yt-dlp",
			wantKind: KindManifestEntryMissing,
		},
		{
			name:     "bare filename",
			manifest: "yt-dlp\n",
			filename: "yt-dlp",
			wantKind: KindManifestEntryMissing,
		},
		{
			name:     "empty manifest",
			manifest: "",
			filename: "yt-dlp",
			wantKind: KindManifestEntryMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpectedDigest(tt.manifest, tt.filename)
			if tt.wantKind != KindUnknown {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDigestOf(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	got, err := DigestOf(path)
	require.NoError(t, err)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", got)

	_, err = DigestOf(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrFilesystem)
}

func TestVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yt-dlp")
	content := []byte("hello sidecar")
	require.NoError(t, os.WriteFile(path, content, 0644))
	digest := sha256Hex(content)

	got, ok, err := Verify(path, digest)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, digest, got)

	got, ok, err = Verify(path, sha256Hex([]byte("something else")))
	require.NoError(t, err)
	assert.False(t, ok, "a mismatch is not an error")
	assert.Equal(t, digest, got, "the computed digest is reported on mismatch")

	_, _, err = Verify(filepath.Join(t.TempDir(), "missing"), digest)
	assert.ErrorIs(t, err, ErrFilesystem)
}
