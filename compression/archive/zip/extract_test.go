// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

package zip

import (
	"bytes"
	"crypto"
	"encoding/hex"
	"io/fs"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gitzipqr/gitzipqr/crypto/hashutil"
	"github.com/gitzipqr/gitzipqr/vfs"
)

// buildFixtureArchive creates an in-memory ZIP archive with a single
// "test.txt" entry so extraction tests don't depend on on-disk fixtures.
func buildFixtureArchive(t *testing.T, content string) []byte {
	t.Helper()

	root := fstest.MapFS{
		"test.txt": &fstest.MapFile{
			ModTime: time.Now(),
			Data:    []byte(content),
		},
	}

	var out bytes.Buffer
	require.NoError(t, Create(root, &out, WithHeaderRewritterFunc(ResetHeaderTimes())))

	return out.Bytes()
}

func TestExtract_Golden(t *testing.T) {
	t.Parallel()

	t.Run("corrupted archive is rejected", func(t *testing.T) {
		t.Parallel()

		bad := []byte("not a zip file at all")
		err := Extract(bytes.NewReader(bad), uint64(len(bad)), t.TempDir())
		require.Error(t, err)
	})

	t.Run("well formed archive extracts cleanly", func(t *testing.T) {
		t.Parallel()

		zipFile := buildFixtureArchive(t, "hello world")
		err := Extract(bytes.NewReader(zipFile), uint64(len(zipFile)), t.TempDir())
		require.NoError(t, err)
	})
}

func TestExtract_WithOverwrite(t *testing.T) {
	t.Parallel()
	zipFile := buildFixtureArchive(t, "hello world")

	tmpDir := t.TempDir()
	tmpFS, err := vfs.Chroot(tmpDir)
	require.NoError(t, err)

	require.NoError(t, Extract(bytes.NewReader(zipFile), uint64(len(zipFile)), tmpDir))
	fh, err := hashutil.FileHash(tmpFS, "test.txt", crypto.SHA256)
	require.NoError(t, err)
	require.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", hex.EncodeToString(fh))

	// Alter the extracted content.
	require.NoError(t, tmpFS.WriteFile("test.txt", []byte("this is a new content"), fs.ModePerm))

	fh, err = hashutil.FileHash(tmpFS, "test.txt", crypto.SHA256)
	require.NoError(t, err)
	require.NotEqual(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", hex.EncodeToString(fh))

	// Re-extract with an overwrite filter that always replaces.
	require.NoError(t, Extract(bytes.NewReader(zipFile), uint64(len(zipFile)), tmpDir, WithOverwriteFilter(
		func(path string, fi fs.FileInfo) bool { return true },
	)))
	fh, err = hashutil.FileHash(tmpFS, "test.txt", crypto.SHA256)
	require.NoError(t, err)
	require.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", hex.EncodeToString(fh))
}

func TestExtract_WithoutOverwrite(t *testing.T) {
	t.Parallel()
	zipFile := buildFixtureArchive(t, "hello world")

	tmpDir := t.TempDir()
	tmpFS, err := vfs.Chroot(tmpDir)
	require.NoError(t, err)

	require.NoError(t, Extract(bytes.NewReader(zipFile), uint64(len(zipFile)), tmpDir))

	// Alter the extracted content.
	require.NoError(t, tmpFS.WriteFile("test.txt", []byte("this is a new content"), fs.ModePerm))
	fh, err := hashutil.FileHash(tmpFS, "test.txt", crypto.SHA256)
	require.NoError(t, err)
	alteredHash := hex.EncodeToString(fh)

	// Re-extract with an overwrite filter that never matches "test.txt".
	require.NoError(t, Extract(bytes.NewReader(zipFile), uint64(len(zipFile)), tmpDir, WithOverwriteFilter(
		func(path string, fi fs.FileInfo) bool { return false },
	)))
	fh, err = hashutil.FileHash(tmpFS, "test.txt", crypto.SHA256)
	require.NoError(t, err)
	require.Equal(t, alteredHash, hex.EncodeToString(fh))
}
