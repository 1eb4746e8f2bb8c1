// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

package legacy_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitzipqr/gitzipqr/legacy"
)

func TestIsLegacyDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.False(t, legacy.IsLegacyDirectory(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(`{}`), 0o600))
	require.False(t, legacy.IsLegacyDirectory(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "0.bin.json"), []byte(`{}`), 0o600))
	require.True(t, legacy.IsLegacyDirectory(dir))
}

func TestLoad_CamelCaseManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	manifest := `{"kdfParams":{"N":32768,"r":8,"p":1},"saltB64":"c2FsdA==","nonceB64":"bm9uY2U=","totalChunks":2,"cipherSha256":"cc"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(manifest), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.bin.json"), []byte(`{"data":"QkI=","chunk":1,"total":2,"name":"f","hash":"h1","cipherHash":"cc"}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0.bin.json"), []byte(`{"data":"QUE=","chunk":0,"total":2,"name":"f","hash":"h0","cipherHash":"cc"}`), 0o600))

	payloads, err := legacy.Load(dir)
	require.NoError(t, err)
	require.Len(t, payloads, 2)
	require.Equal(t, 0, payloads[0].Chunk)
	require.Equal(t, 1, payloads[1].Chunk)
	require.Equal(t, "c2FsdA==", payloads[0].SaltB64)
	require.Equal(t, 32768, payloads[0].KDFParams.N)
}

func TestLoad_SnakeCaseManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	manifest := `{"kdf_params":{"N":16384,"r":4,"p":2},"salt_b64":"c2FsdA==","nonce_b64":"bm9uY2U=","total_chunks":1,"cipher_sha256":"dd"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(manifest), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0.bin.json"), []byte(`{"data":"QUE=","chunk":0,"total":1,"name":"f","hash":"h0","cipherHash":"dd"}`), 0o600))

	payloads, err := legacy.Load(dir)
	require.NoError(t, err)
	require.Len(t, payloads, 1)
	require.Equal(t, 16384, payloads[0].KDFParams.N)
	require.Equal(t, "c2FsdA==", payloads[0].SaltB64)
}
