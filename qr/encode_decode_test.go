// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

package qr_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitzipqr/gitzipqr/chunk"
	"github.com/gitzipqr/gitzipqr/crypto/kdf"
	"github.com/gitzipqr/gitzipqr/qr"
)

func TestEncodeAll_DecodeAll_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	payloads := []chunk.Payload{
		{
			Type: chunk.PayloadType, Version: chunk.PayloadVersion,
			FileID: "abcdef0123456789", Name: "photos", Ext: ".zip",
			Chunk: 0, Total: 2, Hash: "h0", CipherHash: "ch",
			DataB64: "AAAA", KDFParams: kdf.Default(),
			SaltB64: "c2FsdA==", NonceB64: "bm9uY2U=", ChunkSize: 64,
		},
		{
			Type: chunk.PayloadType, Version: chunk.PayloadVersion,
			FileID: "abcdef0123456789", Name: "photos", Ext: ".zip",
			Chunk: 1, Total: 2, Hash: "h1", CipherHash: "ch",
			DataB64: "BBBB", KDFParams: kdf.Default(),
			SaltB64: "c2FsdA==", NonceB64: "bm9uY2U=", ChunkSize: 64,
		},
	}

	var jobs []qr.EncodeJob
	for i, p := range payloads {
		raw, err := p.Encode()
		require.NoError(t, err)
		jobs = append(jobs, qr.EncodeJob{
			Index:   i,
			OutPath: filepath.Join(dir, qr.OutputName(i)),
			Text:    string(raw),
		})
	}

	results, err := qr.EncodeAll(context.Background(), jobs, qr.EncodeOptions{Level: qr.ECLQuartile, Margin: 1}, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	var decodeJobs []qr.DecodeJob
	for _, r := range results {
		decodeJobs = append(decodeJobs, qr.DecodeJob{Path: r.OutPath})
	}

	decoded := qr.DecodeAll(context.Background(), decodeJobs, qr.DecodeOptions{}, nil)
	require.Len(t, decoded, 2)

	seen := map[int]bool{}
	for _, d := range decoded {
		require.True(t, d.OK)
		seen[d.Payload.Chunk] = true
	}
	require.True(t, seen[0])
	require.True(t, seen[1])
}

func TestDecodeAll_NonQRImageIsDroppedNotFatal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "not-a-qr.png")
	writeBlankPNG(t, path)

	decoded := qr.DecodeAll(context.Background(), []qr.DecodeJob{{Path: path}}, qr.DecodeOptions{}, nil)
	require.Len(t, decoded, 1)
	require.False(t, decoded[0].OK)
}

func TestEncodeAll_CancelledContextFailsRemainingJobs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := chunk.Payload{
		Type: chunk.PayloadType, Version: chunk.PayloadVersion,
		FileID: "abcdef0123456789", Name: "photos", Ext: ".zip",
		Chunk: 0, Total: 1, Hash: "h0", CipherHash: "ch",
		DataB64: "AAAA", KDFParams: kdf.Default(),
		SaltB64: "c2FsdA==", NonceB64: "bm9uY2U=", ChunkSize: 64,
	}
	raw, err := p.Encode()
	require.NoError(t, err)

	jobs := []qr.EncodeJob{{Index: 0, OutPath: filepath.Join(dir, qr.OutputName(0)), Text: string(raw)}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = qr.EncodeAll(ctx, jobs, qr.EncodeOptions{Level: qr.ECLQuartile, Workers: 1}, nil)
	require.Error(t, err)
}

func TestDecodeAll_CancelledContextDropsRemainingJobs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "blank.png")
	writeBlankPNG(t, path)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	decoded := qr.DecodeAll(ctx, []qr.DecodeJob{{Path: path}}, qr.DecodeOptions{Workers: 1}, nil)
	require.Len(t, decoded, 1)
	require.False(t, decoded[0].OK)
}

func TestOutputName_ZeroPadded(t *testing.T) {
	t.Parallel()

	require.Equal(t, "qr-000000.png", qr.OutputName(0))
	require.Equal(t, "qr-000042.png", qr.OutputName(42))
}
