// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

package orchestrate_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitzipqr/gitzipqr/internal/config"
	"github.com/gitzipqr/gitzipqr/internal/stepresult"
	"github.com/gitzipqr/gitzipqr/orchestrate"
)

func fastConfig() config.Config {
	cfg, _ := config.Load(func(string) (string, bool) { return "", false })
	// Small scrypt cost so the round-trip test does not spend seconds of
	// CPU deriving keys at the production default.
	cfg.ScryptN = 1 << 10
	cfg.ScryptR = 8
	cfg.ScryptP = 1
	return cfg
}

func TestEncodeDecode_RoundTripFile(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "notes.txt")
	content := []byte("these are my backup notes, kept safe across QR symbols")
	require.NoError(t, os.WriteFile(src, content, 0o600))

	qrDir := filepath.Join(t.TempDir(), "qrcodes")
	outDir := filepath.Join(t.TempDir(), "decoded")

	var steps []stepresult.Result
	onStep := func(r stepresult.Result) { steps = append(steps, r) }

	encSummary, err := orchestrate.Encode(context.Background(), orchestrate.EncodeOptions{
		InputPath: src,
		OutputDir: qrDir,
		Passwords: [][]byte{[]byte("correct horse battery staple")},
		Config:    fastConfig(),
	}, onStep)
	require.NoError(t, err)
	require.Equal(t, 7, len(steps))
	require.Greater(t, encSummary.ChunkCount, 0)

	steps = nil
	decSummary, err := orchestrate.Decode(context.Background(), orchestrate.DecodeOptions{
		InputPath: qrDir,
		OutputDir: outDir,
		Passwords: [][]byte{[]byte("correct horse battery staple")},
	}, onStep)
	require.NoError(t, err)
	require.Equal(t, 4, len(steps))

	got, err := os.ReadFile(decSummary.OutputPath)
	require.NoError(t, err)
	require.Equal(t, content, got)
	require.Equal(t, "notes.txt", filepath.Base(decSummary.OutputPath))
}

func TestDecode_WrongPasswordFails(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(src, []byte("top secret payload"), 0o600))

	qrDir := filepath.Join(t.TempDir(), "qrcodes")
	_, err := orchestrate.Encode(context.Background(), orchestrate.EncodeOptions{
		InputPath: src,
		OutputDir: qrDir,
		Passwords: [][]byte{[]byte("the-right-password")},
		Config:    fastConfig(),
	}, nil)
	require.NoError(t, err)

	_, err = orchestrate.Decode(context.Background(), orchestrate.DecodeOptions{
		InputPath: qrDir,
		OutputDir: filepath.Join(t.TempDir(), "decoded"),
		Passwords: [][]byte{[]byte("the-wrong-password")},
	}, nil)
	require.Error(t, err)
}

func TestEncode_RejectsShortPassword(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))

	_, err := orchestrate.Encode(context.Background(), orchestrate.EncodeOptions{
		InputPath: src,
		OutputDir: filepath.Join(t.TempDir(), "qrcodes"),
		Passwords: [][]byte{[]byte("short")},
		Config:    fastConfig(),
	}, nil)
	require.Error(t, err)
}
