// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

package orchestrate

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/awnumar/memguard"

	"github.com/gitzipqr/gitzipqr/archive"
	"github.com/gitzipqr/gitzipqr/chunk"
	"github.com/gitzipqr/gitzipqr/crypto/aead"
	"github.com/gitzipqr/gitzipqr/crypto/hashutil"
	"github.com/gitzipqr/gitzipqr/crypto/kdf"
	"github.com/gitzipqr/gitzipqr/internal/config"
	"github.com/gitzipqr/gitzipqr/internal/pipelineerr"
	"github.com/gitzipqr/gitzipqr/internal/stepresult"
	"github.com/gitzipqr/gitzipqr/log"
	"github.com/gitzipqr/gitzipqr/qr"
)

// EncodeOptions carries everything one encode run needs, gathered by the
// front-end before the Orchestrator is invoked (password prompting and
// argument parsing themselves are out of scope per the spec's Non-goals).
type EncodeOptions struct {
	InputPath string
	OutputDir string
	Passwords [][]byte
	Config    config.Config
}

// EncodeSummary reports the outcome of a successful encode run.
type EncodeSummary struct {
	FileID     string
	ChunkCount int
	ChunkSize  int
	OutputDir  string
}

// StepFunc is invoked once per pipeline step, in order, whether it succeeded
// or failed.
type StepFunc func(stepresult.Result)

// Encode drives the seven-step encode pipeline: (1) gather password,
// (2) prepare data, (3) encrypt, (4) calibrate capacity, (5) chunk and
// enqueue jobs, (6) render in parallel, (7) summary. It stops at the first
// failing step.
func Encode(ctx context.Context, opts EncodeOptions, onStep StepFunc) (EncodeSummary, error) {
	report := func(n int, label string, err error) stepresult.Result {
		var r stepresult.Result
		if err != nil {
			r = stepresult.Fail(n, label, err)
		} else {
			r = stepresult.Succeed(n, label)
		}
		if onStep != nil {
			onStep(r)
		}
		return r
	}

	// cancelledBefore reports ctx's cancellation as the failure of the
	// upcoming step n/label, so a run stopped between steps still emits a
	// STEP line explaining why it went no further.
	cancelledBefore := func(n int, label string) error {
		if err := ctx.Err(); err != nil {
			report(n, label, err)
			return err
		}
		return nil
	}

	// Step 1: gather password.
	if err := validatePasswords(opts.Passwords); err != nil {
		report(1, "gather password", err)
		return EncodeSummary{}, err
	}
	report(1, "gather password", nil)

	if err := cancelledBefore(2, "prepare data"); err != nil {
		return EncodeSummary{}, err
	}

	workDir, err := os.MkdirTemp("", newSessionDir())
	if err != nil {
		err = fmt.Errorf("orchestrate: unable to create working directory: %w", err)
		report(2, "prepare data", err)
		return EncodeSummary{}, err
	}
	defer os.RemoveAll(workDir)

	// Step 2: prepare data (archive if directory, copy if file).
	plainPath, name, ext, err := prepareSource(opts.InputPath, workDir)
	if err != nil {
		report(2, "prepare data", err)
		return EncodeSummary{}, err
	}
	report(2, "prepare data", nil)

	if err := cancelledBefore(3, "encrypt"); err != nil {
		return EncodeSummary{}, err
	}

	// Step 3: encrypt.
	salt, err := newSalt()
	if err != nil {
		report(3, "encrypt", err)
		return EncodeSummary{}, err
	}
	nonce, err := aead.NewNonce()
	if err != nil {
		report(3, "encrypt", err)
		return EncodeSummary{}, err
	}

	params := opts.Config.KDFParams()
	key, err := kdf.Derive(opts.Passwords, salt, params)
	if err != nil {
		report(3, "encrypt", err)
		return EncodeSummary{}, err
	}
	lockedKey := memguard.NewBufferFromBytes(key)
	defer lockedKey.Destroy()

	framePath := filepath.Join(workDir, "ciphertext.frame")
	if err := sealFrame(plainPath, framePath, lockedKey.Bytes(), nonce); err != nil {
		report(3, "encrypt", err)
		return EncodeSummary{}, err
	}

	frameFile, err := os.Open(framePath)
	if err != nil {
		err = fmt.Errorf("orchestrate: unable to reopen ciphertext frame: %w", err)
		report(3, "encrypt", err)
		return EncodeSummary{}, err
	}
	defer frameFile.Close()

	frameInfo, err := frameFile.Stat()
	if err != nil {
		err = fmt.Errorf("orchestrate: unable to stat ciphertext frame: %w", err)
		report(3, "encrypt", err)
		return EncodeSummary{}, err
	}

	cipherFingerprint, err := hashutil.SHA256Hex(io.NewSectionReader(frameFile, 0, frameInfo.Size()))
	if err != nil {
		report(3, "encrypt", err)
		return EncodeSummary{}, err
	}
	report(3, "encrypt", nil)

	if err := cancelledBefore(4, "calibrate capacity"); err != nil {
		return EncodeSummary{}, err
	}

	// Step 4: calibrate capacity.
	level := opts.Config.ECL()
	chunkSize, err := qr.Calibrate(level, opts.Config.ChunkSize)
	if err != nil {
		report(4, "calibrate capacity", err)
		return EncodeSummary{}, err
	}
	if opts.Config.ChunkSize > 0 && !chunkFits(opts.Config.ChunkSize, level) {
		err := fmt.Errorf("%w: configured size %d", pipelineerr.ErrCapacityExceeded, opts.Config.ChunkSize)
		report(4, "calibrate capacity", err)
		return EncodeSummary{}, err
	}
	report(4, "calibrate capacity", nil)

	if err := cancelledBefore(5, "chunk and enqueue jobs"); err != nil {
		return EncodeSummary{}, err
	}

	// Step 5: chunk and enqueue jobs.
	chunker, err := chunk.New(frameFile, frameInfo.Size(), chunkSize)
	if err != nil {
		report(5, "chunk and enqueue jobs", err)
		return EncodeSummary{}, err
	}

	id := fileID(name, cipherFingerprint)
	total := chunker.Total()

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		err = fmt.Errorf("orchestrate: unable to create output directory %q: %w", opts.OutputDir, err)
		report(5, "chunk and enqueue jobs", err)
		return EncodeSummary{}, err
	}

	var jobs []qr.EncodeJob
	if err := chunker.Each(func(piece chunk.Piece) error {
		payload := chunk.Payload{
			Type:       chunk.PayloadType,
			Version:    chunk.PayloadVersion,
			FileID:     id,
			Name:       name,
			Ext:        ext,
			Chunk:      piece.Index,
			Total:      total,
			Hash:       piece.Hash,
			CipherHash: cipherFingerprint,
			DataB64:    base64Encode(piece.Raw),
			KDFParams:  params,
			SaltB64:    base64Encode(salt),
			NonceB64:   base64Encode(nonce),
			ChunkSize:  chunkSize,
		}

		raw, err := payload.Encode()
		if err != nil {
			return err
		}

		jobs = append(jobs, qr.EncodeJob{
			Index:   piece.Index,
			OutPath: filepath.Join(opts.OutputDir, qr.OutputName(piece.Index)),
			Text:    string(raw),
		})

		return nil
	}); err != nil {
		report(5, "chunk and enqueue jobs", err)
		return EncodeSummary{}, err
	}
	report(5, "chunk and enqueue jobs", nil)

	if err := cancelledBefore(6, "render in parallel"); err != nil {
		return EncodeSummary{}, err
	}

	// Step 6: render in parallel.
	encOpts := qr.EncodeOptions{
		Level:   level,
		Margin:  opts.Config.QRMargin,
		Workers: opts.Config.QRWorkers,
	}
	if _, err := qr.EncodeAll(ctx, jobs, encOpts, func(completed, total int) {
		log.Field("completed", completed).Field("total", total).Message("qr render progress")
	}); err != nil {
		report(6, "render in parallel", err)
		return EncodeSummary{}, err
	}
	report(6, "render in parallel", nil)

	if err := cancelledBefore(7, "summary"); err != nil {
		return EncodeSummary{}, err
	}

	// Step 7: summary.
	summary := EncodeSummary{
		FileID:     id,
		ChunkCount: total,
		ChunkSize:  chunkSize,
		OutputDir:  opts.OutputDir,
	}
	report(7, "summary", nil)

	return summary, nil
}

func validatePasswords(passwords [][]byte) error {
	if len(passwords) == 0 {
		return fmt.Errorf("orchestrate: at least one password is required")
	}
	for _, p := range passwords {
		if len(p) < minPasswordLength {
			return fmt.Errorf("orchestrate: password must be at least %d bytes", minPasswordLength)
		}
	}

	return nil
}

// prepareSource normalizes the encode input into a single plaintext file
// inside workDir, returning its path plus the (name, ext) pair the spec
// requires: for a directory, name is the basename and ext is archive.Ext;
// for a regular file, name/ext come from the filename.
func prepareSource(inputPath, workDir string) (plainPath, name, ext string, err error) {
	fi, err := os.Stat(inputPath)
	if err != nil {
		return "", "", "", fmt.Errorf("orchestrate: unable to stat input %q: %w", inputPath, err)
	}

	plainPath = filepath.Join(workDir, "plaintext")

	if fi.IsDir() {
		name, ext = archive.NameFor(inputPath)
		if err := archive.Directory(inputPath, plainPath); err != nil {
			return "", "", "", err
		}
		return plainPath, name, ext, nil
	}

	base := filepath.Base(inputPath)
	ext = filepath.Ext(base)
	name = strings.TrimSuffix(base, ext)

	if err := copyFile(inputPath, plainPath); err != nil {
		return "", "", "", err
	}

	return plainPath, name, ext, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("orchestrate: unable to open source file %q: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("orchestrate: unable to create staging file %q: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("orchestrate: unable to copy source file: %w", err)
	}

	return out.Sync()
}

func sealFrame(plainPath, framePath string, key, nonce []byte) error {
	plain, err := os.Open(plainPath)
	if err != nil {
		return fmt.Errorf("orchestrate: unable to open plaintext: %w", err)
	}
	defer plain.Close()

	out, err := os.Create(framePath)
	if err != nil {
		return fmt.Errorf("orchestrate: unable to create ciphertext frame: %w", err)
	}
	defer out.Close()

	if err := aead.Seal(out, plain, key, nonce); err != nil {
		return err
	}

	return out.Sync()
}

func chunkFits(size int, level qr.ECL) bool {
	return qr.FitsChunkSize(size, level)
}

func base64Encode(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}
