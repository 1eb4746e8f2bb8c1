// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

package orchestrate

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/awnumar/memguard"

	"github.com/gitzipqr/gitzipqr/assemble"
	"github.com/gitzipqr/gitzipqr/chunk"
	"github.com/gitzipqr/gitzipqr/crypto/aead"
	"github.com/gitzipqr/gitzipqr/crypto/kdf"
	"github.com/gitzipqr/gitzipqr/internal/pipelineerr"
	"github.com/gitzipqr/gitzipqr/internal/stepresult"
	"github.com/gitzipqr/gitzipqr/legacy"
	"github.com/gitzipqr/gitzipqr/log"
	"github.com/gitzipqr/gitzipqr/qr"
	"github.com/gitzipqr/gitzipqr/vfs"
)

// DecodeOptions carries everything one decode run needs.
type DecodeOptions struct {
	InputPath string
	OutputDir string
	Passwords [][]byte
	Workers   int
}

// DecodeSummary reports the outcome of a successful decode run.
type DecodeSummary struct {
	OutputPath string
	FileID     string
}

// Decode drives the four-step decode pipeline: (1) collect payloads,
// (2) verify and assemble, (3) decrypt, (4) write output. It stops at the
// first failing step.
func Decode(ctx context.Context, opts DecodeOptions, onStep StepFunc) (DecodeSummary, error) {
	report := func(n int, label string, err error) {
		var r stepresult.Result
		if err != nil {
			r = stepresult.Fail(n, label, err)
		} else {
			r = stepresult.Succeed(n, label)
		}
		if onStep != nil {
			onStep(r)
		}
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

	// Step 1: collect payloads.
	payloads, err := collectPayloads(ctx, opts.InputPath, opts.Workers)
	if err != nil {
		report(1, "collect payloads", err)
		return DecodeSummary{}, err
	}
	if len(payloads) == 0 {
		err := fmt.Errorf("orchestrate: no chunk payloads found in %q", opts.InputPath)
		report(1, "collect payloads", err)
		return DecodeSummary{}, err
	}
	report(1, "collect payloads", nil)

	if err := cancelledBefore(2, "verify and assemble"); err != nil {
		return DecodeSummary{}, err
	}

	// Step 2: verify and assemble.
	asm := assemble.New()
	for _, p := range payloads {
		if err := asm.Accept(p); err != nil {
			wrapped := wrapAssembleError(err)
			report(2, "verify and assemble", wrapped)
			return DecodeSummary{}, wrapped
		}
	}

	frame, err := asm.Frame()
	if err != nil {
		wrapped := wrapAssembleError(err)
		report(2, "verify and assemble", wrapped)
		return DecodeSummary{}, wrapped
	}
	session, _ := asm.Session()
	report(2, "verify and assemble", nil)

	if err := cancelledBefore(3, "decrypt"); err != nil {
		return DecodeSummary{}, err
	}

	// Step 3: decrypt.
	salt, nonce, err := decodeSessionSecrets(session)
	if err != nil {
		report(3, "decrypt", err)
		return DecodeSummary{}, err
	}

	key, err := kdf.Derive(opts.Passwords, salt, session.KDFParams)
	if err != nil {
		report(3, "decrypt", err)
		return DecodeSummary{}, err
	}
	lockedKey := memguard.NewBufferFromBytes(key)
	defer lockedKey.Destroy()

	var plaintext bytes.Buffer
	if err := aead.Open(&plaintext, bytes.NewReader(frame), lockedKey.Bytes(), nonce); err != nil {
		err = fmt.Errorf("%w", pipelineerr.ErrWrongPasswordOrCorrupted)
		report(3, "decrypt", err)
		return DecodeSummary{}, err
	}
	report(3, "decrypt", nil)

	if err := cancelledBefore(4, "write output"); err != nil {
		return DecodeSummary{}, err
	}

	// Step 4: write output.
	ext := session.Ext
	if ext == "" {
		ext = detectExtension(plaintext.Bytes())
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		err = fmt.Errorf("orchestrate: unable to create output directory %q: %w", opts.OutputDir, err)
		report(4, "write output", err)
		return DecodeSummary{}, err
	}

	// session.Name comes from a scanned QR payload, not a trusted local
	// path; chroot the write so a crafted "../../etc/passwd" name can
	// only ever land inside OutputDir.
	outFS, err := vfs.Chroot(opts.OutputDir)
	if err != nil {
		err = fmt.Errorf("orchestrate: unable to constrain output directory %q: %w", opts.OutputDir, err)
		report(4, "write output", err)
		return DecodeSummary{}, err
	}

	outName := session.Name + ext
	if err := outFS.WriteFile(outName, plaintext.Bytes(), 0o600); err != nil {
		err = fmt.Errorf("orchestrate: unable to write output %q: %w", outName, err)
		report(4, "write output", err)
		return DecodeSummary{}, err
	}
	outPath := filepath.Join(opts.OutputDir, outName)
	report(4, "write output", nil)

	return DecodeSummary{OutputPath: outPath, FileID: session.FileID}, nil
}

// collectPayloads resolves inputPath into a flat list of ChunkPayloads,
// supporting both the canonical PNG/JPEG symbol directory and the legacy
// *.bin.json fragment directory, per the spec's legacy acceptance format.
func collectPayloads(ctx context.Context, inputPath string, workers int) ([]chunk.Payload, error) {
	fi, err := os.Stat(inputPath)
	if err != nil {
		return nil, fmt.Errorf("orchestrate: unable to stat input %q: %w", inputPath, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("orchestrate: decode input %q must be a directory", inputPath)
	}

	if legacy.IsLegacyDirectory(inputPath) {
		return legacy.Load(inputPath)
	}

	entries, err := os.ReadDir(inputPath)
	if err != nil {
		return nil, fmt.Errorf("orchestrate: unable to list directory %q: %w", inputPath, err)
	}

	var jobs []qr.DecodeJob
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		lower := strings.ToLower(e.Name())
		if strings.HasSuffix(lower, ".png") || strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg") {
			jobs = append(jobs, qr.DecodeJob{Path: filepath.Join(inputPath, e.Name())})
		}
	}

	results := qr.DecodeAll(ctx, jobs, qr.DecodeOptions{Workers: workers}, func(completed, total int) {
		log.Field("completed", completed).Field("total", total).Message("qr decode progress")
	})

	var payloads []chunk.Payload
	for _, r := range results {
		if !r.OK {
			log.Field("path", r.Path).Message("dropping image that did not yield a chunk payload")
			continue
		}
		payloads = append(payloads, r.Payload)
	}

	return payloads, nil
}

func decodeSessionSecrets(session chunk.SessionFields) (salt, nonce []byte, err error) {
	salt, err = base64.StdEncoding.DecodeString(session.SaltB64)
	if err != nil {
		return nil, nil, fmt.Errorf("orchestrate: invalid salt encoding: %w", err)
	}
	nonce, err = base64.StdEncoding.DecodeString(session.NonceB64)
	if err != nil {
		return nil, nil, fmt.Errorf("orchestrate: invalid nonce encoding: %w", err)
	}

	return salt, nonce, nil
}

func wrapAssembleError(err error) error {
	var missing *assemble.ErrMissingChunks
	if errors.As(err, &missing) {
		return fmt.Errorf("%w: %v", pipelineerr.ErrMissingChunks, missing.Missing)
	}
	if errors.Is(err, assemble.ErrConflictingSession) {
		return fmt.Errorf("%w", pipelineerr.ErrConflictingMetadata)
	}

	return err
}
