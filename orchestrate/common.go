// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package orchestrate implements the Orchestrator (C10): it drives the
// seven-step encode pipeline and the four-step decode pipeline, owns the
// temporary working directory for a run, and prints the STEP #N ... [1|0]
// progress lines.
package orchestrate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/gitzipqr/gitzipqr/generator/randomness"
)

const (
	saltSize          = 16
	minPasswordLength = 8
)

// newSessionDir returns a filesystem-safe unique suffix for a run's
// temporary working directory, following the teacher's own pattern of
// naming scratch resources with a fresh UUID rather than a timestamp or PID.
func newSessionDir() string {
	return "gitzipqr-" + uuid.New().String()
}

// newSalt returns a freshly generated 16-byte scrypt salt.
func newSalt() ([]byte, error) {
	salt, err := randomness.Bytes(saltSize)
	if err != nil {
		return nil, fmt.Errorf("orchestrate: unable to generate salt: %w", err)
	}

	return salt, nil
}

// fileID derives the FileID per the spec's data model: the first 16 hex
// characters of SHA-256(name || ":" || cipherFingerprint).
func fileID(name, cipherFingerprint string) string {
	sum := sha256.Sum256([]byte(name + ":" + cipherFingerprint))
	return hex.EncodeToString(sum[:])[:16]
}

// detectExtension sniffs raw's content type against mimetype's magic-number
// tree and returns a best-effort file extension, falling back to ".bin" when
// nothing more specific is recognized. The standard library's own
// net/http.DetectContentType covers only the narrow whatwg-sniffing table
// built for browsers; mimetype's tree recognizes hundreds of archive,
// document, and media formats that a real backup payload is far more likely
// to actually be. This is used only when a decoded ChunkPayload's memoized
// ext is empty.
func detectExtension(raw []byte) string {
	ext := mimetype.Detect(raw).Extension()
	if ext == "" {
		return ".bin"
	}

	return ext
}
