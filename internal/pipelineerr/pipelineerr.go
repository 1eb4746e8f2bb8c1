// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package pipelineerr declares the sentinel errors shared across the encode
// and decode pipelines, following the same errors.Is-friendly pattern as
// compression/archive/zip's ErrNothingArchived/ErrAbortedOperation: a
// package-level sentinel wrapped with fmt.Errorf/%w at the call site, so
// cmd/ can recover the failure kind with errors.Is without string matching.
package pipelineerr

import "errors"

// ErrWrongPasswordOrCorrupted is returned when AEAD tag verification fails.
// The cause - a wrong password or a tampered/corrupted ciphertext frame -
// is deliberately not distinguishable from this error alone.
var ErrWrongPasswordOrCorrupted = errors.New("wrong password or corrupted data")

// ErrMissingChunks is returned when the Assembler finishes processing all
// available inputs without a complete set of chunks.
var ErrMissingChunks = errors.New("one or more chunks are missing")

// ErrCapacityExceeded is returned when a configured ChunkSize override does
// not fit within a single QR symbol at the configured error correction
// level.
var ErrCapacityExceeded = errors.New("configured chunk size exceeds single-symbol QR capacity")

// ErrConflictingMetadata is returned when two ChunkPayloads belonging to the
// same fileId disagree on a session-wide field.
var ErrConflictingMetadata = errors.New("conflicting session metadata across chunk payloads")
