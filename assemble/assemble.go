// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package assemble implements the Assembler (C9): it collects ChunkPayloads
// produced by the QR Decoder Pool, validates them against the first payload
// seen, and reconstructs the ciphertext frame once every chunk is present.
package assemble

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/gitzipqr/gitzipqr/chunk"
	"github.com/gitzipqr/gitzipqr/log"
)

// ErrConflictingSession is returned when a payload disagrees with the
// session fields memoized from the first payload seen.
var ErrConflictingSession = fmt.Errorf("assemble: conflicting session metadata across chunk payloads")

// ErrMissingChunks is returned by Frame when fewer than Total distinct,
// hash-valid chunks have been accepted.
type ErrMissingChunks struct {
	Missing []int
}

func (e *ErrMissingChunks) Error() string {
	return fmt.Sprintf("assemble: missing %d chunk(s): %v", len(e.Missing), e.Missing)
}

// Assembler owns the chunk_index -> raw_bytes mapping for exactly one file
// session. It is not safe for concurrent use; the Orchestrator feeds it
// payloads from the decoder pool's results sequentially on its single
// control thread.
type Assembler struct {
	session *chunk.SessionFields
	chunks  map[int][]byte
}

// New returns an empty Assembler ready to accept payloads.
func New() *Assembler {
	return &Assembler{chunks: make(map[int][]byte)}
}

// Accept validates and stores one ChunkPayload. A hash mismatch on the
// chunk's data drops the payload with a warning rather than failing the
// whole session: a later duplicate with a correct hash may still supersede
// it. A session-field conflict with a previously memoized payload is always
// fatal, since it indicates the input set mixes chunks from different files
// or a tampered manifest.
func (a *Assembler) Accept(p chunk.Payload) error {
	session := p.Session()

	if a.session == nil {
		a.session = &session
	} else if *a.session != session {
		return ErrConflictingSession
	}

	if p.Chunk < 0 || p.Chunk >= p.Total {
		log.Field("chunk", p.Chunk).Field("total", p.Total).Message("dropping payload with out-of-range chunk index")
		return nil
	}

	raw, err := base64.StdEncoding.DecodeString(p.DataB64)
	if err != nil {
		log.Error(err).Field("chunk", p.Chunk).Message("dropping payload with invalid base64 data")
		return nil
	}

	sum := sha256.Sum256(raw)
	if hex.EncodeToString(sum[:]) != p.Hash {
		log.Field("chunk", p.Chunk).Message("dropping payload with mismatched chunk hash")
		return nil
	}

	if existing, ok := a.chunks[p.Chunk]; ok && !bytes.Equal(existing, raw) {
		// Both copies passed their own hash check but differ; the newest
		// arrival replaces the earlier one.
		a.chunks[p.Chunk] = raw
		return nil
	}

	a.chunks[p.Chunk] = raw

	return nil
}

// Total returns the memoized total chunk count, or 0 if no payload has been
// accepted yet.
func (a *Assembler) Total() int {
	if a.session == nil {
		return 0
	}

	return a.session.Total
}

// Session returns the memoized session-wide fields. The second return value
// is false if no payload has been accepted yet.
func (a *Assembler) Session() (chunk.SessionFields, bool) {
	if a.session == nil {
		return chunk.SessionFields{}, false
	}

	return *a.session, true
}

// Frame concatenates the accepted chunks in index order and verifies the
// result against the memoized CipherHash. It fails with *ErrMissingChunks if
// any index in [0,Total) has not been accepted.
func (a *Assembler) Frame() ([]byte, error) {
	if a.session == nil {
		return nil, fmt.Errorf("assemble: no payloads accepted")
	}

	total := a.session.Total

	var missing []int
	for i := 0; i < total; i++ {
		if _, ok := a.chunks[i]; !ok {
			missing = append(missing, i)
		}
	}
	if len(missing) > 0 {
		sort.Ints(missing)
		return nil, &ErrMissingChunks{Missing: missing}
	}

	var frame bytes.Buffer
	for i := 0; i < total; i++ {
		frame.Write(a.chunks[i])
	}

	sum := sha256.Sum256(frame.Bytes())
	if hex.EncodeToString(sum[:]) != a.session.Hash {
		return nil, fmt.Errorf("assemble: reassembled frame does not match cipherHash")
	}

	return frame.Bytes(), nil
}
