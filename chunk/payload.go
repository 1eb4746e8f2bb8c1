// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package chunk implements the Chunker (C5) and the Payload Codec (C11): it
// slices a ciphertext frame into fixed-size pieces and carries each piece,
// plus the session metadata needed to reassemble and decrypt it, as a
// ChunkPayload.
package chunk

import (
	"encoding/json"
	"fmt"

	"github.com/gitzipqr/gitzipqr/crypto/kdf"
)

// PayloadType is the constant discriminator carried by every payload this
// codec emits.
const PayloadType = "GitZipQR-CHUNK-ENC"

// PayloadVersion is the wire format version this package emits and expects.
const PayloadVersion = "3.1-inline-only"

// Payload is one QR symbol's worth of a chunked, encrypted file. Field
// declaration order is load-bearing: encoding/json marshals struct fields in
// declaration order, and the spec requires this exact field order in the
// emitted JSON for compactness.
type Payload struct {
	Type       string     `json:"type"`
	Version    string     `json:"version"`
	FileID     string     `json:"fileId"`
	Name       string     `json:"name"`
	Ext        string     `json:"ext"`
	Chunk      int        `json:"chunk"`
	Total      int        `json:"total"`
	Hash       string     `json:"hash"`
	CipherHash string     `json:"cipherHash"`
	DataB64    string     `json:"dataB64"`
	KDFParams  kdf.Params `json:"kdfParams"`
	SaltB64    string     `json:"saltB64"`
	NonceB64   string     `json:"nonceB64"`
	ChunkSize  int        `json:"chunkSize"`
}

// Encode serializes p to its canonical compact JSON form.
func (p Payload) Encode() ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("chunk: unable to encode payload: %w", err)
	}

	return raw, nil
}

// Decode parses a canonical (non-legacy) ChunkPayload. Decoding does not
// verify the payload's type/version markers; callers that need to reject
// unsupported wire formats should check Type/Version explicitly.
func Decode(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("chunk: unable to decode payload: %w", err)
	}

	return p, nil
}

// SessionFields is the subset of Payload that must be identical across every
// ChunkPayload belonging to the same file, per the spec's conflicting-value
// invariant.
type SessionFields struct {
	Name      string
	Ext       string
	Total     int
	Hash      string // CipherHash value; named Hash to disambiguate from the per-chunk Hash field
	KDFParams kdf.Params
	SaltB64   string
	NonceB64  string
	ChunkSize int
	FileID    string
}

// Session extracts the fields of p that must be session-wide constant.
func (p Payload) Session() SessionFields {
	return SessionFields{
		Name:      p.Name,
		Ext:       p.Ext,
		Total:     p.Total,
		Hash:      p.CipherHash,
		KDFParams: p.KDFParams,
		SaltB64:   p.SaltB64,
		NonceB64:  p.NonceB64,
		ChunkSize: p.ChunkSize,
		FileID:    p.FileID,
	}
}
