// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package legacy provides decode-only support for the pre-QR fragment
// format: a directory of *.bin.json chunk fragments accompanied by a
// manifest.json carrying the session-wide fields. No new legacy artifacts
// are produced by this repo; this package only reads them.
package legacy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gitzipqr/gitzipqr/chunk"
	"github.com/gitzipqr/gitzipqr/crypto/kdf"
)

// fragment mirrors one *.bin.json file's fields. Each field is read from a
// single JSON name (data, chunk, total, name, hash, cipherHash).
type fragment struct {
	Data       string `json:"data"`
	Chunk      int    `json:"chunk"`
	Total      int    `json:"total"`
	Name       string `json:"name"`
	Hash       string `json:"hash"`
	CipherHash string `json:"cipherHash"`
}

// manifest mirrors manifest.json. Both camelCase and snake_case variants of
// every field are declared; whichever the source document used populates
// the field, the other stays zero.
type manifest struct {
	KDFParams         kdf.Params `json:"kdfParams"`
	KDFParamsSnake    kdf.Params `json:"kdf_params"`
	SaltB64           string     `json:"saltB64"`
	SaltB64Snake      string     `json:"salt_b64"`
	NonceB64          string     `json:"nonceB64"`
	NonceB64Snake     string     `json:"nonce_b64"`
	TotalChunks       int        `json:"totalChunks"`
	TotalChunksSnake  int        `json:"total_chunks"`
	CipherSha256      string     `json:"cipherSha256"`
	CipherSha256Snake string     `json:"cipher_sha256"`
}

func coalesce(camel, snake string) string {
	if camel != "" {
		return camel
	}
	return snake
}

func coalesceInt(camel, snake int) int {
	if camel != 0 {
		return camel
	}
	return snake
}

func coalesceParams(camel, snake kdf.Params) kdf.Params {
	if camel != (kdf.Params{}) {
		return camel
	}
	return snake
}

// IsLegacyDirectory reports whether dir looks like a legacy fragment
// directory: it contains a manifest.json alongside at least one *.bin.json
// fragment.
func IsLegacyDirectory(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, "manifest.json")); err != nil {
		return false
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".bin.json") {
			return true
		}
	}

	return false
}

// Load reads every *.bin.json fragment plus manifest.json from dir and
// reconstitutes them as canonical ChunkPayloads, so the rest of the decode
// pipeline (Assembler onward) never needs to know the input was legacy.
func Load(dir string) ([]chunk.Payload, error) {
	rawManifest, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return nil, fmt.Errorf("legacy: unable to read manifest.json: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(rawManifest, &m); err != nil {
		return nil, fmt.Errorf("legacy: unable to parse manifest.json: %w", err)
	}

	kdfParams := coalesceParams(m.KDFParams, m.KDFParamsSnake)
	saltB64 := coalesce(m.SaltB64, m.SaltB64Snake)
	nonceB64 := coalesce(m.NonceB64, m.NonceB64Snake)
	totalChunks := coalesceInt(m.TotalChunks, m.TotalChunksSnake)
	cipherHash := coalesce(m.CipherSha256, m.CipherSha256Snake)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("legacy: unable to list directory %q: %w", dir, err)
	}

	var payloads []chunk.Payload
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".bin.json") {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("legacy: unable to read fragment %q: %w", e.Name(), err)
		}

		var f fragment
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("legacy: unable to parse fragment %q: %w", e.Name(), err)
		}

		total := f.Total
		if total == 0 {
			total = totalChunks
		}
		ch := f.CipherHash
		if ch == "" {
			ch = cipherHash
		}

		payloads = append(payloads, chunk.Payload{
			Type:       chunk.PayloadType,
			Version:    chunk.PayloadVersion,
			FileID:     "",
			Name:       f.Name,
			Ext:        "",
			Chunk:      f.Chunk,
			Total:      total,
			Hash:       f.Hash,
			CipherHash: ch,
			DataB64:    f.Data,
			KDFParams:  kdfParams,
			SaltB64:    saltB64,
			NonceB64:   nonceB64,
			ChunkSize:  0,
		})
	}

	sort.Slice(payloads, func(i, j int) bool { return payloads[i].Chunk < payloads[j].Chunk })

	return payloads, nil
}
