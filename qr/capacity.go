// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

package qr

import (
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/gitzipqr/gitzipqr/chunk"
	"github.com/gitzipqr/gitzipqr/crypto/kdf"
)

// safetyFactor absorbs per-chunk JSON length variance (base64 padding,
// differing digit counts in "chunk"/"total") between the calibration probe
// and the real payloads that follow it.
const safetyFactor = 0.92

// finalFactor is applied once more after the base64-to-raw-byte conversion
// as an additional margin against renderer/library capacity rounding.
const finalFactor = 0.98

// FloorBytes is the minimum ChunkSize this calibrator will ever return,
// regardless of how little room the QR symbol leaves.
const FloorBytes = 512

// version40Capacity holds the raw byte capacities of a version-40 QR symbol
// at each error correction level, used by the analytical strategy.
var version40Capacity = map[ECL]int{
	ECLLow:      2953,
	ECLMedium:   2331,
	ECLQuartile: 1663,
	ECLHigh:     1273,
}

// probePayload returns a ChunkPayload populated with realistic-length
// session fields and an n-byte placeholder dataB64, used to measure how
// much room is left for real chunk data at a given symbol capacity.
func probePayload(n int) chunk.Payload {
	return chunk.Payload{
		Type:       chunk.PayloadType,
		Version:    chunk.PayloadVersion,
		FileID:     "0123456789abcdef",
		Name:       "a-reasonably-long-file-name-stem",
		Ext:        ".zip",
		Chunk:      999999,
		Total:      999999,
		Hash:       strings.Repeat("a", 64),
		CipherHash: strings.Repeat("b", 64),
		DataB64:    strings.Repeat("A", n),
		KDFParams:  kdf.Default(),
		SaltB64:    strings.Repeat("c", 24),
		NonceB64:   strings.Repeat("d", 16),
		ChunkSize:  999999,
	}
}

// fits reports whether a ChunkPayload carrying n bytes of base64 placeholder
// data still encodes into a single QR symbol at level.
func fits(n int, level qrcode.RecoveryLevel) bool {
	raw, err := probePayload(n).Encode()
	if err != nil {
		return false
	}

	_, err = qrcode.New(string(raw), level)
	return err == nil
}

// rawByteLimit converts a base64-character budget into a raw byte budget:
// base64 expands 3 raw bytes into 4 characters, so the inverse ratio is
// applied, followed by the calibration's final safety margin.
func rawByteLimit(base64Chars int) int {
	raw := float64(base64Chars) * safetyFactor * 3 / 4 * finalFactor
	return int(raw)
}

// CalibrateEmpirical implements the empirical binary-search strategy: it
// doubles n until a probe payload no longer fits in a single QR symbol at
// level, then binary-searches the boundary, and converts the discovered
// base64-character budget into a raw ChunkSize.
func CalibrateEmpirical(level ECL) (int, error) {
	rl, err := level.recoveryLevel()
	if err != nil {
		return 0, err
	}

	if !fits(1, rl) {
		return FloorBytes, nil
	}

	lo, hi := 1, 1
	for fits(hi, rl) {
		lo = hi
		hi *= 2
		// A version-40 symbol's absolute character ceiling is in the low
		// thousands; this bound keeps the doubling loop from spinning past
		// any level that could possibly still fit.
		if hi > 1<<20 {
			break
		}
	}

	for lo+1 < hi {
		mid := lo + (hi-lo)/2
		if fits(mid, rl) {
			lo = mid
		} else {
			hi = mid
		}
	}

	size := rawByteLimit(lo)
	if size < FloorBytes {
		size = FloorBytes
	}

	return size, nil
}

// CalibrateAnalytical implements the analytical strategy: start from the
// known version-40 byte capacity for level, subtract the JSON overhead of
// an empty-data probe payload, and apply the same raw-byte conversion.
func CalibrateAnalytical(level ECL) (int, error) {
	if _, err := level.recoveryLevel(); err != nil {
		return 0, err
	}

	capacity, ok := version40Capacity[level]
	if !ok {
		capacity = version40Capacity[ECLQuartile]
	}

	empty, err := probePayload(0).Encode()
	if err != nil {
		return 0, err
	}

	available := capacity - len(empty)
	if available < 0 {
		return FloorBytes, nil
	}

	size := rawByteLimit(available)
	if size < FloorBytes {
		size = FloorBytes
	}

	return size, nil
}

// Calibrate resolves the ChunkSize to use for an encode session: an explicit
// override always wins, otherwise the empirical strategy is used.
func Calibrate(level ECL, override int) (int, error) {
	if override > 0 {
		return override, nil
	}

	return CalibrateEmpirical(level)
}

// FitsChunkSize reports whether a raw chunk of the given byte size, wrapped
// in a realistic ChunkPayload, still renders into a single QR symbol at
// level. Unlike the calibration strategies, this performs no safety-margin
// adjustment: it is used to validate an explicit CHUNK_SIZE override against
// the library's actual acceptance boundary.
func FitsChunkSize(size int, level ECL) bool {
	rl, err := level.recoveryLevel()
	if err != nil {
		return false
	}

	base64Chars := (size + 2) / 3 * 4

	return fits(base64Chars, rl)
}
