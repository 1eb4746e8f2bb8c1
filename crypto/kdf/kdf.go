// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package kdf derives the symmetric key used to seal and open an encode
// session's ciphertext frame. It wraps golang.org/x/crypto/scrypt the same
// way crypto/encryption's secret-cabin envelope does, but exposes the raw
// derivation instead of an opinionated envelope so the orchestrator can
// carry the parameters in its own wire format.
package kdf

import (
	"bytes"
	"fmt"
	"runtime"

	"golang.org/x/crypto/scrypt"
)

// KeyLength is the size in bytes of the derived key, matching the AES-256
// key size consumed by crypto/aead.
const KeyLength = 32

// Params carries the scrypt cost parameters. Zero-value Params is not valid;
// use Default or populate all three fields explicitly.
type Params struct {
	N int `mapstructure:"N" json:"N"`
	R int `mapstructure:"r" json:"r"`
	P int `mapstructure:"p" json:"p"`
}

// Default returns the baseline cost parameters: N=2^15, r=8, p=cpu_count.
// The p value is resolved at call time from runtime.NumCPU so the same
// binary calibrates itself to the machine that ran the encode session; a
// decoder restores p from the payload's kdfParams field instead of
// recomputing it.
func Default() Params {
	return Params{
		N: 1 << 15,
		R: 8,
		P: runtime.NumCPU(),
	}
}

// Validate rejects parameter combinations that scrypt.Key itself would
// reject, plus the non-positive values a tampered or hand-edited manifest
// might carry.
func (p Params) Validate() error {
	if p.N <= 1 || p.N&(p.N-1) != 0 {
		return fmt.Errorf("kdf: N must be a power of two greater than 1, got %d", p.N)
	}
	if p.R <= 0 {
		return fmt.Errorf("kdf: r must be positive, got %d", p.R)
	}
	if p.P <= 0 {
		return fmt.Errorf("kdf: p must be positive, got %d", p.P)
	}

	return nil
}

// Derive concatenates passwords with a single NUL byte separator and runs
// scrypt against the joined byte string. Multiple passwords let a front-end
// combine, for example, a user passphrase and a recovery code into one
// derivation without the orchestrator needing to know how many were
// supplied.
//
// Failures here are fatal: scrypt.Key only errors on parameters that are
// invalid or would exceed maxmem, and Validate should have already caught a
// bad Params before Derive is reached.
func Derive(passwords [][]byte, salt []byte, p Params) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(passwords) == 0 {
		return nil, fmt.Errorf("kdf: at least one password is required")
	}

	joined := bytes.Join(passwords, []byte{0x00})

	key, err := scrypt.Key(joined, salt, p.N, p.R, p.P, KeyLength)
	if err != nil {
		return nil, fmt.Errorf("kdf: key derivation failed: %w", err)
	}

	return key, nil
}
