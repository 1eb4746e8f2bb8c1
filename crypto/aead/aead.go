// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package aead seals and opens the single ciphertext frame an encode session
// produces. The Seal/Open(dst io.Writer, src io.Reader) error shape mirrors
// crypto/encryption's ChunkedAEAD, but the underlying construction is plain
// AES-256-GCM over the whole frame rather than a chunked FIPS/Modern suite:
// the spec requires exactly one random 12-byte nonce and one 16-byte tag
// appended to the end of the ciphertext, independent of how the frame is
// later split into QR-sized pieces.
package aead

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"io"

	"github.com/gitzipqr/gitzipqr/generator/randomness"
)

// NonceSize is the size in bytes of the random nonce prefixed to the frame
// metadata (carried out-of-band in the payload, not in the ciphertext body).
const NonceSize = 12

// TagSize is the size in bytes of the authentication tag appended to the
// end of the ciphertext body.
const TagSize = 16

// KeySize is the only key length this package accepts (AES-256).
const KeySize = 32

// ErrAuthenticationFailed is returned by Open when the tag does not verify.
// Per the spec, this covers both a wrong password and a corrupted or
// tampered ciphertext: the two causes are indistinguishable from the tag
// alone and must not be reported differently.
var ErrAuthenticationFailed = errors.New("wrong password or corrupted data")

// NewNonce returns a freshly generated random nonce suitable for a single
// encode session. Reusing a nonce with the same key breaks GCM's
// confidentiality guarantees, so callers must generate exactly one nonce per
// Seal call and persist it alongside the ciphertext.
func NewNonce() ([]byte, error) {
	nonce, err := randomness.Bytes(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("aead: unable to generate nonce: %w", err)
	}

	return nonce, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("aead: key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aead: unable to initialize cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("aead: unable to initialize AEAD mode: %w", err)
	}

	return gcm, nil
}

// Seal reads all of plaintext, encrypts it under key/nonce, and writes
// ciphertext||tag to dst. The whole plaintext is buffered once in memory:
// the frame being sealed here is the already-archived, already-bounded
// source file, not an unbounded stream.
func Seal(dst io.Writer, plaintext io.Reader, key, nonce []byte) error {
	gcm, err := newGCM(key)
	if err != nil {
		return err
	}
	if len(nonce) != NonceSize {
		return fmt.Errorf("aead: nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}

	raw, err := io.ReadAll(plaintext)
	if err != nil {
		return fmt.Errorf("aead: unable to read plaintext: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, raw, nil)
	if _, err := dst.Write(sealed); err != nil {
		return fmt.Errorf("aead: unable to write sealed frame: %w", err)
	}

	return nil
}

// Open reads all of ciphertext (body||tag), verifies the tag, and writes the
// recovered plaintext to dst. Any failure to authenticate - whether from a
// wrong key or a corrupted/tampered frame - surfaces as
// ErrAuthenticationFailed.
func Open(dst io.Writer, ciphertext io.Reader, key, nonce []byte) error {
	gcm, err := newGCM(key)
	if err != nil {
		return err
	}
	if len(nonce) != NonceSize {
		return fmt.Errorf("aead: nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}

	raw, err := io.ReadAll(ciphertext)
	if err != nil {
		return fmt.Errorf("aead: unable to read ciphertext: %w", err)
	}
	if len(raw) < TagSize {
		return ErrAuthenticationFailed
	}

	plain, err := gcm.Open(nil, nonce, raw, nil)
	if err != nil {
		return ErrAuthenticationFailed
	}

	if _, err := io.Copy(dst, bytes.NewReader(plain)); err != nil {
		return fmt.Errorf("aead: unable to write recovered plaintext: %w", err)
	}

	return nil
}
