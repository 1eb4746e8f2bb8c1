// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

package aead_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitzipqr/gitzipqr/crypto/aead"
)

func validKey(t *testing.T) []byte {
	t.Helper()
	return bytes.Repeat([]byte{0x42}, aead.KeySize)
}

func TestSealOpen_RoundTrip(t *testing.T) {
	t.Parallel()

	key := validKey(t)
	nonce, err := aead.NewNonce()
	require.NoError(t, err)
	require.Len(t, nonce, aead.NonceSize)

	plaintext := []byte("the quick brown fox jumps over the lazy dog")

	var sealed bytes.Buffer
	require.NoError(t, aead.Seal(&sealed, bytes.NewReader(plaintext), key, nonce))
	require.Greater(t, sealed.Len(), aead.TagSize)

	var recovered bytes.Buffer
	require.NoError(t, aead.Open(&recovered, bytes.NewReader(sealed.Bytes()), key, nonce))
	require.Equal(t, plaintext, recovered.Bytes())
}

func TestOpen_WrongKeyFails(t *testing.T) {
	t.Parallel()

	key := validKey(t)
	nonce, err := aead.NewNonce()
	require.NoError(t, err)

	var sealed bytes.Buffer
	require.NoError(t, aead.Seal(&sealed, bytes.NewReader([]byte("secret")), key, nonce))

	wrongKey := bytes.Repeat([]byte{0x24}, aead.KeySize)
	var out bytes.Buffer
	err = aead.Open(&out, bytes.NewReader(sealed.Bytes()), wrongKey, nonce)
	require.ErrorIs(t, err, aead.ErrAuthenticationFailed)
}

func TestOpen_CorruptedFrameFails(t *testing.T) {
	t.Parallel()

	key := validKey(t)
	nonce, err := aead.NewNonce()
	require.NoError(t, err)

	var sealed bytes.Buffer
	require.NoError(t, aead.Seal(&sealed, bytes.NewReader([]byte("secret payload")), key, nonce))

	corrupted := sealed.Bytes()
	corrupted[0] ^= 0xFF

	var out bytes.Buffer
	err = aead.Open(&out, bytes.NewReader(corrupted), key, nonce)
	require.ErrorIs(t, err, aead.ErrAuthenticationFailed)
}

func TestOpen_TruncatedFrameFails(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := aead.Open(&out, bytes.NewReader([]byte("short")), validKey(t), bytes.Repeat([]byte{0x01}, aead.NonceSize))
	require.ErrorIs(t, err, aead.ErrAuthenticationFailed)
}

func TestSeal_RejectsBadKeyOrNonceSize(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := aead.Seal(&out, bytes.NewReader([]byte("x")), []byte("tooshort"), bytes.Repeat([]byte{0x01}, aead.NonceSize))
	require.Error(t, err)

	err = aead.Seal(&out, bytes.NewReader([]byte("x")), validKey(t), []byte("tooshort"))
	require.Error(t, err)
}
