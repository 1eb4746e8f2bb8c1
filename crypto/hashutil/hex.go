// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

package hashutil

import (
	"crypto"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// SHA256Hex streams r through SHA-256 and returns the lower-case hex digest.
func SHA256Hex(r io.Reader) (string, error) {
	raw, err := Hash(r, crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("unable to compute sha256 digest: %w", err)
	}

	return hex.EncodeToString(raw), nil
}

// SHA256HexBytes returns the lower-case hex SHA-256 digest of data.
func SHA256HexBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
