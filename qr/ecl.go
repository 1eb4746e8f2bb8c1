// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package qr implements the Capacity Calibrator (C6), the QR Encoder Pool
// (C7), and the QR Decoder Pool (C8).
package qr

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// ECL names the four error correction levels by their single-letter names
// (L, M, Q, H); recoveryLevel maps them onto go-qrcode's own levels.
type ECL string

const (
	ECLLow      ECL = "L"
	ECLMedium   ECL = "M"
	ECLQuartile ECL = "Q"
	ECLHigh     ECL = "H"
)

// DefaultECL is the level used unless configuration overrides it.
const DefaultECL = ECLQuartile

// recoveryLevel maps an ECL name to go-qrcode's RecoveryLevel. go-qrcode
// names its four levels Low/Medium/High/Highest for the standard 7/15/25/30
// percent recovery levels; the spec's L/M/Q/H map onto those in the same
// order, so Quartile (Q, 25%) corresponds to go-qrcode's High.
func (e ECL) recoveryLevel() (qrcode.RecoveryLevel, error) {
	switch e {
	case ECLLow:
		return qrcode.Low, nil
	case ECLMedium:
		return qrcode.Medium, nil
	case ECLQuartile, "":
		return qrcode.High, nil
	case ECLHigh:
		return qrcode.Highest, nil
	default:
		return 0, fmt.Errorf("qr: unknown error correction level %q", e)
	}
}
