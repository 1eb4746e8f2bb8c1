// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config loads the recognized environment options into a single
// value struct threaded explicitly through the Orchestrator, instead of
// being read from process-wide state at arbitrary call sites.
package config

import (
	"fmt"
	"runtime"

	"github.com/mitchellh/mapstructure"

	"github.com/gitzipqr/gitzipqr/crypto/kdf"
	"github.com/gitzipqr/gitzipqr/qr"
)

// Config carries every recognized option, already defaulted.
type Config struct {
	ScryptN   int    `mapstructure:"SCRYPT_N"`
	ScryptR   int    `mapstructure:"SCRYPT_r"`
	ScryptP   int    `mapstructure:"SCRYPT_p"`
	QRECL     string `mapstructure:"QR_ECL"`
	QRMargin  int    `mapstructure:"QR_MARGIN"`
	QRWorkers int    `mapstructure:"QR_WORKERS"`
	ChunkSize int    `mapstructure:"CHUNK_SIZE"`
}

// defaults returns a Config populated with every option's spec-mandated
// default, prior to any environment override.
func defaults() Config {
	return Config{
		ScryptN:   1 << 15,
		ScryptR:   8,
		ScryptP:   runtime.NumCPU(),
		QRECL:     string(qr.DefaultECL),
		QRMargin:  1,
		QRWorkers: runtime.NumCPU(),
		ChunkSize: 0, // 0 means "let the Capacity Calibrator decide"
	}
}

// Lookup mirrors os.LookupEnv's signature, letting callers pass os.LookupEnv
// itself or a fake lookup function in tests.
type Lookup func(key string) (string, bool)

var recognizedKeys = []string{
	"SCRYPT_N", "SCRYPT_r", "SCRYPT_p", "QR_ECL", "QR_MARGIN", "QR_WORKERS", "CHUNK_SIZE",
}

// Load builds a Config by defaulting every option and then overlaying
// whichever of the recognized environment variables lookup reports present.
// The overlay goes through mapstructure.WeakDecode so a map of string
// values - exactly what an environment snapshot is - is coerced into the
// typed Config fields, the same decode idiom the teacher's own
// kms/vault/service.go uses for untyped API responses.
func Load(lookup Lookup) (Config, error) {
	cfg := defaults()

	raw := make(map[string]string)
	for _, key := range recognizedKeys {
		if v, ok := lookup(key); ok {
			raw[key] = v
		}
	}
	if len(raw) == 0 {
		return cfg, nil
	}

	if err := mapstructure.WeakDecode(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unable to decode environment overrides: %w", err)
	}

	return cfg, nil
}

// KDFParams projects the scrypt-related fields into a kdf.Params value.
func (c Config) KDFParams() kdf.Params {
	return kdf.Params{N: c.ScryptN, R: c.ScryptR, P: c.ScryptP}
}

// ECL projects the configured error correction level name into a qr.ECL.
func (c Config) ECL() qr.ECL {
	return qr.ECL(c.QRECL)
}
