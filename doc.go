// Package gitzipqr converts a file or directory into a set of self-contained,
// password-authenticated QR-code images and reverses the process.
//
// Each emitted image carries a complete ChunkPayload: the scrypt parameters,
// salt, nonce and per-chunk hash needed to reassemble and decrypt the
// original data, so no side-channel manifest is required to recover a file
// from its QR codes. See SPEC_FULL.md for the full pipeline description.
//
// The package is organized the way the rest of this module's packages are:
// crypto/ holds the key derivation and authenticated encryption primitives,
// chunk/ and qr/ hold the wire format and the QR rendering/scanning pools,
// assemble/ reconstructs a ciphertext frame from scanned chunks, and
// orchestrate/ drives the end-to-end encode and decode pipelines that
// cmd/gitzipqr wires up into a command-line tool.
package gitzipqr
