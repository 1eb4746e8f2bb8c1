// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"fmt"
	"io"

	"github.com/gitzipqr/gitzipqr/crypto/hashutil"
)

// Piece is one raw chunk read from the ciphertext frame, hashed but not yet
// wrapped in a Payload - the Orchestrator owns stitching in the session
// metadata once the whole frame has been hashed.
type Piece struct {
	Index int
	Raw   []byte
	Hash  string // hex SHA-256 of Raw
}

// Chunker slices a ciphertext frame into fixed-size pieces, read positionally
// from an io.ReaderAt so the whole frame never needs to be resident at once.
type Chunker struct {
	src       io.ReaderAt
	size      int64
	chunkSize int
}

// New returns a Chunker over src, whose total length is size, using
// chunkSize as the uniform chunk size (the last chunk may be shorter).
func New(src io.ReaderAt, size int64, chunkSize int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk: chunkSize must be positive, got %d", chunkSize)
	}
	if size < 0 {
		return nil, fmt.Errorf("chunk: size must not be negative, got %d", size)
	}

	return &Chunker{src: src, size: size, chunkSize: chunkSize}, nil
}

// Total returns ceil(size/chunkSize), the number of chunks this Chunker will
// yield. A zero-length frame still yields exactly one (empty) chunk so a
// zero-byte source file round-trips through exactly one QR symbol.
func (c *Chunker) Total() int {
	if c.size == 0 {
		return 1
	}

	total := c.size / int64(c.chunkSize)
	if c.size%int64(c.chunkSize) != 0 {
		total++
	}

	return int(total)
}

// At reads and hashes the chunk at the given 0-based index.
func (c *Chunker) At(index int) (Piece, error) {
	total := c.Total()
	if index < 0 || index >= total {
		return Piece{}, fmt.Errorf("chunk: index %d out of range [0,%d)", index, total)
	}

	offset := int64(index) * int64(c.chunkSize)
	length := int64(c.chunkSize)
	if remaining := c.size - offset; remaining < length {
		length = remaining
	}
	if length < 0 {
		length = 0
	}

	buf := make([]byte, length)
	if length > 0 {
		if _, err := c.src.ReadAt(buf, offset); err != nil && err != io.EOF {
			return Piece{}, fmt.Errorf("chunk: unable to read chunk %d: %w", index, err)
		}
	}

	return Piece{
		Index: index,
		Raw:   buf,
		Hash:  hashutil.SHA256HexBytes(buf),
	}, nil
}

// Each invokes fn for every chunk in order, stopping at the first error
// returned either by a read or by fn itself.
func (c *Chunker) Each(fn func(Piece) error) error {
	total := c.Total()
	for i := 0; i < total; i++ {
		p, err := c.At(i)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
	}

	return nil
}
