// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

package zip

import (
	"compress/flate"
	"io"
	"io/fs"
)

// CreateDeterministic archives fileSystem to w the same way Create does, but
// forces the settings required to make the output reproducible byte-for-byte
// across runs on the same tree: maximum compression, every entry's
// modification/access/creation time reset to the Unix epoch, and empty
// directories preserved so the tree shape survives the round trip.
//
// fs.WalkDir already visits entries in lexical path order, so no additional
// sorting is required to keep the entry order stable across runs.
func CreateDeterministic(fileSystem fs.FS, w io.Writer, opts ...Option) error {
	merged := append([]Option{
		WithCompressionLevel(flate.BestCompression),
		WithHeaderRewritterFunc(ResetHeaderTimes()),
		WithEmptyDirectories(true),
	}, opts...)

	return Create(fileSystem, w, merged...)
}
