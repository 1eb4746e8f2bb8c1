// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package archive turns a directory into the single deterministic container
// file that the encode pipeline treats as its plaintext source.
package archive

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gitzipqr/gitzipqr/compression/archive/zip"
)

// Ext is the extension assigned to every directory archive produced by this
// package.
const Ext = ".zip"

// Directory archives the directory at dirPath into a single deterministic
// ZIP container written to destPath. Two calls against the same unmodified
// tree produce byte-for-byte identical output: entry order follows
// fs.WalkDir's lexical traversal, every header timestamp is reset to the
// Unix epoch, and compression is forced to the maximum level.
func Directory(dirPath, destPath string) error {
	fi, err := os.Stat(dirPath)
	if err != nil {
		return fmt.Errorf("unable to stat source directory %q: %w", dirPath, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("source path %q is not a directory", dirPath)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("unable to create archive file %q: %w", destPath, err)
	}
	defer out.Close()

	if err := zip.CreateDeterministic(os.DirFS(dirPath), out); err != nil {
		return fmt.Errorf("unable to archive directory %q: %w", dirPath, err)
	}

	return out.Sync()
}

// NameFor returns the (name, ext) pair the spec requires for a directory
// source: the directory basename with the fixed Ext, no ext duplication if
// the basename already carries a trailing separator.
func NameFor(dirPath string) (name, ext string) {
	return filepath.Base(filepath.Clean(dirPath)), Ext
}
