// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package status writes destination files and reports what changed.
package status

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/sergi/go-diff/diffmatchpatch"
	"gitlab.com/tozd/go/errors"
)

// 📊 FileStatus represents the state of a destination after a write
type FileStatus int

const (
	StatusUnknown   FileStatus = iota
	StatusNew                  // File didn't exist before
	StatusModified             // File existed with different content
	StatusUnchanged            // File existed with the same content
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusModified:
		return "modified"
	case StatusUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// 📄 FileInfo contains metadata about a written file
type FileInfo struct {
	Path     string     // Destination path
	Status   FileStatus // Outcome of the write
	Size     int64      // File size in bytes
	Checksum string     // SHA-256 of the new content
	Diff     string     // Pretty diff against the old content, when requested
}

// 💾 Writer writes destination files atomically
type Writer struct {
	withDiff bool
}

// 🏭 NewWriter creates a writer; withDiff adds a pretty diff to FileInfo
// for modified files
func NewWriter(withDiff bool) *Writer {
	return &Writer{withDiff: withDiff}
}

// 🔍 Checksum generates a SHA-256 hash of the content
func Checksum(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// WriteFile creates parent directories, compares against the current file
// and replaces it atomically. Unchanged files are not rewritten.
func (w *Writer) WriteFile(ctx context.Context, path string, content []byte) (FileInfo, error) {
	info := FileInfo{
		Path:     path,
		Status:   StatusNew,
		Size:     int64(len(content)),
		Checksum: Checksum(content),
	}

	current, err := os.ReadFile(path)
	switch {
	case err == nil && bytes.Equal(current, content):
		info.Status = StatusUnchanged
	case err == nil:
		info.Status = StatusModified
		if w.withDiff {
			info.Diff = prettyDiff(string(current), string(content))
		}
	case !os.IsNotExist(err):
		return info, errors.Errorf("reading current file: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("path", path).
		Stringer("status", info.Status).
		Str("checksum", info.Checksum).
		Msg("writing destination")

	if info.Status == StatusUnchanged {
		return info, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return info, errors.Errorf("creating parent directories: %w", err)
	}

	if err := w.WriteFileAtomic(ctx, path, content); err != nil {
		return info, err
	}

	return info, nil
}

// WriteFileAtomic writes content to a temp file next to path and renames it
// into place.
func (w *Writer) WriteFileAtomic(ctx context.Context, path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("closing temp file: %w", err)
	}

	mode := os.FileMode(0644)
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode().Perm()
	}
	if err := os.Chmod(tempPath, mode); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("setting file mode: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}

func prettyDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.DiffPrettyText(diffs)
}
