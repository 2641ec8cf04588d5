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

// Package state tracks the files written by batch runs in a lock file, so
// later runs can skip transformations whose inputs have not changed.
package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ctt/pkg/config"
	"github.com/walteh/ctt/pkg/status"
)

// FileName is the lock file written next to the project file
const FileName = ".ctt.lock"

// 🔒 State is the content of a lock file
type State struct {
	LastUpdated time.Time `json:"last_updated"`

	// GeneratedFiles tracks every destination written by a batch run
	GeneratedFiles []GeneratedFile `json:"generated_files"`

	path string
	mu   sync.Mutex
}

// 📄 GeneratedFile represents a destination written by a transformation
type GeneratedFile struct {
	LocalPath   string    `json:"local_path"` // Relative to the lock file
	Source      string    `json:"source"`
	Transform   string    `json:"transform"`
	InputHash   string    `json:"input_hash"`   // Fingerprint of everything the output depends on
	ContentHash string    `json:"content_hash"` // SHA-256 of the destination as written
	LastUpdated time.Time `json:"last_updated"`
}

// 🎯 Load reads the lock file at path. A missing file gives an empty state.
func Load(ctx context.Context, path string) (*State, error) {
	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("loading state")

	s := &State{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Errorf("reading state file: %w", err)
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, errors.Errorf("parsing state file %s: %w", path, err)
	}
	return s, nil
}

// Path returns where the state is written.
func (s *State) Path() string {
	return s.path
}

func (s *State) rel(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	base, err := filepath.Abs(filepath.Dir(s.path))
	if err != nil {
		return filepath.ToSlash(p)
	}
	r, err := filepath.Rel(base, abs)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(r)
}

// Abs turns a recorded LocalPath back into a path usable from the
// working directory.
func (s *State) Abs(f GeneratedFile) string {
	p := filepath.FromSlash(f.LocalPath)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(s.path), p)
}

func (s *State) find(local string) int {
	for i, f := range s.GeneratedFiles {
		if f.LocalPath == local {
			return i
		}
	}
	return -1
}

// Lookup returns the entry recorded for the destination dest.
func (s *State) Lookup(dest string) (GeneratedFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(s.rel(dest))
	if i < 0 {
		return GeneratedFile{}, false
	}
	return s.GeneratedFiles[i], true
}

// Fresh reports whether dest was last written from inputs fingerprinted as
// inputHash and still holds exactly what was written.
func (s *State) Fresh(dest, inputHash string) bool {
	f, ok := s.Lookup(dest)
	if !ok || f.InputHash != inputHash {
		return false
	}
	content, err := os.ReadFile(dest)
	if err != nil {
		return false
	}
	return status.Checksum(content) == f.ContentHash
}

// Put records that job wrote content hashing to contentHash.
func (s *State) Put(ctx context.Context, job config.Job, inputHash, contentHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := GeneratedFile{
		LocalPath:   s.rel(job.Destination),
		Source:      s.rel(job.Source),
		Transform:   s.rel(job.Transform),
		InputHash:   inputHash,
		ContentHash: contentHash,
		LastUpdated: time.Now().UTC(),
	}

	zerolog.Ctx(ctx).Debug().Str("path", f.LocalPath).Msg("putting generated file")

	if i := s.find(f.LocalPath); i >= 0 {
		s.GeneratedFiles[i] = f
		return
	}
	s.GeneratedFiles = append(s.GeneratedFiles, f)
}

// Remove forgets the entry for the destination dest.
func (s *State) Remove(dest string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.find(s.rel(dest)); i >= 0 {
		s.GeneratedFiles = append(s.GeneratedFiles[:i], s.GeneratedFiles[i+1:]...)
	}
}

// Write saves the state to its lock file, sorted by path.
func (s *State) Write(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	zerolog.Ctx(ctx).Debug().Str("path", s.path).Msg("writing state")

	sort.Slice(s.GeneratedFiles, func(i, j int) bool {
		return s.GeneratedFiles[i].LocalPath < s.GeneratedFiles[j].LocalPath
	})
	s.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(s, "", "\t")
	if err != nil {
		return errors.Errorf("encoding state: %w", err)
	}
	data = append(data, '\n')

	if _, err := status.NewWriter(false).WriteFile(ctx, s.path, data); err != nil {
		return errors.Errorf("writing state file: %w", err)
	}
	return nil
}

// Delete removes the lock file and forgets every entry.
func (s *State) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	zerolog.Ctx(ctx).Debug().Str("path", s.path).Msg("deleting state")

	s.GeneratedFiles = nil
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Errorf("removing state file: %w", err)
	}
	return nil
}
