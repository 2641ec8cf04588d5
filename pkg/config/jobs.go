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

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📋 Job is a single resolved transformation ready to run
type Job struct {
	Source      string
	Transform   string
	Destination string
	Settings    Settings
}

// resolve makes p relative to dir unless it is absolute.
func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func isGlob(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// Jobs expands every transformation into jobs. A glob source produces one
// job per matching file, written under the destination directory at its
// path relative to the glob base.
func (cfg *Config) Jobs(ctx context.Context) ([]Job, error) {
	logger := zerolog.Ctx(ctx)
	dir := cfg.Dir()

	var jobs []Job
	for _, t := range cfg.Transformations {
		settings := cfg.Defaults.Merge(t.Settings)
		settings.ParametersFile = resolve(dir, settings.ParametersFile)

		transform := resolve(dir, t.Transform)
		dest := resolve(dir, t.Destination)

		if !isGlob(t.Source) {
			jobs = append(jobs, Job{
				Source:      resolve(dir, t.Source),
				Transform:   transform,
				Destination: dest,
				Settings:    settings,
			})
			continue
		}

		base, pattern := doublestar.SplitPattern(filepath.ToSlash(resolve(dir, t.Source)))
		matches, err := doublestar.Glob(os.DirFS(base), pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Errorf("expanding %q: %w", t.Source, err)
		}

		// Earlier output under dest must not become input, unless dest
		// holds the whole glob base.
		skipOutput := !within(base, dest)

		for _, m := range matches {
			if ignored(m, t.Ignore) || filepath.Join(base, m) == filepath.Clean(transform) {
				logger.Debug().Str("file", m).Msg("skipping ignored match")
				continue
			}
			if skipOutput && within(filepath.Join(base, m), dest) {
				logger.Debug().Str("file", m).Msg("skipping match inside the destination")
				continue
			}
			jobs = append(jobs, Job{
				Source:      filepath.Join(base, m),
				Transform:   transform,
				Destination: filepath.Join(dest, filepath.FromSlash(m)),
				Settings:    settings,
			})
		}

		logger.Debug().Str("pattern", t.Source).Int("matches", len(matches)).Msg("expanded source glob")
	}

	return jobs, nil
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	absPath, err := filepath.Abs(filepath.FromSlash(path))
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func ignored(path string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}
