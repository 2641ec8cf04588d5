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

package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ctt/pkg/config"
)

// Fingerprint hashes everything the output of job depends on: the source,
// the transform (or its absence), the parameters file and the settings.
func Fingerprint(job config.Job) (string, error) {
	h := sha256.New()

	settings, err := json.Marshal(job.Settings)
	if err != nil {
		return "", errors.Errorf("encoding settings: %w", err)
	}
	writeField(h, "settings", settings)

	if err := hashFile(h, "source", job.Source, false); err != nil {
		return "", err
	}
	if err := hashFile(h, "transform", job.Transform, true); err != nil {
		return "", err
	}
	if job.Settings.ParametersFile != "" {
		if err := hashFile(h, "parameters", job.Settings.ParametersFile, false); err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashFile(w io.Writer, field, path string, optional bool) error {
	data, err := os.ReadFile(path)
	if optional && os.IsNotExist(err) {
		writeField(w, field, nil)
		return nil
	}
	if err != nil {
		return errors.Errorf("fingerprinting %s: %w", field, err)
	}
	writeField(w, field, data)
	return nil
}

// writeField writes a length prefixed field so neighbouring fields cannot
// run into each other.
func writeField(w io.Writer, name string, data []byte) {
	header, _ := json.Marshal(struct {
		Name string `json:"name"`
		Len  int    `json:"len"`
	}{name, len(data)})
	_, _ = w.Write(header)
	_, _ = w.Write(data)
}
