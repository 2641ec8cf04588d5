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

package operation

import (
	"context"
	"os"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ctt/pkg/log"
	"github.com/walteh/ctt/pkg/state"
	"github.com/walteh/ctt/pkg/status"
)

// 🧹 CleanResult lists what Clean did
type CleanResult struct {
	Removed []string // Destinations deleted
	Kept    []string // Destinations edited since they were written
}

// 🧹 Clean deletes every destination recorded in the lock file. A
// destination edited after it was written is kept unless force is set.
// The lock file itself is removed once nothing recorded remains.
func Clean(ctx context.Context, st *state.State, force bool) (CleanResult, error) {
	l := log.FromContext(ctx)

	var res CleanResult
	for _, f := range append([]state.GeneratedFile(nil), st.GeneratedFiles...) {
		path := st.Abs(f)

		content, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			st.Remove(path)
			continue
		case err != nil:
			return res, errors.Errorf("reading %s: %w", path, err)
		}

		if !force && status.Checksum(content) != f.ContentHash {
			l.Warningf("Keeping '%s', it was edited after it was written.", path)
			res.Kept = append(res.Kept, path)
			continue
		}

		if err := os.Remove(path); err != nil {
			return res, errors.Errorf("removing %s: %w", path, err)
		}
		l.Infof("Removed '%s'.", path)
		st.Remove(path)
		res.Removed = append(res.Removed, path)
	}

	if len(res.Kept) > 0 {
		return res, st.Write(ctx)
	}
	return res, st.Delete(ctx)
}
