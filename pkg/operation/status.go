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

	"github.com/rs/zerolog"

	"github.com/walteh/ctt/pkg/config"
	"github.com/walteh/ctt/pkg/state"
	"github.com/walteh/ctt/pkg/status"
)

// Reasons a destination is out of date
const (
	ReasonNew      = "never transformed"
	ReasonChanged  = "inputs changed"
	ReasonMissing  = "destination missing"
	ReasonModified = "destination edited"
	ReasonUnknown  = "inputs unreadable"
)

// 📋 JobStatus tells whether a job's destination needs to be written again
type JobStatus struct {
	Job    config.Job
	Reason string // Empty when up to date
}

// UpToDate reports whether the destination matches the lock file.
func (s JobStatus) UpToDate() bool {
	return s.Reason == ""
}

// 🔍 Status compares every job against the lock file without running
// anything.
func Status(ctx context.Context, st *state.State, jobs []config.Job) []JobStatus {
	logger := zerolog.Ctx(ctx)

	out := make([]JobStatus, 0, len(jobs))
	for _, job := range jobs {
		js := JobStatus{Job: job, Reason: reason(st, job)}
		logger.Debug().
			Str("destination", job.Destination).
			Str("reason", js.Reason).
			Msg("checked status")
		out = append(out, js)
	}
	return out
}

func reason(st *state.State, job config.Job) string {
	f, ok := st.Lookup(job.Destination)
	if !ok {
		return ReasonNew
	}

	fp, err := state.Fingerprint(job)
	if err != nil {
		return ReasonUnknown
	}
	if fp != f.InputHash {
		return ReasonChanged
	}

	content, err := os.ReadFile(job.Destination)
	if err != nil {
		return ReasonMissing
	}
	if status.Checksum(content) != f.ContentHash {
		return ReasonModified
	}
	return ""
}
