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
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/ctt/pkg/config"
	"github.com/walteh/ctt/pkg/log"
	"github.com/walteh/ctt/pkg/state"
	"github.com/walteh/ctt/pkg/status"
	"github.com/walteh/ctt/pkg/transform"
)

// ErrJobFailed wraps the first failed job reported by Run
var ErrJobFailed = errors.New("transformation failed")

// 📊 Outcome pairs a job with its result
type Outcome struct {
	Job     config.Job
	Result  transform.Result
	Skipped bool // Up to date according to the lock file
}

// 🏃 Runner executes batch jobs
type Runner struct {
	exec     Executor
	parallel int
	state    *state.State
}

// 🏗️ NewRunner creates a new runner. parallel below 2 runs jobs one after
// another.
func NewRunner(exec Executor, parallel int) *Runner {
	if exec == nil {
		exec = DefaultExecutor
	}
	if parallel < 1 {
		parallel = 1
	}
	return &Runner{exec: exec, parallel: parallel}
}

// WithState makes the runner skip jobs the lock file records as up to date
// and record every job that succeeds.
func (r *Runner) WithState(st *state.State) *Runner {
	r.state = st
	return r
}

// 🏃 Run executes every job and returns their outcomes in job order. Every
// job runs even when an earlier one fails; the error names the first
// failure in job order.
func (r *Runner) Run(ctx context.Context, jobs []config.Job) ([]Outcome, error) {
	logger := zerolog.Ctx(ctx)
	l := log.FromContext(ctx)
	l.Header("running " + pluralize(len(jobs), "transformation"))

	outcomes := make([]Outcome, len(jobs))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallel)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return errors.Errorf("run cancelled: %w", err)
			}

			out := r.runOne(gctx, job)

			mu.Lock()
			outcomes[i] = out
			mu.Unlock()

			logger.Debug().
				Str("source", job.Source).
				Str("destination", job.Destination).
				Bool("success", out.Result.Success).
				Bool("skipped", out.Skipped).
				Msg("job finished")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}

	for _, o := range outcomes {
		if o.Result.Success {
			continue
		}
		if o.Result.Err != nil {
			return outcomes, errors.Errorf("%w: %s: %s", ErrJobFailed, o.Job.Source, o.Result.Err.Error())
		}
		return outcomes, errors.Errorf("%w: %s", ErrJobFailed, o.Job.Source)
	}

	l.Successf("%s completed", pluralize(len(jobs), "transformation"))
	return outcomes, nil
}

func (r *Runner) runOne(ctx context.Context, job config.Job) Outcome {
	l := log.FromContext(ctx)
	out := Outcome{Job: job}

	var fingerprint string
	if r.state != nil {
		fp, err := state.Fingerprint(job)
		if err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Str("source", job.Source).Msg("not fingerprinted")
		}
		fingerprint = fp
		if fp != "" && r.state.Fresh(job.Destination, fp) {
			l.Infof("Skipping '%s', it is up to date.", job.Destination)
			out.Skipped = true
			out.Result = transform.Result{Success: true, Status: status.StatusUnchanged}
			return out
		}
	}

	opts, err := Options(ctx, job)
	if err != nil {
		l.Errorf("%s: %v", job.Source, err)
		out.Result = transform.Result{Err: err}
		return out
	}

	out.Result = r.exec.Execute(ctx, opts)

	if r.state != nil && fingerprint != "" && out.Result.Success {
		content, err := os.ReadFile(job.Destination)
		if err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Str("destination", job.Destination).Msg("not recorded")
			return out
		}
		r.state.Put(ctx, job, fingerprint, status.Checksum(content))
	}
	return out
}

func pluralize(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
