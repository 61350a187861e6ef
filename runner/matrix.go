// Copyright 2025 The stellarhw Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/stellarhw/app-stellar-harness/api/common"
	"github.com/stellarhw/app-stellar-harness/fixtures"
	"golang.org/x/sync/errgroup"
)

// Cases returns one approving case per fixture and model, in fixture order. Fixtures for which
// filter returns false are left out; a nil filter keeps all. Plugin fixtures are only paired with
// models that have the plugin.
func Cases(models []common.Model, filter func(fixtures.Fixture) bool) []Case {
	var cases []Case
	for _, fixture := range fixtures.List() {
		if filter != nil && !filter(fixture) {
			continue
		}
		for _, model := range models {
			if fixtures.RequiresPlugin(fixture.Name) && !model.HasPlugin() {
				continue
			}
			cases = append(cases, Case{Fixture: fixture, Model: model})
		}
	}
	return cases
}

// MatrixError is returned by RunMatrix if any case failed.
type MatrixError struct {
	Failed []Result
	Total  int
}

// Error implements error.
func (err *MatrixError) Error() string {
	names := make([]string, len(err.Failed))
	for i, result := range err.Failed {
		names[i] = fmt.Sprintf("%s (%s)", result.Name, result.Class)
	}
	return fmt.Sprintf("%d of %d cases failed: %s", len(err.Failed), err.Total, strings.Join(names, ", "))
}

// RunMatrix runs cases with at most Config.Parallelism of them at once. Results are in the order
// of cases. A failing case does not stop the others; the returned error is a *MatrixError listing
// all failures.
func (runner *Runner) RunMatrix(ctx context.Context, cases []Case) ([]Result, error) {
	results := make([]Result, len(cases))
	var group errgroup.Group
	group.SetLimit(runner.config.Parallelism)
	for i, c := range cases {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{
					Name: c.Name(), Model: c.Model, State: StateFailed, Class: Classify(err), Err: err,
				}
				return nil
			}
			results[i], _ = runner.Run(ctx, c)
			return nil
		})
	}
	_ = group.Wait()
	var failed []Result
	for _, result := range results {
		if result.Err != nil {
			failed = append(failed, result)
		}
	}
	if len(failed) > 0 {
		return results, &MatrixError{Failed: failed, Total: len(results)}
	}
	return results, nil
}
