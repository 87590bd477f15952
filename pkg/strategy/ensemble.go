// Copyright 2025 Kadir Pekel
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

package strategy

import (
	"context"
	"sort"
	"sync"

	"github.com/kadirpekel/tcoagent/pkg/llm"
)

// Mode names one of the four result-reduction strategies.
type Mode string

const (
	// MajorityVote picks the most common answer; ties resolve to whichever
	// tied answer was produced first.
	MajorityVote Mode = "majority_vote"
	// BestOfN picks the answer from the Worker with the highest Score.
	BestOfN Mode = "best_of_n"
	// SelfConsistency counts semantically-identical answers the same way
	// MajorityVote does; kept as a distinct Mode because the two diverge
	// once a real equivalence check (rather than string equality) lands.
	SelfConsistency Mode = "self_consistency"
	// RankedImprovement ranks workers by Score, then — if a Verifier is
	// configured — tries each in rank order, re-running the loser with
	// feedback appended, until one verifies or the attempt budget runs out.
	RankedImprovement Mode = "ranked_improvement"
)

// Verifier checks a candidate answer, e.g. by running it through a
// CheckRouter-selected Checker. RankedImprovement degrades to "accept the
// top-ranked answer outright" when Verifier is nil.
type Verifier interface {
	Verify(ctx context.Context, task, answer string) (bool, error)
}

// EnsembleRunner runs every registered Worker concurrently and reduces
// their answers to one, per Mode.
type EnsembleRunner struct {
	Workers  []*Worker
	Mode     Mode
	Verifier Verifier
	// MaxImprovementAttempts bounds how many times RankedImprovement
	// verifies each candidate, re-running it between failed checks (so at
	// most MaxImprovementAttempts-1 re-runs); ignored by the other modes.
	MaxImprovementAttempts int
}

// NewEnsembleRunner builds a runner over workers using mode, with the
// RankedImprovement attempt budget defaulted to 3.
func NewEnsembleRunner(workers []*Worker, mode Mode) *EnsembleRunner {
	return &EnsembleRunner{Workers: workers, Mode: mode, MaxImprovementAttempts: 3}
}

// Run executes every Worker on task and reduces their answers per Mode.
func (e *EnsembleRunner) Run(ctx context.Context, task string) (string, llm.Usage, error) {
	runs := e.runAll(ctx, task)

	succeeded := make([]run, 0, len(runs))
	for _, r := range runs {
		if r.err == nil && r.result != nil {
			succeeded = append(succeeded, r)
		}
	}

	var usage llm.Usage
	for _, r := range succeeded {
		usage = usage.Add(r.result.Usage)
	}

	if len(succeeded) == 0 {
		if len(runs) > 0 {
			return "", usage, runs[0].err
		}
		return "", usage, nil
	}

	switch e.Mode {
	case BestOfN:
		return e.bestOfN(succeeded), usage, nil
	case RankedImprovement:
		answer, extra := e.rankedImprovement(ctx, task, succeeded)
		return answer, usage.Add(extra), nil
	default: // MajorityVote, SelfConsistency
		return majorityVote(succeeded), usage, nil
	}
}

func (e *EnsembleRunner) runAll(ctx context.Context, task string) []run {
	runs := make([]run, len(e.Workers))
	var wg sync.WaitGroup
	for i, w := range e.Workers {
		wg.Add(1)
		go func(i int, w *Worker) {
			defer wg.Done()
			res, err := w.Runner.Run(ctx, task)
			runs[i] = run{worker: w, result: res, err: err}
		}(i, w)
	}
	wg.Wait()
	return runs
}

// majorityVote returns the answer with the highest occurrence count,
// ties broken by first appearance — mirrors Counter.most_common(1).
func majorityVote(runs []run) string {
	counts := make(map[string]int, len(runs))
	order := make([]string, 0, len(runs))
	for _, r := range runs {
		ans := r.result.Answer
		if counts[ans] == 0 {
			order = append(order, ans)
		}
		counts[ans]++
	}

	best := order[0]
	bestCount := counts[best]
	for _, ans := range order[1:] {
		if counts[ans] > bestCount {
			best = ans
			bestCount = counts[ans]
		}
	}
	return best
}

// bestOfN returns the answer from whichever Worker carries the highest
// Score, ties broken by registration order.
func (e *EnsembleRunner) bestOfN(runs []run) string {
	best := runs[0]
	for _, r := range runs[1:] {
		if r.worker.Score > best.worker.Score {
			best = r
		}
	}
	return best.result.Answer
}

// rankedImprovement ranks runs by Worker.Score descending, then accepts
// the first candidate the Verifier passes, verifying each candidate up to
// MaxImprovementAttempts times and re-running it with the failure fed back
// into the task between attempts. If none verifies, the original
// top-ranked answer is returned. With no Verifier configured, it returns
// the top-ranked answer outright.
func (e *EnsembleRunner) rankedImprovement(ctx context.Context, task string, runs []run) (string, llm.Usage) {
	ranked := append([]run(nil), runs...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].worker.Score > ranked[j].worker.Score
	})

	if e.Verifier == nil {
		return ranked[0].result.Answer, llm.Usage{}
	}

	attempts := e.MaxImprovementAttempts
	if attempts <= 0 {
		attempts = 3
	}

	var extra llm.Usage
	for _, cand := range ranked {
		current := cand
		for attempt := 0; attempt < attempts; attempt++ {
			ok, err := e.Verifier.Verify(ctx, task, current.result.Answer)
			if err == nil && ok {
				return current.result.Answer, extra
			}
			if attempt == attempts-1 {
				break
			}
			retryTask := task + "\n\nThe previous answer failed verification:\n" + current.result.Answer + "\nRevise it."
			res, err := current.worker.Runner.Run(ctx, retryTask)
			if err != nil {
				break
			}
			extra = extra.Add(res.Usage)
			current.result = res
		}
	}
	return ranked[0].result.Answer, extra
}
