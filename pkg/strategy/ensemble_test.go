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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsembleRunner_MajorityVote(t *testing.T) {
	workers := []*Worker{
		{Name: "a", Runner: &fakeRunner{answer: "42"}},
		{Name: "b", Runner: &fakeRunner{answer: "42"}},
		{Name: "c", Runner: &fakeRunner{answer: "7"}},
	}
	e := NewEnsembleRunner(workers, MajorityVote)
	ans, _, err := e.Run(context.Background(), "what is the answer")
	require.NoError(t, err)
	assert.Equal(t, "42", ans)
}

func TestEnsembleRunner_MajorityVoteTieBreaksFirstSeen(t *testing.T) {
	workers := []*Worker{
		{Name: "a", Runner: &fakeRunner{answer: "first"}},
		{Name: "b", Runner: &fakeRunner{answer: "second"}},
	}
	e := NewEnsembleRunner(workers, MajorityVote)
	ans, _, err := e.Run(context.Background(), "task")
	require.NoError(t, err)
	assert.Equal(t, "first", ans)
}

func TestEnsembleRunner_BestOfNPicksHighestScore(t *testing.T) {
	workers := []*Worker{
		{Name: "a", Score: 0.2, Runner: &fakeRunner{answer: "low"}},
		{Name: "b", Score: 0.9, Runner: &fakeRunner{answer: "high"}},
	}
	e := NewEnsembleRunner(workers, BestOfN)
	ans, _, err := e.Run(context.Background(), "task")
	require.NoError(t, err)
	assert.Equal(t, "high", ans)
}

func TestEnsembleRunner_SkipsFailedWorkers(t *testing.T) {
	workers := []*Worker{
		{Name: "a", Runner: &fakeRunner{err: errors.New("boom")}},
		{Name: "b", Runner: &fakeRunner{answer: "survivor"}},
	}
	e := NewEnsembleRunner(workers, MajorityVote)
	ans, _, err := e.Run(context.Background(), "task")
	require.NoError(t, err)
	assert.Equal(t, "survivor", ans)
}

func TestEnsembleRunner_AllFailedReturnsError(t *testing.T) {
	workers := []*Worker{
		{Name: "a", Runner: &fakeRunner{err: errors.New("boom")}},
	}
	e := NewEnsembleRunner(workers, MajorityVote)
	_, _, err := e.Run(context.Background(), "task")
	assert.Error(t, err)
}

// passingVerifier approves whatever worker name it's told to approve,
// rejecting everything else.
type passingVerifier struct{ approve string }

func (v passingVerifier) Verify(ctx context.Context, task, answer string) (bool, error) {
	return answer == v.approve, nil
}

func TestEnsembleRunner_RankedImprovementAcceptsTopRankWithoutVerifier(t *testing.T) {
	workers := []*Worker{
		{Name: "a", Score: 0.9, Runner: &fakeRunner{answer: "best"}},
		{Name: "b", Score: 0.1, Runner: &fakeRunner{answer: "worst"}},
	}
	e := NewEnsembleRunner(workers, RankedImprovement)
	ans, _, err := e.Run(context.Background(), "task")
	require.NoError(t, err)
	assert.Equal(t, "best", ans)
}

func TestEnsembleRunner_RankedImprovementFallsThroughToPassingCandidate(t *testing.T) {
	workers := []*Worker{
		{Name: "a", Score: 0.9, Runner: &fakeRunner{answer: "bad-top"}},
		{Name: "b", Score: 0.1, Runner: &fakeRunner{answer: "good-second"}},
	}
	e := NewEnsembleRunner(workers, RankedImprovement)
	e.Verifier = passingVerifier{approve: "good-second"}
	e.MaxImprovementAttempts = 1
	ans, _, err := e.Run(context.Background(), "task")
	require.NoError(t, err)
	assert.Equal(t, "good-second", ans)
}
