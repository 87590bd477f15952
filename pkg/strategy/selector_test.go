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

	"github.com/kadirpekel/tcoagent/pkg/history"
	"github.com/kadirpekel/tcoagent/pkg/llm"
	"github.com/kadirpekel/tcoagent/pkg/loop"
)

// fakeLLM returns one canned Generate response (or error), ignoring the
// prompt; GenerateStream and Name are unused by Selector/CheckRouter.
type fakeLLM struct {
	content string
	err     error
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Generate(ctx context.Context, messages []history.Message, stop []string) (llm.CompletionResponse, error) {
	if f.err != nil {
		return llm.CompletionResponse{}, f.err
	}
	return llm.CompletionResponse{Content: f.content}, nil
}

func (f *fakeLLM) GenerateStream(ctx context.Context, messages []history.Message, stop []string) (<-chan llm.StreamChunk, error) {
	panic("not used")
}

// fakeRunner returns one canned answer, ignoring the task.
type fakeRunner struct {
	answer string
	err    error
}

func (r *fakeRunner) Run(ctx context.Context, task string) (*loop.Result, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &loop.Result{Answer: r.answer, IsFinalAnswer: true, Terminated: true}, nil
}

func newRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(&Worker{Name: "chain-of-thought", Description: "single-step reasoning", Runner: &fakeRunner{answer: "cot answer"}})
	reg.Register(&Worker{Name: "code", Description: "thought-code-observation loop", Runner: &fakeRunner{answer: "code answer"}})
	return reg
}

func TestSelector_SingleCandidateSkipsRouting(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Worker{Name: "code", Runner: &fakeRunner{answer: "only one"}})
	s := NewSelector(&fakeLLM{err: errors.New("should never be called")}, reg)
	w, err := s.Select(context.Background(), "do something", nil)
	require.NoError(t, err)
	assert.Equal(t, "code", w.Name)
}

func TestSelector_RoutesByName(t *testing.T) {
	reg := newRegistry()
	s := NewSelector(&fakeLLM{content: `Sure, here you go: {"name": "code", "score": 0.9, "recommended_llm": "gpt-5"}`}, reg)
	w, err := s.Select(context.Background(), "write a function", nil)
	require.NoError(t, err)
	assert.Equal(t, "code", w.Name)
}

func TestSelector_FallsBackOnLLMError(t *testing.T) {
	reg := newRegistry()
	s := NewSelector(&fakeLLM{err: errors.New("connection reset")}, reg)
	w, err := s.Select(context.Background(), "write a function", nil)
	require.NoError(t, err)
	assert.Equal(t, "chain-of-thought", w.Name)
}

func TestSelector_FallsBackOnUnparseableResponse(t *testing.T) {
	reg := newRegistry()
	s := NewSelector(&fakeLLM{content: "not json at all"}, reg)
	w, err := s.Select(context.Background(), "write a function", nil)
	require.NoError(t, err)
	assert.Equal(t, "chain-of-thought", w.Name)
}

func TestSelector_FallsBackOnUnknownWorkerName(t *testing.T) {
	reg := newRegistry()
	s := NewSelector(&fakeLLM{content: `{"name": "nonexistent", "score": 1, "recommended_llm": ""}`}, reg)
	w, err := s.Select(context.Background(), "write a function", nil)
	require.NoError(t, err)
	assert.Equal(t, "chain-of-thought", w.Name)
}

func TestSelector_FilterNarrowsCandidates(t *testing.T) {
	reg := newRegistry()
	s := NewSelector(&fakeLLM{content: `{"name": "code", "score": 0.5, "recommended_llm": ""}`}, reg)
	w, err := s.Select(context.Background(), "task", func(w *Worker) bool { return w.Name == "chain-of-thought" })
	require.NoError(t, err)
	assert.Equal(t, "chain-of-thought", w.Name)
}

func TestSelector_NoCandidatesErrors(t *testing.T) {
	reg := NewRegistry()
	s := NewSelector(&fakeLLM{}, reg)
	_, err := s.Select(context.Background(), "task", nil)
	assert.Error(t, err)
}
