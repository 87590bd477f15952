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

// Package llm is the provider-agnostic contract the reasoning loop calls
// into; pkg/llm/openai, pkg/llm/anthropic, and pkg/llm/gemini are thin
// adapters onto it.
package llm

import (
	"context"

	"github.com/kadirpekel/tcoagent/pkg/history"
)

// Usage tracks token/cost accounting with additive semantics across a
// session, so a loop can sum per-call Usage into a running session total.
type Usage struct {
	InputTokens              int
	OutputTokens             int
	CacheCreationInputTokens int
	CacheReadInputTokens     int
	CostUSD                  float64
}

// Add returns the element-wise sum of u and o.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:              u.InputTokens + o.InputTokens,
		OutputTokens:             u.OutputTokens + o.OutputTokens,
		CacheCreationInputTokens: u.CacheCreationInputTokens + o.CacheCreationInputTokens,
		CacheReadInputTokens:     u.CacheReadInputTokens + o.CacheReadInputTokens,
		CostUSD:                  u.CostUSD + o.CostUSD,
	}
}

// CompletionResponse is a non-streaming completion result.
type CompletionResponse struct {
	Content string
	Model   string
	Usage   Usage
}

// StreamChunk is one piece of a streaming completion. A chunk with Done
// set carries the final accumulated Usage and no further chunks follow.
type StreamChunk struct {
	Delta string
	Done  bool
	Usage Usage
	Err   error
}

// Provider is the external LLM dependency the reasoning loop consumes:
// one-shot and streaming text completion over a message list, with an
// optional stop-sequence list (the loop passes "<end_code>").
type Provider interface {
	Generate(ctx context.Context, messages []history.Message, stop []string) (CompletionResponse, error)
	GenerateStream(ctx context.Context, messages []history.Message, stop []string) (<-chan StreamChunk, error)

	// Name identifies the provider for error messages (tcoerrors.LLMError).
	Name() string
}
