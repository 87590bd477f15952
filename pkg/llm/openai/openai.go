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

// Package openai adapts OpenAI's chat completions API to pkg/llm.Provider.
// Tool use never reaches this adapter: the reasoning loop drives tool
// calls through generated code, so only plain text completion is wired.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kadirpekel/tcoagent/pkg/history"
	"github.com/kadirpekel/tcoagent/pkg/llm"
)

// Provider is a pkg/llm.Provider backed by an OpenAI chat completions
// client.
type Provider struct {
	client     *openai.Client
	model      string
	maxRetries int
	retryDelay time.Duration
}

type settings struct {
	apiKey     string
	baseURL    string
	maxRetries int
}

// Option configures a Provider at construction time.
type Option func(*settings)

// WithBaseURL points the client at an OpenAI-compatible endpoint other
// than api.openai.com (a local vLLM/Ollama-style gateway, for instance).
func WithBaseURL(url string) Option {
	return func(s *settings) { s.baseURL = url }
}

// WithMaxRetries overrides the number of stream-creation attempts (3 by
// default, the first try included) made on transient failures.
func WithMaxRetries(n int) Option {
	return func(s *settings) { s.maxRetries = n }
}

// New builds a Provider using model (e.g. "gpt-4o") against the given API
// key.
func New(apiKey, model string, opts ...Option) *Provider {
	s := settings{apiKey: apiKey, maxRetries: 3}
	for _, opt := range opts {
		opt(&s)
	}

	cfg := openai.DefaultConfig(s.apiKey)
	if s.baseURL != "" {
		cfg.BaseURL = s.baseURL
	}

	return &Provider{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		maxRetries: s.maxRetries,
		retryDelay: time.Second,
	}
}

func (p *Provider) Name() string { return "openai:" + p.model }

func (p *Provider) Generate(ctx context.Context, messages []history.Message, stop []string) (llm.CompletionResponse, error) {
	req := p.buildRequest(messages, stop)
	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return llm.CompletionResponse{}, errors.New("openai: empty completion")
	}
	return llm.CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage:   usageFrom(resp.Usage),
	}, nil
}

func (p *Provider) GenerateStream(ctx context.Context, messages []history.Message, stop []string) (<-chan llm.StreamChunk, error) {
	req := p.buildRequest(messages, stop)
	req.Stream = true
	req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	var stream *openai.ChatCompletionStream
	var lastErr error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.retryDelay * time.Duration(attempt)):
			}
		}
		stream, lastErr = p.client.CreateChatCompletionStream(ctx, req)
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("openai: %w", lastErr)
	}

	out := make(chan llm.StreamChunk)
	go pump(stream, out)
	return out, nil
}

func pump(stream *openai.ChatCompletionStream, out chan<- llm.StreamChunk) {
	defer close(out)
	defer stream.Close()

	var usage llm.Usage
	for {
		resp, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				out <- llm.StreamChunk{Done: true, Usage: usage}
				return
			}
			out <- llm.StreamChunk{Err: fmt.Errorf("openai: %w", err), Done: true}
			return
		}
		if resp.Usage != nil {
			usage = usageFrom(*resp.Usage)
			continue
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			out <- llm.StreamChunk{Delta: delta}
		}
	}
}

func (p *Provider) buildRequest(messages []history.Message, stop []string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: toOpenAIMessages(messages),
		Stop:     stop,
	}
}

func toOpenAIMessages(messages []history.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    toOpenAIRole(m.Role),
			Content: joinText(m.Content),
		})
	}
	return out
}

func toOpenAIRole(r history.Role) string {
	switch r {
	case history.RoleSystem:
		return openai.ChatMessageRoleSystem
	case history.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case history.RoleTool:
		return openai.ChatMessageRoleUser
	default:
		return openai.ChatMessageRoleUser
	}
}

func joinText(blocks []history.ContentBlock) string {
	if len(blocks) == 1 {
		return blocks[0].Text
	}
	var out string
	for _, b := range blocks {
		out += b.Text
	}
	return out
}

func usageFrom(u openai.Usage) llm.Usage {
	return llm.Usage{
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
	}
}
