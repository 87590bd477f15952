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

// Package anthropic adapts Anthropic's Messages API to pkg/llm.Provider.
// Tool use never reaches this adapter: the reasoning loop drives tool
// calls through generated code, so only plain text completion is wired.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/kadirpekel/tcoagent/pkg/history"
	"github.com/kadirpekel/tcoagent/pkg/llm"
)

const defaultMaxTokens = 4096

// Provider is a pkg/llm.Provider backed by the Anthropic Messages API.
type Provider struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// Option configures a Provider at construction time.
type Option func(*Provider)

// WithMaxTokens overrides the response token budget (default 4096).
func WithMaxTokens(n int) Option {
	return func(p *Provider) { p.maxTokens = int64(n) }
}

// New builds a Provider using model (e.g. "claude-sonnet-4-20250514")
// against the given API key. baseURL, if non-empty, overrides the
// default Anthropic endpoint.
func New(apiKey, model, baseURL string, opts ...Option) *Provider {
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}

	p := &Provider{
		client:    anthropic.NewClient(reqOpts...),
		model:     model,
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string { return "anthropic:" + p.model }

func (p *Provider) Generate(ctx context.Context, messages []history.Message, stop []string) (llm.CompletionResponse, error) {
	params := p.buildParams(messages, stop)
	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("anthropic: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}

	return llm.CompletionResponse{
		Content: text.String(),
		Model:   string(resp.Model),
		Usage: llm.Usage{
			InputTokens:              int(resp.Usage.InputTokens),
			OutputTokens:             int(resp.Usage.OutputTokens),
			CacheCreationInputTokens: int(resp.Usage.CacheCreationInputTokens),
			CacheReadInputTokens:     int(resp.Usage.CacheReadInputTokens),
		},
	}, nil
}

func (p *Provider) GenerateStream(ctx context.Context, messages []history.Message, stop []string) (<-chan llm.StreamChunk, error) {
	params := p.buildParams(messages, stop)
	stream := p.client.Messages.NewStreaming(ctx, params)

	out := make(chan llm.StreamChunk)
	go pump(stream, out)
	return out, nil
}

func pump(stream *ssestream.Stream[anthropic.MessageStreamEventUnion], out chan<- llm.StreamChunk) {
	defer close(out)

	var inputTokens, outputTokens int

	for stream.Next() {
		event := stream.Current()
		switch event.Type {
		case "message_start":
			start := event.AsMessageStart()
			inputTokens = int(start.Message.Usage.InputTokens)

		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			if delta.Type == "text_delta" && delta.Text != "" {
				out <- llm.StreamChunk{Delta: delta.Text}
			}

		case "message_delta":
			usage := event.AsMessageDelta().Usage
			if usage.OutputTokens > 0 {
				outputTokens = int(usage.OutputTokens)
			}

		case "message_stop":
			out <- llm.StreamChunk{Done: true, Usage: llm.Usage{InputTokens: inputTokens, OutputTokens: outputTokens}}
			return
		}
	}

	if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
		out <- llm.StreamChunk{Err: fmt.Errorf("anthropic: %w", err), Done: true}
		return
	}
	out <- llm.StreamChunk{Done: true, Usage: llm.Usage{InputTokens: inputTokens, OutputTokens: outputTokens}}
}

func (p *Provider) buildParams(messages []history.Message, stop []string) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages:  toAnthropicMessages(messages),
	}
	if len(stop) > 0 {
		params.StopSequences = stop
	}
	if sys := systemText(messages); sys != "" {
		params.System = []anthropic.TextBlockParam{{Text: sys}}
	}
	return params
}

func systemText(messages []history.Message) string {
	var b strings.Builder
	for _, m := range messages {
		if m.Role == history.RoleSystem {
			b.WriteString(joinText(m.Content))
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String())
}

func toAnthropicMessages(messages []history.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		if m.Role == history.RoleSystem {
			continue
		}
		block := anthropic.NewTextBlock(joinText(m.Content))
		if m.Role == history.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			// history.RoleUser and history.RoleTool both map onto a user
			// turn: tool results are folded into the transcript as plain
			// text observations, not structured tool_result blocks, since
			// Anthropic's native tool_use/tool_result protocol is never
			// exercised here (tool calls flow through generated code).
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}

func joinText(blocks []history.ContentBlock) string {
	var b strings.Builder
	for _, c := range blocks {
		b.WriteString(c.Text)
	}
	return b.String()
}
