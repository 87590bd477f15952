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

// Package gemini adapts Google's genai SDK to pkg/llm.Provider. Tool use
// never reaches this adapter: the reasoning loop drives tool calls through
// generated code, so only plain text completion is wired.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/kadirpekel/tcoagent/pkg/history"
	"github.com/kadirpekel/tcoagent/pkg/llm"
)

// Provider is a pkg/llm.Provider backed by the Google genai SDK.
type Provider struct {
	client *genai.Client
	model  string
}

// New builds a Provider using model (e.g. "gemini-2.0-flash") against the
// given API key.
func New(ctx context.Context, apiKey, model string) (*Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return &Provider{client: client, model: model}, nil
}

func (p *Provider) Name() string { return "gemini:" + p.model }

func (p *Provider) Generate(ctx context.Context, messages []history.Message, stop []string) (llm.CompletionResponse, error) {
	contents, cfg := p.buildRequest(messages, stop)

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("gemini: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return llm.CompletionResponse{}, errors.New("gemini: empty completion")
	}

	return llm.CompletionResponse{
		Content: textFrom(resp.Candidates[0]),
		Model:   p.model,
		Usage:   usageFrom(resp.UsageMetadata),
	}, nil
}

func (p *Provider) GenerateStream(ctx context.Context, messages []history.Message, stop []string) (<-chan llm.StreamChunk, error) {
	contents, cfg := p.buildRequest(messages, stop)

	out := make(chan llm.StreamChunk)
	go pump(ctx, p.client, p.model, contents, cfg, out)
	return out, nil
}

func pump(ctx context.Context, client *genai.Client, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig, out chan<- llm.StreamChunk) {
	defer close(out)

	var usage llm.Usage
	for resp, err := range client.Models.GenerateContentStream(ctx, model, contents, cfg) {
		if err != nil {
			out <- llm.StreamChunk{Err: fmt.Errorf("gemini: %w", err), Done: true}
			return
		}
		if resp.UsageMetadata != nil {
			usage = usageFrom(resp.UsageMetadata)
		}
		if len(resp.Candidates) == 0 {
			continue
		}
		if text := textFrom(resp.Candidates[0]); text != "" {
			out <- llm.StreamChunk{Delta: text}
		}
	}
	out <- llm.StreamChunk{Done: true, Usage: usage}
}

func (p *Provider) buildRequest(messages []history.Message, stop []string) ([]*genai.Content, *genai.GenerateContentConfig) {
	contents, sysInstr := toGenaiContents(messages)
	cfg := &genai.GenerateContentConfig{SystemInstruction: sysInstr}
	if len(stop) > 0 {
		cfg.StopSequences = stop
	}
	return contents, cfg
}

// textFrom concatenates every non-thought text part of a candidate; thought
// parts (Gemini's "thinking" trace) never reach the conversation transcript.
func textFrom(c *genai.Candidate) string {
	if c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range c.Content.Parts {
		if part.Text != "" && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func usageFrom(u *genai.GenerateContentResponseUsageMetadata) llm.Usage {
	if u == nil {
		return llm.Usage{}
	}
	return llm.Usage{
		InputTokens:  int(u.PromptTokenCount),
		OutputTokens: int(u.CandidatesTokenCount),
	}
}

func toGenaiContents(messages []history.Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var sysInstr *genai.Content
	for _, m := range messages {
		text := joinText(m.Content)
		if text == "" {
			continue
		}
		if m.Role == history.RoleSystem {
			sysInstr = &genai.Content{Parts: []*genai.Part{{Text: text}}}
			continue
		}
		role := "user"
		if m.Role == history.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: text}},
			Role:  role,
		})
	}
	return contents, sysInstr
}

func joinText(blocks []history.ContentBlock) string {
	var b strings.Builder
	for _, c := range blocks {
		b.WriteString(c.Text)
	}
	return b.String()
}
