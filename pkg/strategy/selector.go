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
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kadirpekel/tcoagent/pkg/history"
	"github.com/kadirpekel/tcoagent/pkg/llm"
)

// routingDecision is the structured-output shape the router is instructed
// to return: {name, score, recommended_llm}.
type routingDecision struct {
	Name           string  `json:"name"`
	Score          float64 `json:"score"`
	RecommendedLLM string  `json:"recommended_llm"`
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// Selector routes a task to one Worker by name, using a one-shot LLM call
// over the candidate registry rather than a fixed dispatch table.
type Selector struct {
	LLM      llm.Provider
	Registry *Registry
	// Fallback names the Worker used when the router call fails or names
	// a Worker outside the candidate set; defaults to "chain-of-thought".
	Fallback string
}

// NewSelector builds a Selector that falls back to the worker named
// "chain-of-thought" when routing fails.
func NewSelector(llmProvider llm.Provider, reg *Registry) *Selector {
	return &Selector{LLM: llmProvider, Registry: reg, Fallback: "chain-of-thought"}
}

// Select picks one Worker for task, considering only the Workers filter
// keeps (or the whole registry when filter is nil).
func (s *Selector) Select(ctx context.Context, task string, filter func(*Worker) bool) (*Worker, error) {
	candidates := s.Registry.List()
	if filter != nil {
		candidates = s.Registry.Filter(filter)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("strategy: no candidate workers to select from")
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	decision, err := s.route(ctx, task, candidates)
	if err != nil {
		return s.fallback(candidates)
	}

	for _, w := range candidates {
		if w.Name == decision.Name {
			return w, nil
		}
	}
	return s.fallback(candidates)
}

func (s *Selector) fallback(candidates []*Worker) (*Worker, error) {
	for _, w := range candidates {
		if w.Name == s.Fallback {
			return w, nil
		}
	}
	return candidates[0], nil
}

func (s *Selector) route(ctx context.Context, task string, candidates []*Worker) (routingDecision, error) {
	var b strings.Builder
	b.WriteString("Pick the single best worker for the task below. ")
	b.WriteString("Respond with only a JSON object of the form ")
	b.WriteString(`{"name": "<worker name>", "score": <0-1 confidence>, "recommended_llm": "<model name or empty>"}.`)
	b.WriteString("\n\nWorkers:\n")
	for _, w := range candidates {
		fmt.Fprintf(&b, "- %s: %s\n", w.Name, w.Description)
	}
	fmt.Fprintf(&b, "\nTask: %s\n", task)

	messages := []history.Message{history.TextMessage(history.RoleUser, b.String())}
	resp, err := s.LLM.Generate(ctx, messages, nil)
	if err != nil {
		return routingDecision{}, err
	}

	match := jsonObjectRe.FindString(resp.Content)
	if match == "" {
		return routingDecision{}, fmt.Errorf("strategy: router response had no JSON object")
	}

	var decision routingDecision
	if err := json.Unmarshal([]byte(match), &decision); err != nil {
		return routingDecision{}, err
	}
	if decision.Name == "" {
		return routingDecision{}, fmt.Errorf("strategy: router returned no worker name")
	}
	return decision, nil
}
