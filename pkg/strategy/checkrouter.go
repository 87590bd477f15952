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
	"strings"

	"github.com/kadirpekel/tcoagent/pkg/history"
	"github.com/kadirpekel/tcoagent/pkg/llm"
)

// Checker verifies a produced answer against some criterion (re-running
// it, diffing against an expected value, executing doctests, ...).
type Checker interface {
	Name() string
	Description() string
	Check(ctx context.Context, task, answer string) (bool, error)
}

type checkDecision struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// CheckRouter picks a verification strategy for a produced answer before
// it is accepted as final — a peer of Selector that routes to a Checker
// instead of a Worker. Routing failures (LLM error, unparseable response)
// fall back to DefaultChecker; an unregistered name is replaced by the
// most similar registered checker name, with no similarity threshold.
type CheckRouter struct {
	LLM      llm.Provider
	checkers []Checker
	byName   map[string]Checker

	// DefaultChecker names the Checker used on any routing failure.
	DefaultChecker string
}

// NewCheckRouter builds a router defaulting to the checker named "check"
// on any routing failure.
func NewCheckRouter(llmProvider llm.Provider, checkers ...Checker) *CheckRouter {
	r := &CheckRouter{LLM: llmProvider, byName: make(map[string]Checker), DefaultChecker: "check"}
	for _, c := range checkers {
		r.checkers = append(r.checkers, c)
		r.byName[c.Name()] = c
	}
	return r
}

// Route picks a Checker for the given task/answer pair.
func (r *CheckRouter) Route(ctx context.Context, task, answer string) (Checker, error) {
	if len(r.checkers) == 0 {
		return nil, fmt.Errorf("strategy: no checkers registered")
	}
	if len(r.checkers) == 1 {
		return r.checkers[0], nil
	}

	decision, err := r.route(ctx, task, answer)
	if err != nil {
		return r.fallback()
	}

	if c, ok := r.byName[decision.Name]; ok {
		return c, nil
	}

	names := make([]string, 0, len(r.checkers))
	for _, c := range r.checkers {
		names = append(names, c.Name())
	}
	if match := mostSimilar(decision.Name, names); match != "" {
		return r.byName[match], nil
	}
	return r.fallback()
}

func (r *CheckRouter) fallback() (Checker, error) {
	if c, ok := r.byName[r.DefaultChecker]; ok {
		return c, nil
	}
	if len(r.checkers) > 0 {
		return r.checkers[0], nil
	}
	return nil, fmt.Errorf("strategy: no checkers registered")
}

func (r *CheckRouter) route(ctx context.Context, task, answer string) (checkDecision, error) {
	var b strings.Builder
	b.WriteString("Pick the single best verification strategy for the answer below. ")
	b.WriteString(`Respond with only a JSON object of the form {"name": "<checker name>", "reason": "<why>"}.`)
	b.WriteString("\n\nCheckers:\n")
	for _, c := range r.checkers {
		fmt.Fprintf(&b, "- %s: %s\n", c.Name(), c.Description())
	}
	fmt.Fprintf(&b, "\nTask: %s\nAnswer: %s\n", task, answer)

	messages := []history.Message{history.TextMessage(history.RoleUser, b.String())}
	resp, err := r.LLM.Generate(ctx, messages, nil)
	if err != nil {
		return checkDecision{}, err
	}

	match := jsonObjectRe.FindString(resp.Content)
	if match == "" {
		return checkDecision{}, fmt.Errorf("strategy: check router response had no JSON object")
	}

	var decision checkDecision
	if err := json.Unmarshal([]byte(match), &decision); err != nil {
		return checkDecision{}, err
	}
	if decision.Name == "" {
		return checkDecision{}, fmt.Errorf("strategy: check router returned no checker name")
	}
	return decision, nil
}

// Execute routes to a Checker and runs it in one call, the convenience
// path a reasoning loop uses right before accepting an answer as final.
func (r *CheckRouter) Execute(ctx context.Context, task, answer string) (bool, error) {
	checker, err := r.Route(ctx, task, answer)
	if err != nil {
		return false, err
	}
	return checker.Check(ctx, task, answer)
}

// AsVerifier adapts CheckRouter to the Verifier interface, so
// RankedImprovement can route each ensemble candidate through whichever
// Checker the router picks rather than a single fixed one.
func (r *CheckRouter) AsVerifier() Verifier {
	return checkRouterVerifier{r}
}

type checkRouterVerifier struct{ router *CheckRouter }

func (v checkRouterVerifier) Verify(ctx context.Context, task, answer string) (bool, error) {
	return v.router.Execute(ctx, task, answer)
}
