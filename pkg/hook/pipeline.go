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

package hook

import (
	"context"
	"fmt"

	"github.com/kadirpekel/tcoagent/pkg/tcoerrors"
	"github.com/kadirpekel/tcoagent/pkg/tool"
	"github.com/kadirpekel/tcoagent/pkg/value"
)

// Result is what Dispatch produces for one tool call: the observation
// value, plus any AdditionalContext strings PostHooks attached (spec
// §4.C.4 — these are folded into the observation text by pkg/observation,
// not here).
type Result struct {
	Value             value.Value
	AdditionalContext []string
}

// Dispatch runs toolName through the configured pre/post pipeline around
// a single call on reg, implementing spec §4.C's four-step sequence:
// PreHooks (which may deny, ask, or rewrite the call), the call itself,
// then PostHooks (which may attach context or abort the block).
func (c *Config) Dispatch(ctx context.Context, reg *tool.Registry, toolName string, kwargs map[string]value.Value, callID string) (Result, error) {
	effectiveKwargs := kwargs
	nativeInput := tool.KwargsToNative(kwargs)

	for _, e := range c.pre {
		if !e.matcher.Matches(toolName) {
			continue
		}
		pr, err := e.hook(toolName, nativeInput, callID)
		if err != nil {
			return Result{}, tcoerrors.HookError{ToolName: toolName, Phase: "pre", Err: err}
		}
		switch pr.Decision {
		case Deny:
			return Result{Value: value.Str(denialText(pr))}, nil
		case Ask:
			if !c.acceptAsk {
				return Result{Value: value.Str(denialText(pr))}, nil
			}
		}
		if pr.ModifiedInput != nil {
			nativeInput = pr.ModifiedInput
			effectiveKwargs = nativeKwargs(nativeInput)
		}
	}

	result, callErr := reg.ExecuteTool(ctx, toolName, effectiveKwargs)

	var nativeResult interface{}
	if callErr == nil {
		nativeResult = tool.ToNative(result)
	}

	var additional []string
	for _, e := range c.post {
		if !e.matcher.Matches(toolName) {
			continue
		}
		pr, err := e.hook(toolName, nativeInput, callID, nativeResult, callErr)
		if err != nil {
			return Result{}, tcoerrors.HookError{ToolName: toolName, Phase: "post", Err: err}
		}
		if pr.AdditionalContext != "" {
			additional = append(additional, pr.AdditionalContext)
		}
		if !pr.ContinueExecution {
			return Result{}, tcoerrors.HookError{
				ToolName: toolName,
				Phase:    "post",
				Err:      fmt.Errorf("execution stopped: %s", pr.StopReason),
			}
		}
	}

	if callErr != nil {
		return Result{}, callErr
	}
	return Result{Value: result, AdditionalContext: additional}, nil
}

func nativeKwargs(native map[string]interface{}) map[string]value.Value {
	out := make(map[string]value.Value, len(native))
	for k, v := range native {
		out[k] = tool.FromNative(v)
	}
	return out
}
