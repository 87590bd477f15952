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
	"testing"

	"github.com/kadirpekel/tcoagent/pkg/tool"
	"github.com/kadirpekel/tcoagent/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoRegistry(t *testing.T, name string) *tool.Registry {
	t.Helper()
	reg := tool.NewRegistry()
	require.NoError(t, reg.Register(tool.NewFnTool(name, "echoes its input", nil,
		func(ctx context.Context, kwargs map[string]interface{}) (interface{}, error) {
			return kwargs["text"], nil
		})))
	return reg
}

func TestDispatch_AcceptRunsTheTool(t *testing.T) {
	reg := echoRegistry(t, "echo")
	cfg := NewConfig()

	res, err := cfg.Dispatch(context.Background(), reg, "echo", map[string]value.Value{"text": value.Str("hi")}, "call-1")
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Value.String())
}

func TestDispatch_DenySynthesizesObservationWithoutCallingTool(t *testing.T) {
	called := false
	reg := tool.NewRegistry()
	require.NoError(t, reg.Register(tool.NewFnTool("echo", "echoes", nil,
		func(ctx context.Context, kwargs map[string]interface{}) (interface{}, error) {
			called = true
			return kwargs["text"], nil
		})))

	cfg := NewConfig().AddPreToolUse(Patterns{"*"}, func(toolName string, input map[string]interface{}, callID string) (PreResult, error) {
		return PreResult{Decision: Deny, Reason: "writes disabled"}, nil
	})

	res, err := cfg.Dispatch(context.Background(), reg, "echo", map[string]value.Value{"text": value.Str("hi")}, "call-1")
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, "permission denied: writes disabled", res.Value.String())
}

func TestDispatch_AskWithoutAcceptPolicyBehavesLikeDeny(t *testing.T) {
	reg := echoRegistry(t, "echo")
	cfg := NewConfig().AddPreToolUse(Patterns{"*"}, func(toolName string, input map[string]interface{}, callID string) (PreResult, error) {
		return PreResult{Decision: Ask, Message: "needs consent"}, nil
	})

	res, err := cfg.Dispatch(context.Background(), reg, "echo", map[string]value.Value{"text": value.Str("hi")}, "call-1")
	require.NoError(t, err)
	assert.Equal(t, "needs consent", res.Value.String())
}

func TestDispatch_AskWithAcceptPolicyRunsTheTool(t *testing.T) {
	reg := echoRegistry(t, "echo")
	cfg := NewConfig().AcceptAsk(true).AddPreToolUse(Patterns{"*"}, func(toolName string, input map[string]interface{}, callID string) (PreResult, error) {
		return PreResult{Decision: Ask}, nil
	})

	res, err := cfg.Dispatch(context.Background(), reg, "echo", map[string]value.Value{"text": value.Str("hi")}, "call-1")
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Value.String())
}

func TestDispatch_ModifiedInputIsUsed(t *testing.T) {
	reg := echoRegistry(t, "echo")
	cfg := NewConfig().AddPreToolUse(Patterns{"*"}, func(toolName string, input map[string]interface{}, callID string) (PreResult, error) {
		return PreResult{Decision: Accept, ModifiedInput: map[string]interface{}{"text": "rewritten"}}, nil
	})

	res, err := cfg.Dispatch(context.Background(), reg, "echo", map[string]value.Value{"text": value.Str("hi")}, "call-1")
	require.NoError(t, err)
	assert.Equal(t, "rewritten", res.Value.String())
}

func TestDispatch_PostHookAddsContext(t *testing.T) {
	reg := echoRegistry(t, "echo")
	cfg := NewConfig().AddPostToolUse(Patterns{"*"}, func(toolName string, input map[string]interface{}, callID string, result interface{}, err error) (PostResult, error) {
		return PostResult{AdditionalContext: "logged", ContinueExecution: true}, nil
	})

	res, err := cfg.Dispatch(context.Background(), reg, "echo", map[string]value.Value{"text": value.Str("hi")}, "call-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"logged"}, res.AdditionalContext)
}

func TestDispatch_PostHookStopAbortsWithError(t *testing.T) {
	reg := echoRegistry(t, "echo")
	cfg := NewConfig().AddPostToolUse(Patterns{"*"}, func(toolName string, input map[string]interface{}, callID string, result interface{}, err error) (PostResult, error) {
		return PostResult{ContinueExecution: false, StopReason: "budget exceeded"}, nil
	})

	_, err := cfg.Dispatch(context.Background(), reg, "echo", map[string]value.Value{"text": value.Str("hi")}, "call-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "budget exceeded")
}

func TestDispatch_UnmatchedPreHookIsSkipped(t *testing.T) {
	reg := echoRegistry(t, "echo")
	cfg := NewConfig().AddPreToolUse(Patterns{"bash"}, func(toolName string, input map[string]interface{}, callID string) (PreResult, error) {
		return PreResult{Decision: Deny}, nil
	})

	res, err := cfg.Dispatch(context.Background(), reg, "echo", map[string]value.Value{"text": value.Str("hi")}, "call-1")
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Value.String())
}

func TestDispatch_PreHookErrorWraps(t *testing.T) {
	reg := echoRegistry(t, "echo")
	cfg := NewConfig().AddPreToolUse(Patterns{"*"}, func(toolName string, input map[string]interface{}, callID string) (PreResult, error) {
		return PreResult{}, assertErr{}
	})

	_, err := cfg.Dispatch(context.Background(), reg, "echo", nil, "call-1")
	require.Error(t, err)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
