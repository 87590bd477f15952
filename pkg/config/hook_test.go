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

package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/tcoagent/pkg/tool"
	"github.com/kadirpekel/tcoagent/pkg/value"
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

func TestHookConfig_EmptyPolicyAcceptsEverything(t *testing.T) {
	reg := echoRegistry(t, "echo")
	cfg := (&HookConfig{}).ToHookConfig()

	res, err := cfg.Dispatch(context.Background(), reg, "echo", map[string]value.Value{"text": value.Str("hi")}, "c1")
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Value.String())
}

func TestHookConfig_DenyWinsOverAllow(t *testing.T) {
	reg := echoRegistry(t, "echo")
	cfg := (&HookConfig{Deny: []string{"echo"}, Allow: []string{"*"}}).ToHookConfig()

	res, err := cfg.Dispatch(context.Background(), reg, "echo", map[string]value.Value{"text": value.Str("hi")}, "c1")
	require.NoError(t, err)
	assert.Contains(t, res.Value.String(), "denied")
}

func TestHookConfig_AskWithoutAcceptBehavesLikeDeny(t *testing.T) {
	reg := echoRegistry(t, "echo")
	cfg := (&HookConfig{Ask: []string{"echo"}}).ToHookConfig()

	res, err := cfg.Dispatch(context.Background(), reg, "echo", map[string]value.Value{"text": value.Str("hi")}, "c1")
	require.NoError(t, err)
	assert.Contains(t, res.Value.String(), "denied")
}

func TestHookConfig_AskWithAcceptPolicyRunsTheTool(t *testing.T) {
	reg := echoRegistry(t, "echo")
	accept := true
	cfg := (&HookConfig{Ask: []string{"echo"}, AcceptAsk: &accept}).ToHookConfig()

	res, err := cfg.Dispatch(context.Background(), reg, "echo", map[string]value.Value{"text": value.Str("hi")}, "c1")
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Value.String())
}

func TestHookConfig_ValidateRejectsEmptyPattern(t *testing.T) {
	cfg := &HookConfig{Deny: []string{""}}
	err := cfg.Validate()
	require.Error(t, err)
}
