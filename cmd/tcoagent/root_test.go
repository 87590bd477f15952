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

package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/tcoagent/pkg/config"
)

func TestLoadConfig_ZeroConfigUsesFlags(t *testing.T) {
	flags := &globalFlags{
		provider: "anthropic",
		model:    "claude-sonnet-4-20250514",
		apiKey:   "test-key",
	}

	cfg, err := loadConfig(context.Background(), flags)
	require.NoError(t, err)
	assert.Equal(t, config.LLMProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.LLM.Model)
	assert.Equal(t, "test-key", cfg.LLM.APIKey)
}

func TestLoadConfig_ZeroConfigRejectsMissingAPIKey(t *testing.T) {
	flags := &globalFlags{provider: "anthropic", model: "claude-sonnet-4-20250514"}

	_, err := loadConfig(context.Background(), flags)
	assert.Error(t, err)
}

func TestApplyApprovalFlags_AddsApproveAndNoApproveEntries(t *testing.T) {
	cfg := &config.Config{}
	flags := &globalFlags{
		approveTools:   []string{"shell_exec"},
		noApproveTools: []string{"read_file"},
	}

	applyApprovalFlags(cfg, flags)

	require.Contains(t, cfg.Tools, "shell_exec")
	shellExec := cfg.Tools["shell_exec"]
	assert.True(t, shellExec.NeedsApproval())
	require.Contains(t, cfg.Tools, "read_file")
	readFile := cfg.Tools["read_file"]
	assert.False(t, readFile.NeedsApproval())
}

func TestApplyApprovalFlags_AcceptAskOverridesHookPolicy(t *testing.T) {
	cfg := &config.Config{}
	flags := &globalFlags{acceptAsk: true}

	applyApprovalFlags(cfg, flags)

	require.NotNil(t, cfg.Hooks.AcceptAsk)
	assert.True(t, *cfg.Hooks.AcceptAsk)
}

func TestApplyApprovalFlags_NoFlagsLeavesToolsNil(t *testing.T) {
	cfg := &config.Config{}
	applyApprovalFlags(cfg, &globalFlags{})

	assert.Nil(t, cfg.Tools)
	assert.Nil(t, cfg.Hooks.AcceptAsk)
}
