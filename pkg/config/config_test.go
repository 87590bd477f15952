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
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_SetDefaultsThenValidate(t *testing.T) {
	os.Setenv("ANTHROPIC_API_KEY", "test-key")
	defer os.Unsetenv("ANTHROPIC_API_KEY")

	cfg := &Config{
		Tools: map[string]ToolConfig{
			"shell": {Type: ToolTypeMCP, Command: "shell-mcp"},
		},
	}
	cfg.SetDefaults()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, LLMProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, 10, cfg.Loop.MaxIterations)
	assert.True(t, cfg.Tools["shell"].IsEnabled())
	assert.True(t, cfg.Tools["shell"].NeedsApproval())
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestConfig_ValidateWrapsFirstFailingSection(t *testing.T) {
	cfg := &Config{
		LLM:  LLMConfig{Provider: "bogus"},
		Loop: LoopConfig{MaxIterations: 1, MaxCodeRetries: 1, StopSequence: "x"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm:")
}

func TestConfig_ValidateSurfacesToolSectionErrors(t *testing.T) {
	os.Setenv("ANTHROPIC_API_KEY", "test-key")
	defer os.Unsetenv("ANTHROPIC_API_KEY")

	cfg := &Config{Tools: map[string]ToolConfig{"broken": {Type: ToolTypeMCP}}}
	cfg.SetDefaults()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tools.broken")
}
