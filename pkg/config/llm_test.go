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

func TestLLMConfig_SetDefaultsDetectsProviderFromEnv(t *testing.T) {
	os.Unsetenv("ANTHROPIC_API_KEY")
	os.Setenv("OPENAI_API_KEY", "sk-test")
	defer os.Unsetenv("OPENAI_API_KEY")

	cfg := &LLMConfig{}
	cfg.SetDefaults()

	assert.Equal(t, LLMProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, 4096, cfg.MaxTokens)
}

func TestLLMConfig_SetDefaultsDetectsGeminiFromEnv(t *testing.T) {
	os.Unsetenv("ANTHROPIC_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")
	os.Setenv("GEMINI_API_KEY", "gm-test")
	defer os.Unsetenv("GEMINI_API_KEY")

	cfg := &LLMConfig{}
	cfg.SetDefaults()

	assert.Equal(t, LLMProviderGemini, cfg.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.Model)
	assert.Equal(t, "gm-test", cfg.APIKey)
}

func TestLLMConfig_SetDefaultsFallsBackToAnthropic(t *testing.T) {
	os.Unsetenv("ANTHROPIC_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")
	os.Unsetenv("GEMINI_API_KEY")

	cfg := &LLMConfig{}
	cfg.SetDefaults()

	assert.Equal(t, LLMProviderAnthropic, cfg.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Model)
}

func TestLLMConfig_ValidateAcceptsGemini(t *testing.T) {
	cfg := &LLMConfig{Provider: LLMProviderGemini, APIKey: "gm-test"}
	assert.NoError(t, cfg.Validate())
}

func TestLLMConfig_ValidateRejectsUnknownProvider(t *testing.T) {
	cfg := &LLMConfig{Provider: "mistral", APIKey: "x"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid provider")
}

func TestLLMConfig_ValidateRequiresAPIKey(t *testing.T) {
	cfg := &LLMConfig{Provider: LLMProviderAnthropic}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key is required")
}
