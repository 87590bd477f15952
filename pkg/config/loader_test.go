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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigFile_AppliesDefaultsAndExpandsEnv(t *testing.T) {
	os.Setenv("TEST_ANTHROPIC_KEY", "sk-from-env")
	defer os.Unsetenv("TEST_ANTHROPIC_KEY")

	path := writeConfigFile(t, `
llm:
  provider: anthropic
  api_key: ${TEST_ANTHROPIC_KEY}
loop:
  max_iterations: 3
`)

	cfg, loader, err := LoadConfigFile(context.Background(), path)
	require.NoError(t, err)
	defer loader.Close()

	assert.Equal(t, "sk-from-env", cfg.LLM.APIKey)
	assert.Equal(t, 3, cfg.Loop.MaxIterations)
	assert.Equal(t, 5, cfg.Loop.MaxCodeRetries)
}

func TestLoadConfigFile_ValidationFailurePropagates(t *testing.T) {
	path := writeConfigFile(t, `
llm:
  provider: not-a-real-provider
`)

	_, _, err := LoadConfigFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
