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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillConfig_SetDefaultsDisablesWatchByDefault(t *testing.T) {
	cfg := &SkillConfig{}
	cfg.SetDefaults()

	require.NotNil(t, cfg.Watch)
	assert.False(t, cfg.WatchEnabled())
}

func TestSkillConfig_ValidateAcceptsEmptyProjectRoot(t *testing.T) {
	cfg := &SkillConfig{}
	assert.NoError(t, cfg.Validate())
}

func TestSkillConfig_WatchEnabledReflectsOverride(t *testing.T) {
	enabled := true
	cfg := &SkillConfig{Watch: &enabled}
	assert.True(t, cfg.WatchEnabled())
}
