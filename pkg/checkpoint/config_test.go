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

package checkpoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_SetDefaults(t *testing.T) {
	c := &Config{}
	c.SetDefaults()
	assert.False(t, c.IsEnabled())
	assert.Equal(t, StrategyEvent, c.Strategy)
	assert.Equal(t, "checkpoints.db", c.DBPath)
	assert.Equal(t, time.Hour, c.Retention)
	assert.Equal(t, "@every 10m", c.GCSchedule)
}

func TestConfig_Validate_RejectsBadStrategy(t *testing.T) {
	c := &Config{Strategy: "bogus"}
	assert.Error(t, c.Validate())
}

func TestConfig_Validate_RejectsNegativeInterval(t *testing.T) {
	c := &Config{Interval: -1}
	assert.Error(t, c.Validate())
}

func TestConfig_Validate_RejectsNegativeRetention(t *testing.T) {
	c := &Config{Retention: -time.Second}
	assert.Error(t, c.Validate())
}

func TestConfig_Validate_AcceptsZeroValue(t *testing.T) {
	c := &Config{}
	assert.NoError(t, c.Validate())
}

func TestConfig_ShouldCheckpointAtIteration(t *testing.T) {
	enabled := true
	c := &Config{Enabled: &enabled, Strategy: StrategyInterval, Interval: 5}
	assert.False(t, c.ShouldCheckpointAtIteration(0))
	assert.False(t, c.ShouldCheckpointAtIteration(3))
	assert.True(t, c.ShouldCheckpointAtIteration(5))
	assert.True(t, c.ShouldCheckpointAtIteration(10))
}

func TestConfig_ShouldCheckpointAtIteration_DisabledNeverTrue(t *testing.T) {
	c := &Config{Strategy: StrategyInterval, Interval: 5}
	assert.False(t, c.ShouldCheckpointAtIteration(5))
}

func TestConfig_ShouldCheckpointAtIteration_EventStrategyNeverTrue(t *testing.T) {
	enabled := true
	c := &Config{Enabled: &enabled, Strategy: StrategyEvent, Interval: 5}
	assert.False(t, c.ShouldCheckpointAtIteration(5))
}
