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

func TestLoopConfig_SetDefaultsMatchesLoopPackage(t *testing.T) {
	cfg := &LoopConfig{}
	cfg.SetDefaults()

	assert.Equal(t, 10, cfg.MaxIterations)
	assert.Equal(t, 5, cfg.MaxCodeRetries)
	assert.Equal(t, "<end_code>", cfg.StopSequence)
	assert.Equal(t, 32, cfg.StreamBuffer)
	assert.NotZero(t, cfg.MaxObservationBytes)
}

func TestLoopConfig_ToLoopConfigCarriesValues(t *testing.T) {
	cfg := &LoopConfig{MaxIterations: 3, MaxCodeRetries: 2, StopSequence: "<stop>", MaxObservationBytes: 100, StreamBuffer: 4}
	lc := cfg.ToLoopConfig()

	assert.Equal(t, 3, lc.MaxIterations)
	assert.Equal(t, 2, lc.MaxCodeRetries)
	assert.Equal(t, "<stop>", lc.StopSequence)
	assert.Equal(t, 100, lc.Observation.MaxBytes)
	assert.Equal(t, 4, lc.StreamBuffer)
}

func TestLoopConfig_ValidateRejectsMissingStopSequence(t *testing.T) {
	cfg := &LoopConfig{MaxIterations: 1, MaxCodeRetries: 1}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stop_sequence")
}

func TestLoopConfig_ValidateRejectsNegativeValues(t *testing.T) {
	cfg := &LoopConfig{MaxIterations: -1, StopSequence: "x"}
	err := cfg.Validate()
	require.Error(t, err)
}
