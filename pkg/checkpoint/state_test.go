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
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/tcoagent/pkg/history"
	"github.com/kadirpekel/tcoagent/pkg/llm"
)

func TestState_SerializeDeserializeRoundTrip(t *testing.T) {
	h := history.New()
	h.Append(history.TextMessage(history.RoleUser, "do the thing"))
	h.Append(history.ToolMessage("search", "call-1", "3 results"))

	state := NewState("task-1", "do the thing").
		WithHistory(h).
		WithIteration(2).
		WithUsage(llm.Usage{InputTokens: 10, OutputTokens: 5}).
		WithPhase(PhasePostTool)

	data, err := state.Serialize()
	require.NoError(t, err)

	got, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, "task-1", got.TaskID)
	assert.Equal(t, 2, got.Iteration)
	assert.Equal(t, 10, got.Usage.InputTokens)
	assert.Equal(t, PhasePostTool, got.Phase)
	assert.Len(t, got.History, 2)
}

func TestState_SerializeNilErrors(t *testing.T) {
	var s *State
	_, err := s.Serialize()
	assert.Error(t, err)
}

func TestDeserialize_EmptyDataErrors(t *testing.T) {
	_, err := Deserialize(nil)
	assert.Error(t, err)
}

func TestState_WithErrorSetsErrorPhase(t *testing.T) {
	state := NewState("task-1", "q")
	state.WithError(assert.AnError)
	assert.Equal(t, PhaseError, state.Phase)
	assert.Equal(t, assert.AnError.Error(), state.Error)
}

func TestState_WithErrorNilIsNoop(t *testing.T) {
	state := NewState("task-1", "q")
	state.WithError(nil)
	assert.Equal(t, PhaseStarted, state.Phase)
	assert.Empty(t, state.Error)
}

func TestState_Rehydrate(t *testing.T) {
	state := &State{History: []history.Message{
		history.TextMessage(history.RoleUser, "hi"),
	}}
	h := state.Rehydrate()
	assert.Equal(t, 1, h.Len())
}

func TestState_IsStale(t *testing.T) {
	state := &State{UpdatedAt: time.Now().Add(-2 * time.Hour)}
	assert.True(t, state.IsStale(time.Hour))
	assert.False(t, state.IsStale(3*time.Hour))
}

func TestState_IsStale_NoUpdatedAtIsNeverStale(t *testing.T) {
	state := &State{}
	assert.False(t, state.IsStale(time.Hour))
}

func TestState_IsStale_ZeroMaxAgeIsNeverStale(t *testing.T) {
	state := &State{UpdatedAt: time.Now().Add(-24 * time.Hour)}
	assert.False(t, state.IsStale(0))
}
