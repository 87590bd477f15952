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

// Package checkpoint persists a task's conversation history and loop
// iteration index so a run can be rehydrated and resumed after a crash,
// a restart, or a deliberate pause, keyed by the task's query id.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kadirpekel/tcoagent/pkg/history"
	"github.com/kadirpekel/tcoagent/pkg/llm"
)

// Phase records where in a loop iteration the checkpoint was taken.
type Phase string

const (
	PhaseStarted   Phase = "started"
	PhasePreLLM    Phase = "pre_llm"
	PhasePostLLM   Phase = "post_llm"
	PhasePostTool  Phase = "post_tool"
	PhaseIteration Phase = "iteration_end"
	PhaseError     Phase = "error"
	PhaseCompleted Phase = "completed"
)

// State is everything needed to resume a task: its original query, the
// conversation history accumulated so far, the iteration it had reached,
// and token usage accounted for up to that point.
type State struct {
	TaskID string `json:"task_id"`
	Query  string `json:"query"`

	History   []history.Message `json:"history"`
	Iteration int               `json:"iteration"`
	Usage     llm.Usage         `json:"usage"`

	Phase     Phase     `json:"phase"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewState starts a checkpoint for taskID/query at iteration zero.
func NewState(taskID, query string) *State {
	return &State{TaskID: taskID, Query: query, Phase: PhaseStarted}
}

// Serialize converts the State to JSON bytes for storage.
func (s *State) Serialize() ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("checkpoint: cannot serialize nil state")
	}
	return json.Marshal(s)
}

// Deserialize reconstructs a State from JSON bytes.
func Deserialize(data []byte) (*State, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("checkpoint: cannot deserialize empty data")
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("checkpoint: unmarshal state: %w", err)
	}
	return &s, nil
}

// WithHistory replaces the recorded conversation history.
func (s *State) WithHistory(h *history.History) *State {
	s.History = h.ToList()
	return s
}

// WithIteration records the loop iteration this checkpoint was taken at.
func (s *State) WithIteration(n int) *State {
	s.Iteration = n
	return s
}

// WithUsage records cumulative token usage up to this checkpoint.
func (s *State) WithUsage(u llm.Usage) *State {
	s.Usage = u
	return s
}

// WithPhase sets the phase and stamps UpdatedAt.
func (s *State) WithPhase(p Phase) *State {
	s.Phase = p
	s.UpdatedAt = time.Now()
	return s
}

// WithError marks the checkpoint as having failed with err.
func (s *State) WithError(err error) *State {
	if err != nil {
		s.Error = err.Error()
		s.Phase = PhaseError
		s.UpdatedAt = time.Now()
	}
	return s
}

// Rehydrate rebuilds a history.History from the checkpoint's saved
// messages, for handing to a new Loop.Run call that continues the task.
func (s *State) Rehydrate() *history.History {
	h := history.New()
	h.Extend(s.History)
	return h
}

// IsStale reports whether the checkpoint has not been touched within
// maxAge, a candidate for garbage collection.
func (s *State) IsStale(maxAge time.Duration) bool {
	if s.UpdatedAt.IsZero() || maxAge <= 0 {
		return false
	}
	return time.Since(s.UpdatedAt) > maxAge
}
