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
	"fmt"

	"github.com/kadirpekel/tcoagent/pkg/loop"
	"github.com/kadirpekel/tcoagent/pkg/observation"
)

// LoopConfig is the YAML-facing mirror of loop.Config.
type LoopConfig struct {
	// MaxIterations is the per-task turn budget.
	MaxIterations int `yaml:"max_iterations,omitempty"`

	// MaxCodeRetries caps consecutive parse/runtime failures on the same
	// task before the step gives up.
	MaxCodeRetries int `yaml:"max_code_retries,omitempty"`

	// StopSequence delimits a generated code block.
	StopSequence string `yaml:"stop_sequence,omitempty"`

	// MaxObservationBytes truncates a tool result before it re-enters the
	// transcript, mirroring observation.Config.
	MaxObservationBytes int `yaml:"max_observation_bytes,omitempty"`

	// StreamBuffer sizes the internal event bus.
	StreamBuffer int `yaml:"stream_buffer,omitempty"`
}

// SetDefaults fills in loop.DefaultConfig's values where unset.
func (c *LoopConfig) SetDefaults() {
	d := loop.DefaultConfig()
	if c.MaxIterations == 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.MaxCodeRetries == 0 {
		c.MaxCodeRetries = d.MaxCodeRetries
	}
	if c.StopSequence == "" {
		c.StopSequence = d.StopSequence
	}
	if c.MaxObservationBytes == 0 {
		c.MaxObservationBytes = d.Observation.MaxBytes
	}
	if c.StreamBuffer == 0 {
		c.StreamBuffer = d.StreamBuffer
	}
}

// Validate checks the loop configuration.
func (c *LoopConfig) Validate() error {
	if c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must be non-negative")
	}
	if c.MaxCodeRetries < 0 {
		return fmt.Errorf("max_code_retries must be non-negative")
	}
	if c.StopSequence == "" {
		return fmt.Errorf("stop_sequence is required")
	}
	if c.MaxObservationBytes < 0 {
		return fmt.Errorf("max_observation_bytes must be non-negative")
	}
	if c.StreamBuffer < 0 {
		return fmt.Errorf("stream_buffer must be non-negative")
	}
	return nil
}

// ToLoopConfig builds the pkg/loop.Config this section describes.
func (c *LoopConfig) ToLoopConfig() loop.Config {
	return loop.Config{
		MaxIterations:  c.MaxIterations,
		MaxCodeRetries: c.MaxCodeRetries,
		StopSequence:   c.StopSequence,
		Observation:    observation.Config{MaxBytes: c.MaxObservationBytes},
		StreamBuffer:   c.StreamBuffer,
	}
}
