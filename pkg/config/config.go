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

// Package config provides the typed, YAML-driven configuration surface for
// an agent: LLM provider selection, the reasoning loop's bounds, declarative
// tool wiring, the permission-hook policy, checkpoint persistence, skill
// search paths, and logging.
package config

import (
	"fmt"

	"github.com/kadirpekel/tcoagent/pkg/checkpoint"
	"github.com/kadirpekel/tcoagent/pkg/observability"
)

// Config is the root configuration for one agent.
type Config struct {
	LLM           LLMConfig             `yaml:"llm,omitempty"`
	Loop          LoopConfig            `yaml:"loop,omitempty"`
	Tools         map[string]ToolConfig `yaml:"tools,omitempty"`
	Hooks         HookConfig            `yaml:"hooks,omitempty"`
	Checkpoint    checkpoint.Config     `yaml:"checkpoint,omitempty"`
	Skills        SkillConfig           `yaml:"skills,omitempty"`
	Logger        LoggerConfig          `yaml:"logger,omitempty"`
	Observability observability.Config  `yaml:"observability,omitempty"`
	Server        ServerConfig          `yaml:"server,omitempty"`
}

// SetDefaults applies defaults to every section, in dependency order.
func (c *Config) SetDefaults() {
	c.LLM.SetDefaults()
	c.Loop.SetDefaults()
	for name, t := range c.Tools {
		t.SetDefaults()
		c.Tools[name] = t
	}
	c.Hooks.SetDefaults()
	c.Checkpoint.SetDefaults()
	c.Skills.SetDefaults()
	c.Logger.SetDefaults()
	c.Observability.SetDefaults()
	c.Server.SetDefaults()
}

// Validate checks each section in order and returns the first failure,
// wrapped with the name of the section it came from.
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Loop.Validate(); err != nil {
		return fmt.Errorf("loop: %w", err)
	}
	for name, t := range c.Tools {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tools.%s: %w", name, err)
		}
	}
	if err := c.Hooks.Validate(); err != nil {
		return fmt.Errorf("hooks: %w", err)
	}
	if err := c.Checkpoint.Validate(); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }
