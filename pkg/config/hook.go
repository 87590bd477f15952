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

	"github.com/kadirpekel/tcoagent/pkg/hook"
)

// HookConfig declares the permission policy as glob pattern lists, the
// YAML-friendly surface over pkg/hook's programmatic Config.
type HookConfig struct {
	// Allow lists tool-name globs that are always accepted.
	Allow []string `yaml:"allow,omitempty"`

	// Deny lists tool-name globs that are always rejected.
	Deny []string `yaml:"deny,omitempty"`

	// Ask lists tool-name globs that require out-of-band approval.
	Ask []string `yaml:"ask,omitempty"`

	// AcceptAsk controls how an Ask verdict is resolved when no
	// out-of-band consent channel answers it: true treats it as Accept,
	// false (the default) treats it as Deny.
	AcceptAsk *bool `yaml:"accept_ask,omitempty"`
}

// SetDefaults fills in the conservative default: nothing configured
// means every call is accepted, matching hook.NewConfig's no-op pipeline.
func (c *HookConfig) SetDefaults() {
	if c.AcceptAsk == nil {
		c.AcceptAsk = boolPtr(false)
	}
}

// Validate checks the hook configuration.
func (c *HookConfig) Validate() error {
	for _, lists := range [][]string{c.Allow, c.Deny, c.Ask} {
		for _, p := range lists {
			if p == "" {
				return fmt.Errorf("pattern must not be empty")
			}
		}
	}
	return nil
}

// ToHookConfig builds the pkg/hook.Config this policy describes. Deny
// patterns are registered first so a tool matched by both deny and
// allow/ask is rejected, the conservative reading of an ambiguous policy.
func (c *HookConfig) ToHookConfig() *hook.Config {
	cfg := hook.NewConfig()

	if len(c.Deny) > 0 {
		cfg.AddPreToolUse(hook.Patterns(c.Deny), func(toolName string, _ map[string]interface{}, _ string) (hook.PreResult, error) {
			return hook.PreResult{Decision: hook.Deny, Reason: "denied by configuration"}, nil
		})
	}
	if len(c.Ask) > 0 {
		cfg.AddPreToolUse(hook.Patterns(c.Ask), func(toolName string, _ map[string]interface{}, _ string) (hook.PreResult, error) {
			return hook.PreResult{Decision: hook.Ask, Reason: "requires approval"}, nil
		})
	}
	if len(c.Allow) > 0 {
		cfg.AddPreToolUse(hook.Patterns(c.Allow), func(toolName string, _ map[string]interface{}, _ string) (hook.PreResult, error) {
			return hook.PreResult{Decision: hook.Accept}, nil
		})
	}

	accept := c.AcceptAsk != nil && *c.AcceptAsk
	cfg.AcceptAsk(accept)
	return cfg
}
