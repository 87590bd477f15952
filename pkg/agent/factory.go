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

package agent

import (
	"context"
	"fmt"

	"github.com/kadirpekel/tcoagent/pkg/checkpoint"
	"github.com/kadirpekel/tcoagent/pkg/config"
	"github.com/kadirpekel/tcoagent/pkg/hook"
	"github.com/kadirpekel/tcoagent/pkg/llm"
	"github.com/kadirpekel/tcoagent/pkg/llm/anthropic"
	"github.com/kadirpekel/tcoagent/pkg/llm/gemini"
	"github.com/kadirpekel/tcoagent/pkg/llm/openai"
	"github.com/kadirpekel/tcoagent/pkg/skill"
	"github.com/kadirpekel/tcoagent/pkg/tool"
)

// buildLLMProvider constructs the single llm.Provider the loop calls into.
func buildLLMProvider(ctx context.Context, c config.LLMConfig) (llm.Provider, error) {
	switch c.Provider {
	case config.LLMProviderAnthropic:
		return anthropic.New(c.APIKey, c.Model, c.BaseURL, anthropic.WithMaxTokens(c.MaxTokens)), nil
	case config.LLMProviderOpenAI:
		var opts []openai.Option
		if c.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(c.BaseURL))
		}
		return openai.New(c.APIKey, c.Model, opts...), nil
	case config.LLMProviderGemini:
		return gemini.New(ctx, c.APIKey, c.Model)
	default:
		return nil, fmt.Errorf("agent: unsupported llm provider %q", c.Provider)
	}
}

// wireTools extends reg per cfg.Tools: mcp entries are connected and their
// discovered tools registered as factories, http entries get a single
// generic forwarding tool, and builtin entries are descriptive-only (the
// host program registers the actual instance) except that a disabled
// builtin entry removes any instance already registered under that name.
func wireTools(ctx context.Context, cfg *config.Config, reg *tool.Registry) error {
	for name, t := range cfg.Tools {
		if !t.IsEnabled() {
			_ = reg.Remove(name)
			continue
		}

		switch t.Type {
		case config.ToolTypeMCP:
			src := tool.NewMCPSource(t.MCPConfig(name))
			factories, err := src.DiscoverTools(ctx)
			if err != nil {
				return fmt.Errorf("agent: discovering mcp tools for %q: %w", name, err)
			}
			for toolName, factory := range factories {
				if err := reg.RegisterFactory(toolName, factory); err != nil {
					return fmt.Errorf("agent: registering mcp tool %q: %w", toolName, err)
				}
			}
		case config.ToolTypeHTTP:
			httpCfg := t.HTTPConfig()
			if err := reg.Register(tool.NewHTTPTool(&httpCfg)); err != nil {
				return fmt.Errorf("agent: registering http tool %q: %w", name, err)
			}
		case config.ToolTypeBuiltin:
			// The instance, if any, was already registered by the host
			// program; nothing to do beyond the enablement check above.
		}
	}
	return nil
}

// buildHooks assembles the permission pipeline the loop dispatches every
// tool call through: cfg.Hooks' global allow/deny/ask policy, plus one Ask
// pre-hook per tool whose ToolConfig.RequireApproval is true regardless of
// what the global policy says about it. Registration order doesn't matter
// for precedence here since a matched-but-Accept hook never short-circuits
// the pipeline (only Deny, and Ask without AcceptAsk, do).
func buildHooks(cfg *config.Config) *hook.Config {
	hooks := cfg.Hooks.ToHookConfig()
	for name, t := range cfg.Tools {
		if t.IsEnabled() && t.NeedsApproval() {
			hooks.AddPreToolUse(hook.Patterns{name}, requireApprovalHook)
		}
	}
	return hooks
}

func requireApprovalHook(toolName string, input map[string]interface{}, callID string) (hook.PreResult, error) {
	return hook.PreResult{Decision: hook.Ask, Reason: "tool is configured to require approval"}, nil
}

// buildCheckpointStorage opens the backing Storage for cfg. Disabled
// checkpointing, or an in-memory db path, gets the zero-cost in-process
// store since Manager gates every write on Config.IsEnabled anyway.
func buildCheckpointStorage(cfg checkpoint.Config) (checkpoint.Storage, error) {
	if !cfg.IsEnabled() || cfg.DBPath == "" || cfg.DBPath == ":memory:" {
		return checkpoint.NewMemoryStorage(), nil
	}
	return checkpoint.NewSQLiteStorage(cfg.DBPath)
}

// buildSkills loads every skill under cfg's search paths and registers
// each as a callable tool. An empty ProjectRoot is valid and yields an
// empty Registry with no loader (skill watching is then unavailable).
func buildSkills(cfg config.SkillConfig, reg *tool.Registry) (*skill.Registry, *skill.Loader, error) {
	skillReg := skill.NewRegistry()
	if cfg.ProjectRoot == "" {
		return skillReg, nil, nil
	}

	loader, err := skill.NewLoader(cfg.ProjectRoot)
	if err != nil {
		return nil, nil, err
	}
	loader.LoadAll(skillReg)
	if err := skill.RegisterAll(skillReg, reg); err != nil {
		return nil, nil, err
	}
	return skillReg, loader, nil
}
