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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kadirpekel/tcoagent/pkg/config"
	"github.com/kadirpekel/tcoagent/pkg/tcolog"
)

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFile    string

	provider string
	model    string
	apiKey   string
	baseURL  string

	approveTools   []string
	noApproveTools []string
	acceptAsk      bool
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "tcoagent",
		Short:         "Run a Thought->Code->Observation agent loop",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to a YAML config file (zero-config mode when omitted)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&flags.logFile, "log-file", "", "write logs to this file instead of stderr")
	root.PersistentFlags().StringVar(&flags.provider, "provider", "", "LLM provider: anthropic, openai, or gemini (zero-config mode)")
	root.PersistentFlags().StringVar(&flags.model, "model", "", "model name (zero-config mode)")
	root.PersistentFlags().StringVar(&flags.apiKey, "api-key", "", "LLM API key (zero-config mode; defaults to ANTHROPIC_API_KEY/OPENAI_API_KEY)")
	root.PersistentFlags().StringVar(&flags.baseURL, "base-url", "", "override the provider's API endpoint")
	root.PersistentFlags().StringSliceVar(&flags.approveTools, "approve-tool", nil, "tool name requiring out-of-band approval (repeatable)")
	root.PersistentFlags().StringSliceVar(&flags.noApproveTools, "no-approve-tool", nil, "tool name exempt from approval, overriding config (repeatable)")
	root.PersistentFlags().BoolVar(&flags.acceptAsk, "accept-ask", false, "auto-accept tool calls awaiting out-of-band approval instead of denying them")

	root.AddCommand(newRunCommand(flags))
	root.AddCommand(newServeCommand(flags))

	return root
}

// initLogging wires tcolog per the resolved level/output and returns a
// cleanup func to close an opened log file.
func initLogging(flags *globalFlags) (func(), error) {
	level := tcolog.ParseLevel(flags.logLevel)

	if flags.logFile == "" {
		tcolog.Init(level, os.Stderr)
		return func() {}, nil
	}

	file, cleanup, err := tcolog.OpenLogFile(flags.logFile)
	if err != nil {
		return nil, fmt.Errorf("opening log file %q: %w", flags.logFile, err)
	}
	tcolog.Init(level, file)
	return cleanup, nil
}

// loadConfig resolves cfg either from a file (when --config is set) or
// from zero-config CLI flags and environment variables, then layers the
// approval-related flags on top regardless of source.
func loadConfig(ctx context.Context, flags *globalFlags) (*config.Config, error) {
	var cfg *config.Config

	if flags.configPath != "" {
		loaded, _, err := config.LoadConfigFile(ctx, flags.configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config file %q: %w", flags.configPath, err)
		}
		cfg = loaded
	} else {
		cfg = &config.Config{}
		if flags.provider != "" {
			cfg.LLM.Provider = config.LLMProvider(flags.provider)
		}
		cfg.LLM.Model = flags.model
		cfg.LLM.APIKey = flags.apiKey
		cfg.LLM.BaseURL = flags.baseURL
		cfg.SetDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}

	applyApprovalFlags(cfg, flags)
	return cfg, nil
}

// applyApprovalFlags layers --approve-tool/--no-approve-tool/--accept-ask
// on top of whatever the config file declared, so a one-off CLI flag
// never requires editing the config file it overrides.
func applyApprovalFlags(cfg *config.Config, flags *globalFlags) {
	if cfg.Tools == nil && (len(flags.approveTools) > 0 || len(flags.noApproveTools) > 0) {
		cfg.Tools = map[string]config.ToolConfig{}
	}
	truth, falsehood := true, false
	for _, name := range flags.approveTools {
		t := cfg.Tools[name]
		t.RequireApproval = &truth
		cfg.Tools[name] = t
	}
	for _, name := range flags.noApproveTools {
		t := cfg.Tools[name]
		t.RequireApproval = &falsehood
		cfg.Tools[name] = t
	}
	if flags.acceptAsk {
		cfg.Hooks.AcceptAsk = &flags.acceptAsk
	}
}
