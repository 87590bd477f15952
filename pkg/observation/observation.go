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

// Package observation assembles the text the reasoning loop shows the
// model after a code step: the step's captured print logs plus the last
// call expression's return value, truncated to a byte budget so one
// oversized tool result can't blow the context window.
package observation

import (
	"strings"
	"unicode/utf8"

	"github.com/kadirpekel/tcoagent/pkg/tool"
	"github.com/kadirpekel/tcoagent/pkg/value"
)

const defaultMaxBytes = 400 * 1024

const hint = "Hint: use pagination / more specific pattern"

// Config tunes the formatter. A MaxBytes of zero or less makes New use
// DefaultConfig's budget.
type Config struct {
	MaxBytes int
}

// DefaultConfig matches spec's 400 KiB observation budget.
func DefaultConfig() Config {
	return Config{MaxBytes: defaultMaxBytes}
}

// Builder renders one step's (value, logs) pair into the text appended to
// the conversation as an observation.
type Builder struct {
	cfg Config
}

// New builds a Builder. A zero-value cfg.MaxBytes falls back to
// DefaultConfig's budget.
func New(cfg Config) *Builder {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	return &Builder{cfg: cfg}
}

// Build assembles the observation text for one step. logs is the step's
// captured print output (empty if none). result is the step's final
// expression value (nil if the step ended without one). origin is the
// tool the evaluator resolved as having produced result, by inspecting the
// last call expression in the step's AST — nil when result didn't come
// from a tool call, or when the caller hasn't resolved one. additional is
// appended from any PostHook's AdditionalContext (pkg/hook's Result).
func (b *Builder) Build(result value.Value, logs string, origin tool.Tool, additional []string) string {
	var parts []string

	if strings.TrimSpace(logs) != "" {
		parts = append(parts, "Logs:\n"+logs)
	}

	if result != nil {
		if _, isNull := result.(value.Null); !isNull {
			parts = append(parts, "Output: "+renderOutput(result, origin))
		}
	}

	parts = append(parts, additional...)

	return b.truncate(strings.Join(parts, "\n"))
}

func renderOutput(result value.Value, origin tool.Tool) string {
	if origin != nil {
		if of, ok := origin.(tool.ObservationFormatter); ok {
			return of.FormatForObservation(tool.ToNative(result))
		}
	}
	return result.String()
}

// truncate enforces the size guard: cut to MaxBytes on a UTF-8 rune
// boundary and append the pagination hint, per spec §4.D.4.
func (b *Builder) truncate(s string) string {
	if len(s) <= b.cfg.MaxBytes {
		return s
	}
	cut := b.cfg.MaxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n" + hint
}
