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
	"fmt"
	"time"
)

// Strategy determines when checkpoints are taken during a run.
type Strategy string

const (
	// StrategyEvent checkpoints only on notable events (post-tool, error).
	StrategyEvent Strategy = "event"
	// StrategyInterval checkpoints every N iterations.
	StrategyInterval Strategy = "interval"
	// StrategyHybrid combines both.
	StrategyHybrid Strategy = "hybrid"
)

// Config configures checkpoint behavior.
//
// Example YAML:
//
//	checkpoint:
//	  enabled: true
//	  strategy: hybrid
//	  interval: 5
//	  db_path: ./checkpoints.db
//	  retention: 1h
//	  gc_schedule: "@every 10m"
type Config struct {
	// Enabled turns checkpointing on; a nil/false value makes Manager's
	// Save, Clear and StartGC no-ops (Load still reads storage).
	Enabled *bool `yaml:"enabled,omitempty"`

	Strategy Strategy `yaml:"strategy,omitempty"`
	// Interval is the iteration frequency for StrategyInterval/Hybrid.
	Interval int `yaml:"interval,omitempty"`

	// DBPath is the SQLite database file; ":memory:" is accepted.
	DBPath string `yaml:"db_path,omitempty"`

	// Retention is the max age a checkpoint may reach before the GC
	// sweep deletes it.
	Retention time.Duration `yaml:"retention,omitempty"`
	// GCSchedule is a robfig/cron/v3 schedule spec for the retention
	// sweep (e.g. "@every 10m", "0 */1 * * *").
	GCSchedule string `yaml:"gc_schedule,omitempty"`
}

// SetDefaults fills in zero-valued fields with sane defaults.
func (c *Config) SetDefaults() {
	if c.Enabled == nil {
		enabled := false
		c.Enabled = &enabled
	}
	if c.Strategy == "" {
		c.Strategy = StrategyEvent
	}
	if c.DBPath == "" {
		c.DBPath = "checkpoints.db"
	}
	if c.Retention == 0 {
		c.Retention = time.Hour
	}
	if c.GCSchedule == "" {
		c.GCSchedule = "@every 10m"
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	switch c.Strategy {
	case "", StrategyEvent, StrategyInterval, StrategyHybrid:
	default:
		return fmt.Errorf("checkpoint: invalid strategy %q (valid: event, interval, hybrid)", c.Strategy)
	}
	if c.Interval < 0 {
		return fmt.Errorf("checkpoint: interval must be non-negative")
	}
	if c.Retention < 0 {
		return fmt.Errorf("checkpoint: retention must be non-negative")
	}
	return nil
}

// IsEnabled reports whether checkpointing is turned on.
func (c *Config) IsEnabled() bool {
	return c != nil && c.Enabled != nil && *c.Enabled
}

// ShouldCheckpointInterval reports whether Interval-based checkpointing
// applies under the configured Strategy.
func (c *Config) ShouldCheckpointInterval() bool {
	return c.IsEnabled() &&
		(c.Strategy == StrategyInterval || c.Strategy == StrategyHybrid) &&
		c.Interval > 0
}

// ShouldCheckpointAtIteration reports whether iteration n falls on the
// configured interval boundary.
func (c *Config) ShouldCheckpointAtIteration(n int) bool {
	if !c.ShouldCheckpointInterval() {
		return false
	}
	return n > 0 && n%c.Interval == 0
}
