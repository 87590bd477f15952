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

// Package agent is the composition root that turns a config.Config into a
// runnable Thought/Code/Observation loop: it builds the LLM provider, wires
// declared tools and skills into a registry, assembles the hook pipeline,
// and wraps the result with checkpoint-based resume so a crashed or
// cancelled task can continue where it left off.
package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kadirpekel/tcoagent/pkg/checkpoint"
	"github.com/kadirpekel/tcoagent/pkg/config"
	"github.com/kadirpekel/tcoagent/pkg/history"
	"github.com/kadirpekel/tcoagent/pkg/hook"
	"github.com/kadirpekel/tcoagent/pkg/llm"
	"github.com/kadirpekel/tcoagent/pkg/loop"
	"github.com/kadirpekel/tcoagent/pkg/observability"
	"github.com/kadirpekel/tcoagent/pkg/skill"
	"github.com/kadirpekel/tcoagent/pkg/stream"
	"github.com/kadirpekel/tcoagent/pkg/tool"
)

// Agent owns one long-lived Loop and the supporting services
// (checkpointing, skills) built from a config.Config. Construct with New;
// the zero value is not usable.
type Agent struct {
	Config      *config.Config
	LLM         llm.Provider
	Registry    *tool.Registry
	Hooks       *hook.Config
	Skills      *skill.Registry
	Checkpoints *checkpoint.Manager

	Observability *observability.Manager

	loop              *loop.Loop
	skillLoader       *skill.Loader
	skillWatcher      *skill.Watcher
	checkpointStorage checkpoint.Storage
}

// New builds an Agent from cfg. reg is the tool registry the caller has
// already populated with host-provided builtin tools (file/search/todo
// tools, etc.); New extends it with any mcp/http entries cfg.Tools
// declares and removes disabled builtin entries. cfg is mutated in place
// by SetDefaults/Validate, matching config.Config's own contract.
func New(ctx context.Context, cfg *config.Config, reg *tool.Registry) (*Agent, error) {
	if cfg == nil {
		return nil, fmt.Errorf("agent: config is required")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("agent: invalid config: %w", err)
	}
	if reg == nil {
		reg = tool.NewRegistry()
	}

	llmProvider, err := buildLLMProvider(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}

	if err := wireTools(ctx, cfg, reg); err != nil {
		return nil, err
	}

	skillReg, skillLoader, err := buildSkills(cfg.Skills, reg)
	if err != nil {
		return nil, fmt.Errorf("agent: loading skills: %w", err)
	}

	hooks := buildHooks(cfg)

	storage, err := buildCheckpointStorage(cfg.Checkpoint)
	if err != nil {
		return nil, fmt.Errorf("agent: opening checkpoint storage: %w", err)
	}
	checkpoints := checkpoint.NewManager(&cfg.Checkpoint, storage)

	obsMgr, err := observability.NewManager(ctx, &cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("agent: initializing observability: %w", err)
	}

	var tracer observability.TracerI
	if obsMgr.TracingEnabled() {
		tracer = obsMgr.Tracer()
	}
	var metrics observability.Recorder
	if obsMgr.MetricsEnabled() {
		metrics = obsMgr.Metrics()
	}

	l := loop.New(llmProvider, reg, hooks, history.New(), stream.NewBus(cfg.Loop.StreamBuffer), cfg.Loop.ToLoopConfig(),
		loop.WithObservability(tracer, metrics))

	return &Agent{
		Config:            cfg,
		LLM:               llmProvider,
		Registry:          reg,
		Hooks:             hooks,
		Skills:            skillReg,
		Checkpoints:       checkpoints,
		Observability:     obsMgr,
		loop:              l,
		skillLoader:       skillLoader,
		checkpointStorage: storage,
	}, nil
}

// Bus exposes the underlying Loop's stream of progress chunks, for a host
// that wants to render thinking/tool-call/observation events live.
func (a *Agent) Bus() *stream.Bus {
	return a.loop.Bus
}

// Run carries task to completion under a freshly generated task id,
// satisfying strategy.Runner so an Agent can be registered directly as a
// strategy.Worker.
func (a *Agent) Run(ctx context.Context, task string) (*loop.Result, error) {
	return a.RunTask(ctx, uuid.NewString(), task)
}

// RunTask carries query to completion under taskID, transparently
// resuming from a prior checkpoint when one exists for that id and
// persisting a new checkpoint when the run doesn't finish cleanly.
//
// A Storage.Load miss (no checkpoint for taskID) is not an error worth
// surfacing: it just means this is the task's first attempt.
func (a *Agent) RunTask(ctx context.Context, taskID, query string) (*loop.Result, error) {
	hist := history.New()
	if a.Checkpoints.IsEnabled() {
		if state, err := a.Checkpoints.Load(ctx, taskID); err == nil {
			hist = state.Rehydrate()
		}
	}
	a.loop.History = hist

	result, err := a.loop.Run(ctx, query)
	if err != nil {
		return result, err
	}

	a.checkpointAfterRun(ctx, taskID, query, result)
	return result, nil
}

// checkpointAfterRun persists or clears a checkpoint depending on whether
// the run reached a final answer. A clean completion clears any prior
// checkpoint so a finished task is never mistakenly resumed; anything
// else (truncation, a code-retry budget exhaustion, an LLM error) is
// saved so RunTask can pick the conversation back up next time.
func (a *Agent) checkpointAfterRun(ctx context.Context, taskID, query string, result *loop.Result) {
	if !a.Checkpoints.IsEnabled() {
		return
	}
	if result.IsFinalAnswer {
		_ = a.Checkpoints.Clear(ctx, taskID)
		return
	}

	state := checkpoint.NewState(taskID, query).
		WithHistory(a.loop.History).
		WithIteration(len(result.Steps)).
		WithUsage(result.Usage)

	if result.Error != "" {
		state = state.WithError(fmt.Errorf("%s", result.Error))
	} else {
		state = state.WithPhase(checkpoint.PhaseIteration)
	}
	_ = a.Checkpoints.Save(ctx, state)
}

// StartSkillWatch begins watching the agent's skill search paths for
// SKILL.md changes, reloading Skills (and, through it, Registry) on every
// edit. It is a no-op returning (nil, nil) when cfg.Skills.Watch is
// false or no skill loader was built (empty project root).
func (a *Agent) StartSkillWatch(ctx context.Context) (<-chan struct{}, error) {
	if !a.Config.Skills.WatchEnabled() || a.skillLoader == nil {
		return nil, nil
	}
	a.skillWatcher = skill.NewWatcher(a.skillLoader, a.Skills)
	return a.skillWatcher.Start(ctx)
}

// StartCheckpointGC starts the checkpoint retention sweep described by
// cfg.Checkpoint.GCSchedule. The cron handle stays on Checkpoints and is
// stopped via Checkpoints.StopGC, normally from Close.
func (a *Agent) StartCheckpointGC(ctx context.Context) error {
	_, err := a.Checkpoints.StartGC(ctx)
	return err
}

// Close releases everything the Agent opened: the Loop's stream bus, the
// skill watcher (if started), checkpoint garbage collection, and the
// checkpoint storage itself when it owns a closable resource (SQLite).
func (a *Agent) Close() error {
	a.Checkpoints.StopGC()
	if a.skillWatcher != nil {
		_ = a.skillWatcher.Close()
	}
	a.loop.Close()
	_ = a.Observability.Shutdown(context.Background())
	if closer, ok := a.checkpointStorage.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
