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

// Package loop drives the Thought->Code->Observation cycle: build a
// prompt from history plus the current task, call the LLM, extract the
// generated code block, run it through the evaluator, format the
// observation, and repeat until a final answer or the iteration budget
// is exhausted.
package loop

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kadirpekel/tcoagent/pkg/history"
	"github.com/kadirpekel/tcoagent/pkg/hook"
	"github.com/kadirpekel/tcoagent/pkg/interp"
	"github.com/kadirpekel/tcoagent/pkg/llm"
	"github.com/kadirpekel/tcoagent/pkg/observability"
	"github.com/kadirpekel/tcoagent/pkg/observation"
	"github.com/kadirpekel/tcoagent/pkg/stream"
	"github.com/kadirpekel/tcoagent/pkg/tcoerrors"
	"github.com/kadirpekel/tcoagent/pkg/tool"
)

// Config bounds one Loop's behavior.
type Config struct {
	// MaxIterations is the per-task turn budget (spec default 5-10).
	MaxIterations int
	// MaxCodeRetries caps consecutive parse/runtime failures on the same
	// task before the step gives up rather than keep re-prompting.
	MaxCodeRetries int
	// StopSequence is appended to the LLM's stop-sequence list and is
	// the delimiter extractCodeBlock looks for.
	StopSequence string
	Observation  observation.Config
	// StreamBuffer sizes the Bus this Loop creates when none is supplied
	// to New.
	StreamBuffer int
}

// DefaultConfig matches the spec's stated defaults.
func DefaultConfig() Config {
	return Config{
		MaxIterations:  10,
		MaxCodeRetries: 5,
		StopSequence:   "<end_code>",
		Observation:    observation.DefaultConfig(),
		StreamBuffer:   32,
	}
}

// StepType names what kind of turn an ActionStep records.
type StepType string

const (
	StepAction      StepType = "action"
	StepPlanning    StepType = "planning"
	StepToolCall    StepType = "tool_call"
	StepObservation StepType = "observation"
)

// ActionStep is a record of one reasoning turn, retained on Result for
// callers that want the full trace of a task (e.g. a UI replay or a
// checkpoint).
type ActionStep struct {
	StepNumber    int
	StepType      StepType
	InputQuery    string
	OutputContent string
	ToolCalls     []string
	ToolResults   []string
	IsComplete    bool
	IsFinalAnswer bool
	Error         string
	Timestamp     time.Time
	StepID        string
}

// Result is the terminal value of one task run.
type Result struct {
	Answer        string
	Terminated    bool
	Truncated     bool
	IsFinalAnswer bool
	Error         string
	Steps         []ActionStep
	Usage         llm.Usage
}

// Loop ties an LLM provider, tool registry, hook pipeline, conversation
// history, and evaluator together into one runnable task driver. Globals
// in the embedded interpreter persist across successive Run calls on the
// same Loop, the way a REPL's globals survive between inputs.
type Loop struct {
	LLM      llm.Provider
	Registry *tool.Registry
	Hooks    *hook.Config
	History  *history.History
	Bus      *stream.Bus
	Config   Config

	interp     *interp.Interpreter
	obsBuilder *observation.Builder
	exec       *hookExecutor

	tracer  observability.TracerI
	metrics observability.Recorder
}

// Option configures optional Loop dependencies that have a safe default
// (a no-op tracer/metrics recorder), so existing callers of New don't need
// to change.
type Option func(*Loop)

// WithObservability instruments the loop's LLM calls, tool dispatch, and
// per-task run with the given tracer/metrics recorder. A nil argument
// leaves that half's no-op default in place.
func WithObservability(tracer observability.TracerI, metrics observability.Recorder) Option {
	return func(l *Loop) {
		if tracer != nil {
			l.tracer = tracer
		}
		if metrics != nil {
			l.metrics = metrics
		}
	}
}

// New builds a Loop. bus may be nil, in which case one is created
// internally with Config.StreamBuffer capacity; callers that want to
// drain progress chunks should pass their own Bus instead.
func New(llmProvider llm.Provider, reg *tool.Registry, hooks *hook.Config, hist *history.History, bus *stream.Bus, cfg Config, opts ...Option) *Loop {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultConfig().MaxIterations
	}
	if cfg.MaxCodeRetries <= 0 {
		cfg.MaxCodeRetries = DefaultConfig().MaxCodeRetries
	}
	if cfg.StopSequence == "" {
		cfg.StopSequence = DefaultConfig().StopSequence
	}
	if bus == nil {
		size := cfg.StreamBuffer
		if size <= 0 {
			size = DefaultConfig().StreamBuffer
		}
		bus = stream.NewBus(size)
	}
	if hist == nil {
		hist = history.New()
	}

	exec := &hookExecutor{hooks: hooks, reg: reg, bus: bus, tracer: observability.NoopTracer{}, metrics: observability.NoopMetrics{}}
	ns := tool.NewNamespaceWithExecutor(reg, context.Background(), exec)
	it := interp.New(ns, interp.DefaultConfig())

	l := &Loop{
		LLM:        llmProvider,
		Registry:   reg,
		Hooks:      hooks,
		History:    hist,
		Bus:        bus,
		Config:     cfg,
		interp:     it,
		obsBuilder: observation.New(cfg.Observation),
		exec:       exec,
		tracer:     observability.NoopTracer{},
		metrics:    observability.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(l)
	}
	exec.tracer = l.tracer
	exec.metrics = l.metrics
	return l
}

// Run drives one task through the Thought->Code->Observation cycle until
// a final answer is produced, the iteration budget is exhausted, or an
// unrecoverable error (LLM failure, cancellation) terminates the step.
func (l *Loop) Run(ctx context.Context, task string) (result *Result, err error) {
	runID := uuid.NewString()
	start := time.Now()
	ctx, span := l.tracer.Start(ctx, "loop.run")
	defer func() {
		l.tracer.RecordError(span, err)
		span.End()
		iterations := 0
		if result != nil {
			iterations = len(result.Steps)
			if result.Error != "" {
				l.metrics.RecordLoopError(result.Error)
			}
		}
		l.metrics.RecordLoopRun(runID, time.Since(start), iterations)
	}()

	var steps []ActionStep
	var usage llm.Usage
	var turnAttempts []history.Message
	var lastAssistantText, lastObservationText string
	consecutiveFailures := 0

	for i := 0; i < l.Config.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			l.emit(ctx, stream.Error(err))
			return &Result{Truncated: true, Error: tcoerrors.CancellationError{Reason: err.Error()}.Error(), Steps: steps, Usage: usage}, nil
		}

		iterCtx, iterSpan := l.tracer.StartLoopIteration(ctx, runID, i+1)
		messages := l.buildMessages(task, turnAttempts)
		text, genUsage, err := l.generate(iterCtx, messages)
		iterSpan.End()
		usage = usage.Add(genUsage)
		if err != nil {
			llmErr := tcoerrors.LLMError{Provider: l.LLM.Name(), Err: err}
			l.emit(ctx, stream.Error(llmErr))
			return &Result{Error: llmErr.Error(), Steps: steps, Usage: usage}, nil
		}
		lastAssistantText = text

		code, hasCode := extractCodeBlock(text, l.Config.StopSequence)
		if !hasCode {
			l.emit(ctx, stream.FinalAnswer(text))
			l.consolidate(text, "")
			l.emit(ctx, stream.Completion())
			return &Result{Answer: text, Terminated: true, IsFinalAnswer: true, Steps: steps, Usage: usage}, nil
		}

		l.emit(ctx, stream.CodeStart(code))
		res, runErr := l.interp.Run(ctx, code)

		if runErr != nil {
			if cancel, ok := runErr.(tcoerrors.CancellationError); ok {
				l.emit(ctx, stream.Error(cancel))
				return &Result{Truncated: true, Error: cancel.Error(), Steps: steps, Usage: usage}, nil
			}

			consecutiveFailures++
			errText := runErr.Error()
			obs := "Observation: Error occurred:\n" + errText
			l.emit(ctx, stream.CodeResult(false, errText))
			l.emit(ctx, stream.Observation(obs))

			turnAttempts = append(turnAttempts,
				history.TextMessage(history.RoleAssistant, text),
				toolRoleMessage(obs),
			)
			steps = append(steps, ActionStep{
				StepNumber:    i + 1,
				StepType:      StepAction,
				InputQuery:    task,
				OutputContent: text,
				Error:         errText,
				IsComplete:    true,
				Timestamp:     time.Now(),
				StepID:        uuid.NewString(),
			})

			if consecutiveFailures >= l.Config.MaxCodeRetries {
				l.emit(ctx, stream.Completion())
				return &Result{Truncated: true, Error: "code retry budget exhausted: " + errText, Steps: steps, Usage: usage}, nil
			}
			continue
		}
		consecutiveFailures = 0
		l.emit(ctx, stream.CodeResult(true, ""))

		if res.FinalAnswer {
			ans := res.Value.String()
			l.emit(ctx, stream.FinalAnswer(ans))
			l.consolidate(text, ans)
			l.emit(ctx, stream.Completion())
			return &Result{Answer: ans, Terminated: true, IsFinalAnswer: true, Steps: steps, Usage: usage}, nil
		}

		resultText := res.Printed
		if resultText == "" && res.Value != nil {
			resultText = res.Value.String()
		}
		if looksLikeFinalAnswer(resultText) {
			l.emit(ctx, stream.FinalAnswer(resultText))
			l.consolidate(text, resultText)
			l.emit(ctx, stream.Completion())
			return &Result{Answer: resultText, Terminated: true, IsFinalAnswer: true, Steps: steps, Usage: usage}, nil
		}

		var origin tool.Tool
		if res.OriginTool != "" {
			origin, _ = l.Registry.Resolve(res.OriginTool)
		}
		additional := l.exec.drainContext()
		obsText := l.obsBuilder.Build(res.Value, res.Printed, origin, additional)
		lastObservationText = obsText
		l.emit(ctx, stream.Observation(obsText))

		turnAttempts = append(turnAttempts,
			history.TextMessage(history.RoleAssistant, text),
			toolRoleMessage("Observation:\n"+obsText),
		)
		steps = append(steps, ActionStep{
			StepNumber:    i + 1,
			StepType:      StepObservation,
			InputQuery:    task,
			OutputContent: obsText,
			IsComplete:    true,
			Timestamp:     time.Now(),
			StepID:        uuid.NewString(),
		})
	}

	l.consolidate(lastAssistantText, lastObservationText)
	l.emit(ctx, stream.Completion())
	return &Result{Answer: lastAssistantText, Truncated: true, Steps: steps, Usage: usage}, nil
}

// consolidate appends exactly one (assistant, tool) pair to the
// persistent History for this task, discarding the intermediate
// within-task attempts that only existed to re-prompt the LLM.
func (l *Loop) consolidate(assistantText, observationText string) {
	l.History.Append(history.TextMessage(history.RoleAssistant, assistantText))
	if strings.TrimSpace(observationText) != "" {
		l.History.Append(toolRoleMessage(observationText))
	}
}

// Close shuts down the Loop's stream Bus. Call it once the owning
// session is done issuing Run calls, not after each one — a Loop's
// interpreter globals and Bus both live for the session's duration.
func (l *Loop) Close() {
	l.Bus.Close()
}

func (l *Loop) emit(ctx context.Context, c stream.Chunk) {
	_ = l.Bus.Emit(ctx, c)
}

func toolRoleMessage(text string) history.Message {
	return history.Message{Role: history.RoleTool, Content: []history.ContentBlock{{Type: "text", Text: text}}}
}
