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

package loop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kadirpekel/tcoagent/pkg/hook"
	"github.com/kadirpekel/tcoagent/pkg/observability"
	"github.com/kadirpekel/tcoagent/pkg/stream"
	"github.com/kadirpekel/tcoagent/pkg/tool"
	"github.com/kadirpekel/tcoagent/pkg/value"
)

// hookExecutor is the tool.Executor every evaluator-issued call in this
// Loop runs through, so the permission hook pipeline sees code-driven
// calls exactly like any other dispatch. It also emits tool_call/
// tool_response stream chunks and buffers PostHook AdditionalContext
// until the loop drains it for the enclosing code block's observation.
type hookExecutor struct {
	hooks *hook.Config
	reg   *tool.Registry
	bus   *stream.Bus

	tracer  observability.TracerI
	metrics observability.Recorder

	mu    sync.Mutex
	extra []string
}

func (e *hookExecutor) Execute(ctx context.Context, name string, kwargs map[string]value.Value) (value.Value, error) {
	callID := uuid.NewString()
	_ = e.bus.Emit(ctx, stream.ToolCall(name, tool.KwargsToNative(kwargs)))

	ctx, span := e.tracer.StartToolExecution(ctx, name, callID)
	e.tracer.AddToolPayload(span, "input", fmt.Sprintf("%v", tool.KwargsToNative(kwargs)))
	start := time.Now()

	res, err := e.hooks.Dispatch(ctx, e.reg, name, kwargs, callID)

	e.tracer.RecordError(span, err)
	span.End()
	e.metrics.RecordToolCall(name, time.Since(start))
	if err != nil {
		e.metrics.RecordToolError(name, "dispatch")
		return nil, err
	}

	if len(res.AdditionalContext) > 0 {
		e.mu.Lock()
		e.extra = append(e.extra, res.AdditionalContext...)
		e.mu.Unlock()
	}

	var native interface{}
	if res.Value != nil {
		native = tool.ToNative(res.Value)
	}
	_ = e.bus.Emit(ctx, stream.ToolResponse(name, native))

	return res.Value, nil
}

// drainContext returns and clears whatever AdditionalContext PostHooks
// attached since the last drain.
func (e *hookExecutor) drainContext() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.extra
	e.extra = nil
	return out
}
