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

package observability

const (
	AttrServiceName    = "service.name"
	AttrServiceVersion = "service.version"
	AttrLoopTaskID     = "loop.task_id"
	AttrLoopIteration  = "loop.iteration"
	AttrToolName       = "tool.name"
	AttrLLMModel       = "llm.model"
	AttrLLMProvider    = "llm.provider"
	AttrLLMTokensInput = "llm.tokens.input"
	AttrLLMTokensOutput = "llm.tokens.output"
	AttrLLMFinishReason = "llm.finish_reason"
	AttrErrorType      = "error.type"
	AttrEventID        = "tcoagent.event_id"

	SpanLoopIteration = "loop.iteration"
	SpanLLMCall       = "llm.call"
	SpanToolExecution = "tool.execution"

	DefaultServiceName  = "tcoagent"
	DefaultOTLPEndpoint = "localhost:4317"
	DefaultSamplingRate = 1.0
	DefaultMetricsPath  = "/metrics"
)
