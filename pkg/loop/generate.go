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
	"strings"
	"time"

	"github.com/kadirpekel/tcoagent/pkg/history"
	"github.com/kadirpekel/tcoagent/pkg/llm"
	"github.com/kadirpekel/tcoagent/pkg/stream"
)

// generate streams a completion from the LLM, emitting a thinking chunk
// per delta and accumulating the full text, appending the stop sequence
// if the stream ended before producing it (spec §4.E step 4).
func (l *Loop) generate(ctx context.Context, messages []history.Message) (out string, usage llm.Usage, err error) {
	provider, model := providerAndModel(l.LLM.Name())
	ctx, span := l.tracer.StartLLMCall(ctx, model, provider)
	start := time.Now()
	defer func() {
		l.tracer.RecordError(span, err)
		span.End()
		l.metrics.RecordLLMCall(model, provider, time.Since(start))
		l.metrics.RecordLLMTokens(model, provider, usage.InputTokens, usage.OutputTokens)
		if err != nil {
			l.metrics.RecordLLMError(model, provider, "generate")
		}
	}()

	chunks, err := l.LLM.GenerateStream(ctx, messages, []string{l.Config.StopSequence})
	if err != nil {
		return "", llm.Usage{}, err
	}

	var text strings.Builder
	for c := range chunks {
		if c.Err != nil {
			err = c.Err
			return "", usage, err
		}
		if c.Delta != "" {
			text.WriteString(c.Delta)
			l.emit(ctx, stream.Thinking(c.Delta))
		}
		if c.Done {
			usage = usage.Add(c.Usage)
		}
	}

	out = text.String()
	if !strings.HasSuffix(strings.TrimRight(out, " \t\n"), l.Config.StopSequence) {
		out += l.Config.StopSequence
	}
	l.tracer.AddLLMUsage(span, usage.InputTokens, usage.OutputTokens)
	return out, usage, nil
}

// providerAndModel splits an llm.Provider.Name() of the form
// "provider:model" (e.g. "anthropic:claude-sonnet-4-20250514") into its
// two parts for metric/span labeling. A name without a colon is treated
// as the model with an empty provider.
func providerAndModel(name string) (provider, model string) {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}
