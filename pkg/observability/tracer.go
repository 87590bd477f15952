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

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

// TracerI is the span-recording surface pkg/interp and pkg/tool instrument
// against. *Tracer and NoopTracer both satisfy it.
type TracerI interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span)
	StartLoopIteration(ctx context.Context, taskID string, iteration int) (context.Context, trace.Span)
	StartLLMCall(ctx context.Context, model, provider string) (context.Context, trace.Span)
	StartToolExecution(ctx context.Context, toolName, callID string) (context.Context, trace.Span)
	AddLLMUsage(span trace.Span, inputTokens, outputTokens int)
	AddLLMFinishReason(span trace.Span, reason string)
	AddPayload(span trace.Span, key, value string)
	AddToolPayload(span trace.Span, key, value string)
	RecordError(span trace.Span, err error)
	DebugExporter() *DebugExporter
	Shutdown(ctx context.Context) error
}

// Tracer wraps an OpenTelemetry TracerProvider configured from a
// TracingConfig, adding the span-naming and attribute conventions the
// loop/LLM/tool layers instrument against.
type Tracer struct {
	provider        *sdktrace.TracerProvider
	tracer          trace.Tracer
	debugExporter   *DebugExporter
	capturePayloads bool
}

// TracerOption configures a Tracer at construction time.
type TracerOption func(*tracerOptions)

type tracerOptions struct {
	debugExporter   *DebugExporter
	capturePayloads bool
}

// WithDebugExporter attaches an in-memory span exporter alongside the
// configured one, so a CLI --debug flag can inspect recent spans.
func WithDebugExporter(e *DebugExporter) TracerOption {
	return func(o *tracerOptions) { o.debugExporter = e }
}

// WithCapturePayloads enables recording full LLM/tool payloads as span
// attributes. Off by default since payloads can be large and sensitive.
func WithCapturePayloads(enabled bool) TracerOption {
	return func(o *tracerOptions) { o.capturePayloads = enabled }
}

// NewTracer builds a Tracer from cfg, wiring an OTLP-gRPC or stdout span
// exporter depending on cfg.Exporter. Callers should check cfg.Enabled
// before calling NewTracer; Manager does this.
func NewTracer(ctx context.Context, cfg *TracingConfig, opts ...TracerOption) (*Tracer, error) {
	options := tracerOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	exporter, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: building resource: %w", err)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SamplingRate)),
		sdktrace.WithResource(res),
	}
	if options.debugExporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(options.debugExporter))
	}

	provider := sdktrace.NewTracerProvider(tpOpts...)

	return &Tracer{
		provider:        provider,
		tracer:          provider.Tracer(DefaultServiceName),
		debugExporter:   options.debugExporter,
		capturePayloads: options.capturePayloads,
	}, nil
}

func newSpanExporter(ctx context.Context, cfg *TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.IsInsecure() {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, otlptracegrpc.WithTimeout(cfg.Timeout))
		}
		exporter, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("observability: creating OTLP exporter: %w", err)
		}
		return exporter, nil
	}
}

// Start begins a generic span.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// StartLoopIteration begins a span covering one Thought/Code/Observation
// iteration of a task's run.
func (t *Tracer) StartLoopIteration(ctx context.Context, taskID string, iteration int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanLoopIteration, trace.WithAttributes(
		attribute.String(AttrLoopTaskID, taskID),
		attribute.Int(AttrLoopIteration, iteration),
	))
}

// StartLLMCall begins a span covering one call to the LLM provider.
func (t *Tracer) StartLLMCall(ctx context.Context, model, provider string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanLLMCall, trace.WithAttributes(
		attribute.String(AttrLLMModel, model),
		attribute.String(AttrLLMProvider, provider),
	))
}

// StartToolExecution begins a span covering one dispatched tool call.
func (t *Tracer) StartToolExecution(ctx context.Context, toolName, callID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanToolExecution, trace.WithAttributes(
		attribute.String(AttrToolName, toolName),
		attribute.String(AttrEventID, callID),
	))
}

// AddLLMUsage records token usage on an in-flight LLM call span.
func (t *Tracer) AddLLMUsage(span trace.Span, inputTokens, outputTokens int) {
	span.SetAttributes(
		attribute.Int(AttrLLMTokensInput, inputTokens),
		attribute.Int(AttrLLMTokensOutput, outputTokens),
	)
}

// AddLLMFinishReason records why the LLM call stopped generating.
func (t *Tracer) AddLLMFinishReason(span trace.Span, reason string) {
	span.SetAttributes(attribute.String(AttrLLMFinishReason, reason))
}

// AddPayload attaches a (possibly large) value under key, honoring
// capturePayloads: a disabled tracer truncates to a short preview so spans
// stay cheap by default.
func (t *Tracer) AddPayload(span trace.Span, key, value string) {
	if !t.capturePayloads {
		value = truncateString(value, 200)
	}
	span.SetAttributes(attribute.String(key, value))
}

// AddToolPayload attaches a tool call's input or output.
func (t *Tracer) AddToolPayload(span trace.Span, key, value string) {
	t.AddPayload(span, key, value)
}

// RecordError marks the span as failed and attaches the error.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(attribute.String(AttrErrorType, fmt.Sprintf("%T", err)))
}

// DebugExporter returns the in-memory span exporter, or nil if none was
// configured.
func (t *Tracer) DebugExporter() *DebugExporter {
	return t.debugExporter
}

// Shutdown flushes and stops the underlying TracerProvider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}

func noopSpan() trace.Span {
	_, span := nooptrace.NewTracerProvider().Tracer("noop").Start(context.Background(), "noop")
	return span
}

var (
	_ TracerI = (*Tracer)(nil)
	_ TracerI = NoopTracer{}
)

func truncateString(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
