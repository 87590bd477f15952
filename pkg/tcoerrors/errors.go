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

// Package tcoerrors defines the error taxonomy of the reasoning loop: one
// concrete type per failure kind so callers can switch on the kind rather
// than matching strings.
package tcoerrors

import "fmt"

// ParseError reports a code block that failed to tokenize or parse.
type ParseError struct {
	Source string
	Pos    int
	Msg    string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Msg)
}

// InterpreterError reports a violation of an evaluator limit or semantic
// rule: unauthorized import, exceeded operation budget, disallowed
// attribute access, or an unsupported AST node.
type InterpreterError struct {
	Kind string // e.g. "unauthorized_import", "operation_budget", "unsupported_node"
	Msg  string
	Err  error
}

func (e InterpreterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("interpreter error (%s): %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("interpreter error (%s): %s", e.Kind, e.Msg)
}

func (e InterpreterError) Unwrap() error { return e.Err }

// ToolError reports an exception raised by a tool's forward implementation.
// It is recoverable: the loop captures it as an observation.
type ToolError struct {
	ToolName string
	CallID   string
	Err      error
}

func (e ToolError) Error() string {
	return fmt.Sprintf("tool %q (call %s) failed: %v", e.ToolName, e.CallID, e.Err)
}

func (e ToolError) Unwrap() error { return e.Err }

// HookError reports a hook that threw. Treated like ToolError: the
// triggering tool call is considered failed.
type HookError struct {
	ToolName string
	Phase    string // "pre" or "post"
	Err      error
}

func (e HookError) Error() string {
	return fmt.Sprintf("%s-hook for tool %q failed: %v", e.Phase, e.ToolName, e.Err)
}

func (e HookError) Unwrap() error { return e.Err }

// PermissionDeniedError reports a PreHook decision of deny or ask (without
// consent). The tool call synthesizes a denial observation instead of
// invoking forward.
type PermissionDeniedError struct {
	ToolName string
	Reason   string
}

func (e PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied for tool %q: %s", e.ToolName, e.Reason)
}

// LLMError reports a malformed provider response or a network failure.
// It terminates the current step.
type LLMError struct {
	Provider string
	Err      error
}

func (e LLMError) Error() string {
	return fmt.Sprintf("llm provider %q error: %v", e.Provider, e.Err)
}

func (e LLMError) Unwrap() error { return e.Err }

// BudgetExhaustedError reports that the iteration budget was reached. The
// step closes gracefully with truncated=true.
type BudgetExhaustedError struct {
	MaxIterations int
}

func (e BudgetExhaustedError) Error() string {
	return fmt.Sprintf("iteration budget of %d exhausted", e.MaxIterations)
}

// CancellationError reports an externally induced cancellation. The step
// closes with truncated=true.
type CancellationError struct {
	Reason string
}

func (e CancellationError) Error() string {
	if e.Reason == "" {
		return "step cancelled"
	}
	return fmt.Sprintf("step cancelled: %s", e.Reason)
}
