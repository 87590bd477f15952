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

// Package stream is the event bus the reasoning loop emits progress
// chunks on while it runs, so a host UI can render the Thought→Code→
// Observation cycle incrementally instead of waiting for the whole step.
package stream

import (
	"context"
	"time"
)

// ChunkType names what a Chunk represents. Consumers treat a run of
// [Partial=true, ..., Partial=false] chunks as one logical message.
type ChunkType string

const (
	ChunkThinking     ChunkType = "thinking"     // incremental LLM prose tokens, pre-code
	ChunkText         ChunkType = "text"         // generic partial text
	ChunkCodeStart    ChunkType = "code_start"    // code block begins; Content is the code
	ChunkToolCall     ChunkType = "tool_call"     // tool about to be called
	ChunkToolResponse ChunkType = "tool_response" // tool returned
	ChunkCodeResult   ChunkType = "code_result"   // evaluator finished the code block
	ChunkObservation  ChunkType = "observation"   // formatted observation ready
	ChunkFinalAnswer  ChunkType = "final_answer"  // final answer detected
	ChunkCompletion   ChunkType = "completion"    // step terminated
	ChunkError        ChunkType = "error"         // fatal error in the loop
)

// Chunk is one unit of progress the loop emits.
type Chunk struct {
	Type      ChunkType
	Content   string
	Partial   bool
	Metadata  map[string]interface{}
	Timestamp time.Time
}

func newChunk(t ChunkType, content string, partial bool, metadata map[string]interface{}) Chunk {
	return Chunk{Type: t, Content: content, Partial: partial, Metadata: metadata, Timestamp: time.Now()}
}

// Thinking builds an incremental-prose chunk.
func Thinking(content string) Chunk { return newChunk(ChunkThinking, content, true, nil) }

// Text builds a generic partial-text chunk.
func Text(content string) Chunk { return newChunk(ChunkText, content, true, nil) }

// CodeStart signals a code block beginning; content is the full code string.
func CodeStart(code string) Chunk { return newChunk(ChunkCodeStart, code, false, nil) }

// ToolCall signals a tool is about to run.
func ToolCall(name string, args map[string]interface{}) Chunk {
	return newChunk(ChunkToolCall, name, false, map[string]interface{}{"name": name, "args": args})
}

// ToolResponse signals a tool returned.
func ToolResponse(name string, result interface{}) Chunk {
	return newChunk(ChunkToolResponse, name, false, map[string]interface{}{"name": name, "result": result})
}

// CodeResult signals the evaluator finished running a code block.
func CodeResult(success bool, errMsg string) Chunk {
	return newChunk(ChunkCodeResult, "", false, map[string]interface{}{"success": success, "error": errMsg})
}

// Observation carries the formatted observation text (pkg/observation's
// Builder.Build output) for this step.
func Observation(text string) Chunk { return newChunk(ChunkObservation, text, false, nil) }

// FinalAnswer signals the loop detected a final answer.
func FinalAnswer(text string) Chunk { return newChunk(ChunkFinalAnswer, text, false, nil) }

// Completion signals the step terminated.
func Completion() Chunk { return newChunk(ChunkCompletion, "", false, nil) }

// Error signals a fatal error in the loop.
func Error(err error) Chunk {
	return newChunk(ChunkError, err.Error(), false, nil)
}

// Bus is a single-producer, multi-chunk channel of Chunks. The loop is the
// only writer; one or more readers drain Chunks() until Close.
type Bus struct {
	ch chan Chunk
}

// NewBus creates a Bus with the given channel buffer size (0 for
// unbuffered — Emit then blocks until a reader is draining Chunks()).
func NewBus(buffer int) *Bus {
	return &Bus{ch: make(chan Chunk, buffer)}
}

// Emit sends c, blocking until a reader accepts it or ctx is done.
func (b *Bus) Emit(ctx context.Context, c Chunk) error {
	select {
	case b.ch <- c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Chunks returns the receive side of the bus for consumers to range over.
func (b *Bus) Chunks() <-chan Chunk {
	return b.ch
}

// Close signals no further chunks will be emitted. Only the producer
// should call this.
func (b *Bus) Close() {
	close(b.ch)
}
