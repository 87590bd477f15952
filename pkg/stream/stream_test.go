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

package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_EmitAndReceive(t *testing.T) {
	b := NewBus(4)
	ctx := context.Background()

	require.NoError(t, b.Emit(ctx, Thinking("pondering")))
	require.NoError(t, b.Emit(ctx, CodeStart("print(1)")))
	b.Close()

	var got []Chunk
	for c := range b.Chunks() {
		got = append(got, c)
	}
	require.Len(t, got, 2)
	assert.Equal(t, ChunkThinking, got[0].Type)
	assert.True(t, got[0].Partial)
	assert.Equal(t, ChunkCodeStart, got[1].Type)
	assert.False(t, got[1].Partial)
	assert.Equal(t, "print(1)", got[1].Content)
}

func TestBus_EmitRespectsContextCancellation(t *testing.T) {
	b := NewBus(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Emit(ctx, Text("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConstructors_SetExpectedMetadata(t *testing.T) {
	tc := ToolCall("web_search", map[string]interface{}{"query": "go"})
	assert.Equal(t, "web_search", tc.Metadata["name"])

	tr := ToolResponse("web_search", "ok")
	assert.Equal(t, "ok", tr.Metadata["result"])

	cr := CodeResult(false, "boom")
	assert.Equal(t, false, cr.Metadata["success"])
	assert.Equal(t, "boom", cr.Metadata["error"])

	errChunk := Error(errors.New("fatal"))
	assert.Equal(t, ChunkError, errChunk.Type)
	assert.Equal(t, "fatal", errChunk.Content)
}

func TestChunk_TimestampIsStamped(t *testing.T) {
	before := time.Now()
	c := Completion()
	assert.False(t, c.Timestamp.Before(before.Add(-time.Second)))
}
