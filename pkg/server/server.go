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

// Package server exposes one running Agent over HTTP: a single
// POST /v1/run endpoint that streams the Thought->Code->Observation
// cycle as server-sent events, plus health and metrics endpoints for an
// operator running the agent as a long-lived process instead of an
// interactive CLI session.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/kadirpekel/tcoagent/pkg/agent"
	"github.com/kadirpekel/tcoagent/pkg/observability"
	"github.com/kadirpekel/tcoagent/pkg/stream"
)

// Server is the SSE front door onto one Agent. The Agent owns a single
// Loop whose interpreter globals persist across runs, so Server
// serializes requests with runMu rather than fan out concurrent runs
// against shared mutable state.
type Server struct {
	agent *agent.Agent
	mux   *chi.Mux

	runMu sync.Mutex
}

// New builds a Server wrapping agent. obs may be nil, in which case no
// /metrics route is registered and that path answers 404.
func New(ag *agent.Agent, obs *observability.Manager) *Server {
	s := &Server{agent: ag, mux: chi.NewRouter()}

	s.mux.Use(middleware.Recoverer)
	s.mux.Use(s.tracingMiddleware(obs))

	s.mux.Get("/healthz", s.handleHealth)
	s.mux.Post("/v1/run", s.handleRun)
	if obs != nil {
		s.mux.Handle("/metrics", obs.MetricsHandler())
	}

	return s
}

// ServeHTTP satisfies http.Handler so Server can be passed straight to
// http.Server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// runRequest is the POST /v1/run body: task is the user's instruction,
// taskID is optional and enables resuming a checkpointed run.
type runRequest struct {
	TaskID string `json:"task_id,omitempty"`
	Task   string `json:"task"`
}

// sseEvent mirrors stream.Chunk for the wire: Metadata is passed through
// as-is since it already holds only JSON-safe values (strings, bools,
// nested string-to-native maps built by tool.KwargsToNative/ToNative).
type sseEvent struct {
	Type      stream.ChunkType       `json:"type"`
	Content   string                 `json:"content,omitempty"`
	Partial   bool                   `json:"partial,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// handleRun decodes a run request, starts the task, and streams every
// stream.Chunk the loop emits as one "data: ..." SSE frame apiece,
// finishing with a "done" event once the loop returns.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Task == "" {
		http.Error(w, "task is required", http.StatusBadRequest)
		return
	}
	if req.TaskID == "" {
		req.TaskID = uuid.NewString()
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := s.agent.RunTask(ctx, req.TaskID, req.Task); err != nil {
			slog.Error("run failed", "task_id", req.TaskID, "error", err)
		}
	}()

	for {
		select {
		case chunk, ok := <-s.agent.Bus().Chunks():
			if !ok {
				writeSSE(w, "done", nil)
				flusher.Flush()
				return
			}
			writeSSE(w, string(chunk.Type), sseEvent{
				Type: chunk.Type, Content: chunk.Content, Partial: chunk.Partial,
				Metadata: chunk.Metadata, Timestamp: chunk.Timestamp,
			})
			flusher.Flush()
			if chunk.Type == stream.ChunkCompletion || chunk.Type == stream.ChunkError {
				<-done
				writeSSE(w, "done", nil)
				flusher.Flush()
				return
			}
		case <-done:
			writeSSE(w, "done", nil)
			flusher.Flush()
			return
		case <-ctx.Done():
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, payload interface{}) {
	fmt.Fprintf(w, "event: %s\n", event)
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		return
	}
	fmt.Fprint(w, "data: {}\n\n")
}
