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

package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kadirpekel/tcoagent/pkg/observability"
)

// responseWriter wraps http.ResponseWriter to capture the status code
// for the span/log line written after the handler returns, and to pass
// Flush through for handleRun's SSE writes.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// tracingMiddleware wraps every request in an "http.request" span whose
// http.route attribute is chi's matched route pattern (not the raw path,
// so /v1/run and a future /v1/run/{id} don't fragment into distinct route
// values per request).
// obs may be nil; Manager's Tracer() is nil-safe and NoopTracer.Start
// returns a no-op span in that case.
func (s *Server) tracingMiddleware(obs *observability.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			var tracer observability.TracerI = observability.NoopTracer{}
			if obs.TracingEnabled() {
				tracer = obs.Tracer()
			}

			ctx, span := tracer.Start(r.Context(), "http.request")
			r = r.WithContext(ctx)

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			pattern := routePattern(r)
			span.SetAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", pattern),
				attribute.Int("http.status_code", wrapped.statusCode),
			)
			if wrapped.statusCode >= 500 {
				span.SetStatus(codes.Error, http.StatusText(wrapped.statusCode))
			} else {
				span.SetStatus(codes.Ok, "")
			}
			span.End()

			slog.Debug("http request", "method", r.Method, "route", pattern,
				"status", wrapped.statusCode, "duration", time.Since(start))
		})
	}
}

// routePattern extracts chi's matched route pattern, falling back to
// the raw path when the router hasn't populated RouteContext yet (e.g.
// a 404 on an unmatched path).
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return r.URL.Path
}
