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

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/kadirpekel/tcoagent/pkg/agent"
	"github.com/kadirpekel/tcoagent/pkg/server"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the agent's run loop over HTTP, streaming each run as server-sent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cleanup, err := initLogging(flags)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := signalContext()
			defer cancel()

			cfg, err := loadConfig(ctx, flags)
			if err != nil {
				return err
			}
			cfg.Server.Enabled = true
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			cfg.Server.SetDefaults()

			ag, err := agent.New(ctx, cfg, nil)
			if err != nil {
				return fmt.Errorf("initializing agent: %w", err)
			}
			defer ag.Close()

			srv := server.New(ag, ag.Observability)
			httpSrv := &http.Server{
				Addr:         cfg.Server.Address(),
				Handler:      srv,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 0, // SSE responses are long-lived
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("serving agent", "address", httpSrv.Addr)
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				return httpSrv.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "override server.host")
	cmd.Flags().IntVar(&port, "port", 0, "override server.port")
	return cmd
}
