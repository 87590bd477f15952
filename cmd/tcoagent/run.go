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
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kadirpekel/tcoagent/pkg/agent"
	"github.com/kadirpekel/tcoagent/pkg/stream"
)

func newRunCommand(flags *globalFlags) *cobra.Command {
	var taskID string

	cmd := &cobra.Command{
		Use:   "run [task]",
		Short: "Run a task once, or start an interactive REPL with no argument",
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

			ag, err := agent.New(ctx, cfg, nil)
			if err != nil {
				return fmt.Errorf("initializing agent: %w", err)
			}
			defer ag.Close()

			if len(args) > 0 {
				return runOnce(ctx, ag, taskID, strings.Join(args, " "))
			}
			return runREPL(ctx, ag)
		},
	}

	cmd.Flags().StringVar(&taskID, "task-id", "", "resume or checkpoint under this task id instead of a random one")
	return cmd
}

// signalContext cancels on SIGINT/SIGTERM so an in-flight run gets a
// chance to checkpoint before the process exits.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}

func runOnce(ctx context.Context, ag *agent.Agent, taskID, task string) error {
	if taskID == "" {
		taskID = uuid.NewString()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		printChunks(ag.Bus())
	}()

	result, err := ag.RunTask(ctx, taskID, task)
	<-done
	if err != nil {
		return fmt.Errorf("running task: %w", err)
	}
	if result.Error != "" {
		return fmt.Errorf("task did not complete: %s", result.Error)
	}
	return nil
}

// runREPL reads one line at a time from stdin, running each as a task
// under its own checkpoint id until the user quits.
func runREPL(ctx context.Context, ag *agent.Agent) error {
	fmt.Println("tcoagent interactive mode. Type a task, or /quit to exit.")
	reader := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !reader.Scan() {
			return nil
		}
		line := strings.TrimSpace(reader.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}

		if err := runOnce(ctx, ag, uuid.NewString(), line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}

		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}

// printChunks renders every chunk off bus to stdout until it closes,
// which happens once the run this bus belongs to returns.
func printChunks(bus *stream.Bus) {
	for chunk := range bus.Chunks() {
		switch chunk.Type {
		case stream.ChunkThinking, stream.ChunkText:
			fmt.Print(chunk.Content)
		case stream.ChunkCodeStart:
			fmt.Printf("\n```\n%s\n```\n", chunk.Content)
		case stream.ChunkToolCall:
			fmt.Printf("\n[calling %s]\n", chunk.Content)
		case stream.ChunkObservation:
			fmt.Printf("%s\n", chunk.Content)
		case stream.ChunkFinalAnswer:
			fmt.Printf("\n%s\n", chunk.Content)
		case stream.ChunkError:
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", chunk.Content)
			return
		case stream.ChunkCompletion:
			return
		}
	}
}
