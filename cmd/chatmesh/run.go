package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/chatmesh/config"
	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/state"
)

func newRunCmd() *cobra.Command {
	var (
		configPath string
		statePath  string
		task       string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a task against the configured team",
		Long: `Run a task against the configured team, streaming messages to stdout.

When --state names an existing file the team's prior conversational state is
loaded before the run, and the updated state is written back afterwards. This
lets a conversation continue across invocations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := config.LoadEnv(); err != nil {
				return err
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			tm, err := cfg.Build()
			if err != nil {
				return err
			}

			if statePath != "" {
				snapshot, err := state.ReadFile(statePath)
				switch {
				case errors.Is(err, state.ErrSnapshotNotFound):
					// first run, nothing to restore
				case err != nil:
					return fmt.Errorf("load state: %w", err)
				default:
					if err := tm.LoadState(ctx, snapshot); err != nil {
						return fmt.Errorf("load state: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Resumed conversation from %s\n\n", statePath)
				}
			}

			msgCh, errCh := tm.RunStream(ctx, task)
			for m := range msgCh {
				if !verbose && isPartial(m) {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", core.SourceOf(m), core.TextOf(m))
			}
			if err := <-errCh; err != nil {
				return err
			}

			if statePath != "" {
				snapshot, err := tm.SaveState(ctx)
				if err != nil {
					return fmt.Errorf("save state: %w", err)
				}
				if err := state.WriteFile(statePath, snapshot); err != nil {
					return fmt.Errorf("save state: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nSaved conversation state to %s\n", statePath)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the team YAML definition")
	cmd.Flags().StringVarP(&statePath, "state", "s", "", "path to the JSON state file (loaded if present, saved on completion)")
	cmd.Flags().StringVarP(&task, "task", "t", "", "task to run")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also print streaming fragments")

	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("task")

	return cmd
}

// isPartial reports whether m is a streaming fragment rather than a
// completed message.
func isPartial(m core.Message) bool {
	tm, ok := m.(core.TextMessage)
	return ok && tm.Metadata["partial"] == "true"
}
