package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/chatmesh/agent"
	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/state"
	"github.com/hupe1980/chatmesh/team"
)

func newInspectCmd() *cobra.Command {
	var statePath string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print metadata about a persisted state file",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := state.ReadFile(statePath)
			if err != nil {
				return err
			}

			meta, err := snapshot.Meta()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Type:    %s\n", meta.Type)
			fmt.Fprintf(out, "Version: %s\n", meta.Version)

			switch meta.Type {
			case team.TeamStateType:
				var ts team.TeamState
				if err := json.Unmarshal(snapshot, &ts); err != nil {
					return fmt.Errorf("decode team state: %w", err)
				}
				fmt.Fprintf(out, "Team ID:  %s\n", ts.TeamID)
				fmt.Fprintf(out, "Messages: %d\n", len(ts.MessageThread))
				fmt.Fprintf(out, "Agents:   %d\n", len(ts.AgentStates))
				if len(ts.MessageThread) > 0 {
					last := ts.MessageThread[len(ts.MessageThread)-1]
					fmt.Fprintf(out, "Last:     %s: %s\n", core.SourceOf(last), core.TextOf(last))
				}
			case agent.AssistantAgentStateType:
				var as agent.AssistantAgentState
				if err := json.Unmarshal(snapshot, &as); err != nil {
					return fmt.Errorf("decode agent state: %w", err)
				}
				fmt.Fprintf(out, "Messages: %d\n", len(as.LLMMessages))
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&statePath, "state", "s", "", "path to the JSON state file")
	_ = cmd.MarkFlagRequired("state")

	return cmd
}
