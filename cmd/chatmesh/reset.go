package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	var statePath string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Remove a persisted state file",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := os.Remove(statePath)
			if os.IsNotExist(err) {
				fmt.Fprintf(cmd.OutOrStdout(), "No state file at %s\n", statePath)
				return nil
			}
			if err != nil {
				return fmt.Errorf("remove state: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", statePath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&statePath, "state", "s", "", "path to the JSON state file")
	_ = cmd.MarkFlagRequired("state")

	return cmd
}
