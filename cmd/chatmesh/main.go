// Command chatmesh runs declaratively configured agent teams and persists
// their conversational state to JSON files, so a conversation can be stopped
// and resumed across process restarts.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "chatmesh",
		Short:         "Run multi-agent teams with persistent conversational state",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newRunCmd(),
		newResetCmd(),
		newInspectCmd(),
	)

	return cmd
}
