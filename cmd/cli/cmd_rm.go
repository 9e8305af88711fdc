package main

import (
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm",
	Args:  cobra.ExactArgs(1),
	Short: "Remove an existing script",
	Run:   rmCmdRun,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func rmCmdRun(cmd *cobra.Command, args []string) {
	scriptStore, err := storeByFlags(cmd)
	if err != nil {
		cmd.PrintErrf("failed to get script store: %v\n", err)
		return
	}

	err = scriptStore.DeleteScript(cmd.Context(), args[0])
	if err != nil {
		cmd.PrintErrf("failed to remove script: %v\n", err)
		return
	}

	cmd.Printf("Script removed\n")
}
