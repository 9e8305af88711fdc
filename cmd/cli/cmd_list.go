package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "list all the scripts registered in the store",
	Run:     listCmdRun,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func listCmdRun(cmd *cobra.Command, args []string) {
	scriptStore, err := storeByFlags(cmd)
	if err != nil {
		cmd.PrintErrf("failed to get script store: %v\n", err)
		return
	}

	names, err := scriptStore.ListScripts(cmd.Context())
	if err != nil {
		cmd.PrintErrf("failed to list scripts: %v\n", err)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateRows = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateHeader = false
	t.Style().Options.SeparateFooter = false

	t.AppendHeader(table.Row{"Name"})

	for _, name := range names {
		t.AppendRow(table.Row{name})
	}

	t.Render()
}
