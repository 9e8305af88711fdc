package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/numkem/sqlscript"
	"github.com/numkem/sqlscript/parser"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Args:  validateArgIsPath,
	Short: "Parse a script file and show its statements and directives",
	Run:   checkCmdRun,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func validateArgIsPath(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("a single path to a sql file is required")
	}

	if _, err := os.Stat(args[0]); err != nil {
		return fmt.Errorf("invalid filename %s: %v", args[0], err)
	}

	return nil
}

func checkFile(cmd *cobra.Command, filename string) error {
	script, err := sqlscript.ReadFile(filename)
	if err != nil {
		return err
	}

	statements, err := parser.New(string(script.Content), filename, script.Terminator).Parse()
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateRows = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateHeader = false
	t.Style().Options.SeparateFooter = false

	t.AppendHeader(table.Row{"Line", "Directives", "Statement"})

	for _, st := range statements {
		var names []string
		for _, d := range st.Directives {
			names = append(names, d.Name)
		}

		text := st.Text
		if len(text) > 60 {
			text = text[:57] + "..."
		}

		t.AppendRow(table.Row{st.Line, strings.Join(names, ", "), text})
	}

	t.Render()

	return nil
}

func checkCmdRun(cmd *cobra.Command, args []string) {
	if err := checkFile(cmd, args[0]); err != nil {
		cmd.PrintErrf("%v\n", err)
		return
	}
}
