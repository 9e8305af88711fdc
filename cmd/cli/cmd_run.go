package main

import (
	"database/sql"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/numkem/sqlscript/processor"
	"github.com/numkem/sqlscript/runner"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Args:  cobra.ExactArgs(1),
	Short: "Runs the named script against a database",
	Run:   runCmdRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.PersistentFlags().String("driver", "sqlite3", "Name of the database/sql driver to use")
	runCmd.PersistentFlags().String("dsn", ":memory:", "Connection string handed to the driver")
	runCmd.PersistentFlags().StringArrayP("prop", "P", nil, "Property as key=value, repeatable")
	runCmd.PersistentFlags().Bool("dynamic", false, "Re-evaluate If directives on every execution instead of at compile time")
	runCmd.PersistentFlags().Int("timeout", 0, "Default statement timeout in seconds")
}

func runCmdRun(cmd *cobra.Command, args []string) {
	scriptStore, err := storeByFlags(cmd)
	if err != nil {
		cmd.PrintErrf("failed to get script store: %v\n", err)
		return
	}

	database, err := sql.Open(cmd.Flag("driver").Value.String(), cmd.Flag("dsn").Value.String())
	if err != nil {
		cmd.PrintErrf("failed to open database: %v\n", err)
		return
	}
	defer database.Close()

	properties := make(processor.MapProperties)
	props, err := cmd.Flags().GetStringArray("prop")
	if err != nil {
		cmd.PrintErrf("failed to read properties: %v\n", err)
		return
	}
	for _, prop := range props {
		key, value, found := strings.Cut(prop, "=")
		if !found {
			cmd.PrintErrf("invalid property %q, expected key=value\n", prop)
			return
		}

		properties[key] = value
	}

	dynamic, _ := cmd.Flags().GetBool("dynamic")
	timeout, _ := cmd.Flags().GetInt("timeout")

	callbacks := processor.NewCallbackHandler()
	callbacks.Register("print", func(ctx *processor.Context, text string, cbArgs []string) error {
		cmd.Printf("%s\n", text)
		return nil
	})

	composite := processor.NewComposite(
		processor.NewContext(database, log.StandardLogger()),
		&processor.IfHandler{},
		callbacks,
		&processor.LoadTableHandler{},
		&processor.TimeoutHandler{},
	)

	configs := map[string]any{
		runner.ProcessorIdentity(composite): &processor.Config{
			Timeout: time.Duration(timeout) * time.Second,
			Handlers: map[string]any{
				"If": &processor.IfConfig{Dynamic: dynamic, Properties: properties},
			},
		},
	}

	r := runner.NewRunner(scriptStore, configs, log.StandardLogger())
	if err := r.ExecuteScript(args[0], composite); err != nil {
		cmd.PrintErrf("failed to run script %s: %v\n", args[0], err)
		return
	}

	cmd.Printf("Script %s executed\n", args[0])
}
