package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/numkem/sqlscript"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Args:  validateArgIsPath,
	Short: "Add a script to the backend by reading the provided sql file",
	Run:   addCmdRun,
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.PersistentFlags().StringP("name", "n", "", "The name of the script in the backend")
}

func addCmdRun(cmd *cobra.Command, args []string) {
	scriptStore, err := storeByFlags(cmd)
	if err != nil {
		cmd.PrintErrf("failed to get script store: %v\n", err)
		return
	}

	// Read the file so headers can supply the name
	script, err := sqlscript.ReadFile(args[0])
	if err != nil {
		log.Errorf("failed to read the script file %s: %v", args[0], err)
		return
	}

	name := cmd.Flag("name").Value.String()
	if name == "" {
		name = script.Name
	}

	err = scriptStore.AddScript(cmd.Context(), name, string(script.Content))
	if err != nil {
		log.Fatalf("Failed to add script: %v", err)
	}

	cmd.Printf("Script added successfully under name %s\n", name)
}
