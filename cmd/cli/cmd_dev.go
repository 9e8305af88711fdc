package main

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sqlstore "github.com/numkem/sqlscript/store"
)

var devCmd = &cobra.Command{
	Use:   "dev",
	Args:  validateArgIsDirectory,
	Short: "Watches a script directory and re-checks scripts as they change",
	Run:   devCmdRun,
}

func init() {
	rootCmd.AddCommand(devCmd)
}

func validateArgIsDirectory(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("a single path to a script directory is required")
	}

	stat, err := os.Stat(args[0])
	if err != nil {
		return fmt.Errorf("invalid directory %s: %v", args[0], err)
	}
	if !stat.IsDir() {
		return fmt.Errorf("%s isn't a directory", args[0])
	}

	return nil
}

func devCmdRun(cmd *cobra.Command, args []string) {
	resolver, err := sqlstore.NewFileResolver(args[0])
	if err != nil {
		cmd.PrintErrf("failed to create store: %v\n", err)
		return
	}

	// check everything once before watching
	filenames, err := filepath.Glob(filepath.Join(args[0], "*.sql"))
	if err != nil {
		cmd.PrintErrf("failed to read scripts: %v\n", err)
		return
	}
	for _, filename := range filenames {
		cmd.Printf("%s:\n", filename)
		if err := checkFile(cmd, filename); err != nil {
			cmd.PrintErrf("%v\n", err)
		}
	}

	err = resolver.WatchScripts(cmd.Context(), func(path string) {
		log.Infof("script changed: %s", path)

		if err := checkFile(cmd, path); err != nil {
			cmd.PrintErrf("%v\n", err)
		}
	})
	if err != nil {
		cmd.PrintErrf("watch failed: %v\n", err)
	}
}
