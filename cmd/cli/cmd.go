package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sqlstore "github.com/numkem/sqlscript/store"
)

var rootCmd = &cobra.Command{
	Use:   "sqlscript",
	Short: "sqlscript CLI",
	Long:  `sqlscript is a command line interface for managing and running annotated SQL scripts`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := log.ParseLevel(cmd.Flag("log-level").Value.String())
		if err != nil {
			log.Fatalf("Invalid log level: %v", err)
		}
		log.SetLevel(level)
	},
}

func init() {
	if os.Getenv("DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "set the logger to this log level")
	rootCmd.PersistentFlags().StringP("etcdurls", "e", "localhost:2379", "Endpoints to connect to etcd")
	rootCmd.PersistentFlags().StringP("backend", "b", sqlstore.BACKEND_FILE_NAME, "The name of the backend to use to manipulate the scripts")
	rootCmd.PersistentFlags().StringP("dir", "d", ".", "Directory holding the scripts for the file backend")
	rootCmd.PersistentFlags().String("dbpath", "sqlscript.db", "Path of the sqlite database for the sqlite backend")
}

func storeByFlags(cmd *cobra.Command) (sqlstore.ScriptStore, error) {
	return sqlstore.StoreByName(
		cmd.Flag("backend").Value.String(),
		cmd.Flag("etcdurls").Value.String(),
		cmd.Flag("dir").Value.String(),
		cmd.Flag("dbpath").Value.String(),
	)
}

func Execute() error {
	return rootCmd.Execute()
}
