// dbadmin is a small read-only inspection CLI for a NaiveDB data file:
// page/buffer occupancy (`stats`) and a catalog dump (`catalog`). It
// replaces the teacher's own throwaway binaries (cmd/seed, cmd/inspect_idx,
// cmd/dump_sample), which drove a SQL executor and a single bespoke index
// file outside spec.md's scope; dbadmin instead opens the single-file
// storage core directly, the way an operator of an embedded engine with no
// REPL would want to peek at it.
//
// Grounded on daviszhen-plan/cmd/tester/main.go's cobra root-command-plus-
// subcommands shape.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"naivedb/internal/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "dbadmin",
	Short:        "Inspect a NaiveDB data file",
	Long:         "dbadmin opens a NaiveDB single-file database image and reports on its structure.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a dbadmin config file (optional)")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(catalogCmd)
}

func main() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
