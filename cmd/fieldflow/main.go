package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/annix-labs/fieldflow/internal/interfaces/cli/migrate"
	"github.com/annix-labs/fieldflow/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fieldflow",
		Short: "FieldFlow meeting platform integration service",
		Long:  "FieldFlow connects sales reps' Zoom, Teams and Google Meet accounts, syncs their meetings and archives call recordings",
	}

	rootCmd.AddCommand(server.NewCommand())
	rootCmd.AddCommand(migrate.NewCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
