package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/spec-kit/fixpoint/internal/cli/migrate"
	"github.com/spec-kit/fixpoint/internal/cli/seed"
	"github.com/spec-kit/fixpoint/internal/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "fixpoint",
		Short:        "Fixpoint - equipment incident tracking",
		Long:         `Fixpoint records equipment incidents, lets area chiefs assign them to technicians and tracks them until resolved.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		seed.NewCommand(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
