package seed

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/fixpoint/internal/cli"
	"github.com/spec-kit/fixpoint/internal/events"
	"github.com/spec-kit/fixpoint/internal/observability"
	"github.com/spec-kit/fixpoint/internal/persistence"
	"github.com/spec-kit/fixpoint/internal/repository"
	"github.com/spec-kit/fixpoint/internal/service"
)

// NewCommand builds the seed command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install demo accounts and incidents",
		Long:  `Insert the demo chiefs, technicians, users and unattended incidents when the account table is empty.`,
		RunE:  run,
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	env, err := cli.Init(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	if env.Config.Database.RunMigrations {
		if err := persistence.RunMigrations(ctx, env.DB, env.Logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	services := service.NewServices(env.Config, repository.NewSet(env.DB), events.NewInMemoryDispatcher(), observability.NewMetrics(), env.Logger)
	result, err := services.Provisioning.SeedDemoData(ctx)
	if err != nil {
		env.Logger.Error("seed failed", zap.Error(err))
		return err
	}
	if result.Skipped {
		fmt.Fprintln(cmd.OutOrStdout(), "accounts already exist; nothing seeded")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users and %d incidents\n", result.Users, result.Incidents)
	return nil
}
