package migrate

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/fixpoint/internal/cli"
	"github.com/spec-kit/fixpoint/internal/persistence"
)

var steps int

// NewCommand builds the migrate command tree.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply, roll back or inspect the embedded schema migrations for the configured DB_DRIVER.`,
	}

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
	)
	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		RunE:  runUp,
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE:  runDown,
	}
	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")
	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE:  runStatus,
	}
}

func migrator(cmd *cobra.Command) (*cli.Env, *persistence.Migrator, error) {
	env, err := cli.Init(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	m, err := persistence.NewMigrator(env.DB.SQL, env.DB.Driver, env.Logger)
	if err != nil {
		env.Close()
		return nil, nil, err
	}
	return env, m, nil
}

func runUp(cmd *cobra.Command, _ []string) error {
	env, m, err := migrator(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	env.Logger.Info("running up migrations", zap.String("driver", env.DB.Driver))
	if err := m.Up(cmd.Context()); err != nil {
		env.Logger.Error("migration failed", zap.Error(err))
		return err
	}
	return nil
}

func runDown(cmd *cobra.Command, _ []string) error {
	if steps < 1 {
		return fmt.Errorf("--steps must be at least 1")
	}
	env, m, err := migrator(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	env.Logger.Info("running down migrations", zap.String("driver", env.DB.Driver), zap.Int("steps", steps))
	if err := m.Down(cmd.Context(), steps); err != nil {
		env.Logger.Error("down migration failed", zap.Error(err))
		return err
	}
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	env, m, err := migrator(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	version, err := m.Version(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	states, err := m.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get detailed status: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nMigration Status:\n")
	fmt.Fprintf(out, "  Driver:          %s\n", env.DB.Driver)
	fmt.Fprintf(out, "  Current Version: %d\n\n", version)
	for _, st := range states {
		state := "pending"
		if st.Applied {
			state = "applied"
		}
		fmt.Fprintf(out, "  %-8s %05d  %s\n", state, st.Version, st.Path)
	}
	return nil
}
