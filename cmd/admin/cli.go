package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/coursehub/backend/internal/models"
	"github.com/spf13/cobra"
)

// AccountService manages admin accounts and passwords
type AccountService interface {
	CreateAdmin(ctx context.Context, name, email, password string) (*models.User, error)
	ResetPassword(ctx context.Context, email, password string) error
}

// ProgressRecomputer rebuilds stored enrollment percentages
type ProgressRecomputer interface {
	RecomputeCourse(ctx context.Context, courseID *int) (int, error)
}

// Migrator applies and rolls back schema migrations
type Migrator interface {
	Up() error
	Down(steps int) error
	Version() (uint, bool, error)
}

var errPasswordMismatch = errors.New("passwords do not match")

// cli holds the dependencies of the commands. connect wires them from the
// environment before a command runs and is nil when they are injected.
type cli struct {
	accounts     AccountService
	progress     ProgressRecomputer
	migrations   Migrator
	readPassword func(fd int) ([]byte, error)
	stdinFD      int
	connect      func(c *cli) (func(), error)
	closer       func()
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "coursehub-admin",
		Short:         "Operational commands for CourseHub",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.connect == nil {
				return nil
			}
			closer, err := c.connect(c)
			if err != nil {
				return err
			}
			c.closer = closer
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.closer != nil {
				c.closer()
			}
		},
	}

	root.AddCommand(
		newMigrateCmd(c),
		newCreateAdminCmd(c),
		newResetPasswordCmd(c),
		newRecomputeProgressCmd(c),
	)
	return root
}

func newMigrateCmd(c *cli) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.migrations.Up(); err != nil {
				return err
			}
			return printVersion(cmd.OutOrStdout(), c.migrations)
		},
	}

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Long:  "Roll back the given number of migrations. Without --steps every migration is rolled back.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 0 {
				return fmt.Errorf("--steps must not be negative")
			}
			if err := c.migrations.Down(steps); err != nil {
				return err
			}
			return printVersion(cmd.OutOrStdout(), c.migrations)
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 0, "number of migrations to roll back (0 = all)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printVersion(cmd.OutOrStdout(), c.migrations)
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd, versionCmd)
	return migrateCmd
}

func printVersion(out io.Writer, m Migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if dirty {
		fmt.Fprintf(out, "schema version %d (dirty)\n", version)
		return nil
	}
	fmt.Fprintf(out, "schema version %d\n", version)
	return nil
}

func newCreateAdminCmd(c *cli) *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account or promote an existing one",
		Long:  "Create an admin account. An existing account with the same email is promoted and gets the new password.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := c.promptNewPassword(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			user, err := c.accounts.CreateAdmin(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s (id %d) is ready\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name of a new account")
	cmd.Flags().StringVar(&email, "email", "", "email of the account")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newResetPasswordCmd(c *cli) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password and sign the user out everywhere",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := c.promptNewPassword(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := c.accounts.ResetPassword(cmd.Context(), email, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password of %s was reset\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the account")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRecomputeProgressCmd(c *cli) *cobra.Command {
	var courseID int
	cmd := &cobra.Command{
		Use:   "recompute-progress",
		Short: "Rebuild stored enrollment progress from lesson records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var course *int
			if courseID > 0 {
				course = &courseID
			}
			updated, err := c.progress.RecomputeCourse(cmd.Context(), course)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d enrollments updated\n", updated)
			return nil
		},
	}
	cmd.Flags().IntVar(&courseID, "course", 0, "course ID (0 = all courses)")
	return cmd
}

// promptNewPassword reads a password twice without echo
func (c *cli) promptNewPassword(out io.Writer) (string, error) {
	fmt.Fprint(out, "Password: ")
	first, err := c.readPassword(c.stdinFD)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Fprint(out, "Confirm password: ")
	second, err := c.readPassword(c.stdinFD)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if string(first) != string(second) {
		return "", errPasswordMismatch
	}
	return string(first), nil
}
