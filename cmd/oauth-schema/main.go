package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/seeraph/oauth2-storage/internal/infrastructure/config"
	"github.com/seeraph/oauth2-storage/internal/infrastructure/database"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	root := &cobra.Command{
		Use:           "oauth-schema",
		Short:         "Manage the OAuth 2.0 storage schema",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newInstallCmd(), newUninstallCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// tableProgress prints one line per table as the schema changes.
type tableProgress struct {
	out io.Writer
}

func (p tableProgress) Creating(table string) { fmt.Fprintf(p.out, "Creating table %s...", table) }
func (p tableProgress) Dropping(table string) { fmt.Fprintf(p.out, "Dropping table %s...", table) }
func (p tableProgress) Done(string)           { fmt.Fprintln(p.out, " done") }

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Create the OAuth 2.0 storage tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			builder, db, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := builder.Up(cmd.Context(), tableProgress{out: cmd.OutOrStdout()}); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "OAuth 2.0 storage installed successfully.")
			return nil
		},
	}
}

func newUninstallCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Drop the OAuth 2.0 storage tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout()) {
				return nil
			}

			builder, db, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := builder.Down(cmd.Context(), tableProgress{out: cmd.OutOrStdout()}); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "OAuth 2.0 storage uninstalled successfully.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")

	return cmd
}

func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Are you sure you want to uninstall? This will delete any and all data and cannot be undone. (y/N) ")

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil {
		return false
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// connect resolves configuration and the database connection. Any failure
// here aborts before a single schema statement has run.
func connect(ctx context.Context) (*database.SchemaBuilder, *database.Postgres, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}

	db, err := database.NewPostgres(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	tables := database.DefaultTables()
	if cfg.TablePrefix != "" {
		tables = database.TablesWithPrefix(cfg.TablePrefix)
	}

	return database.NewSchemaBuilder(db, tables, logger), db, nil
}
