package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/marshallshelly/pebble-shop/cmd/shop/output"
	"github.com/marshallshelly/pebble-shop/cmd/shop/tui"
	"github.com/marshallshelly/pebble-shop/pkg/migration"
)

var (
	// Migrate flags
	dryRun      bool
	interactive bool
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bootstrap or drop the shop tables",
	Long: `Create, drop or inspect the tables of every registered model.

Subcommands:
  up      - Create missing tables and indexes
  down    - Drop every table
  reset   - Drop and recreate every table
  status  - Show which tables exist
  sql     - Print the statements without connecting`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Create missing tables",
	Long: `Create every missing table and index in one transaction. Existing tables are kept.

Examples:
  shop migrate up                 # Create missing tables
  shop migrate up --dry-run       # Print the statements instead
  shop migrate up -i              # Review and confirm interactively`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context(), tui.ActionUp)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Drop every table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context(), tui.ActionDown)
	},
}

var migrateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate every table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context(), tui.ActionReset)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which tables exist",
	Long: `Show every planned table and whether it exists.

Examples:
  shop migrate status             # Table output
  shop migrate status --json      # JSON output`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrateStatus(cmd.Context(), cmd.OutOrStdout())
	},
}

var migrateSQLCmd = &cobra.Command{
	Use:   "sql",
	Short: "Print the schema statements",
	// Needs no database, so configuration is not validated.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := schemaPlan()
		if err != nil {
			return err
		}
		return printPlan(cmd.OutOrStdout(), plan)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateResetCmd, migrateStatusCmd, migrateSQLCmd)

	for _, c := range []*cobra.Command{migrateUpCmd, migrateDownCmd, migrateResetCmd} {
		c.Flags().BoolVarP(&interactive, "interactive", "i", false, "Run in interactive mode with TUI")
		c.Flags().BoolVar(&dryRun, "dry-run", false, "Print the statements without executing")
	}
}

// statements returns what action executes for plan.
func statements(plan *migration.Plan, action string) []string {
	switch action {
	case tui.ActionUp:
		return plan.Up
	case tui.ActionDown:
		return plan.Down
	default:
		return append(append([]string{}, plan.Down...), plan.Up...)
	}
}

func runMigrate(ctx context.Context, action string) error {
	plan, err := schemaPlan()
	if err != nil {
		return err
	}
	out := output.Stdout

	if dryRun {
		out.Section("DRY RUN - " + action)
		for _, stmt := range statements(plan, action) {
			out.Statement(stmt + ";")
		}
		return nil
	}

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	executor := migration.NewExecutor(db)

	if interactive {
		return tui.RunMigrateUI(ctx, action, plan, executor)
	}

	out.Section("Schema " + action)
	switch action {
	case tui.ActionUp:
		err = executor.Up(ctx, plan)
	case tui.ActionDown:
		err = executor.Down(ctx, plan)
	default:
		err = executor.Reset(ctx, plan)
	}
	if err != nil {
		out.Error("%s failed: %v", action, err)
		return fmt.Errorf("migrate %s: %w", action, err)
	}
	out.Success("%s completed for %d table(s)", action, len(plan.Tables))
	return nil
}

func runMigrateStatus(ctx context.Context, w io.Writer) error {
	plan, err := schemaPlan()
	if err != nil {
		return err
	}
	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	status, err := migration.NewExecutor(db).Status(ctx, plan)
	if err != nil {
		return fmt.Errorf("failed to get table status: %w", err)
	}
	return printStatus(w, status)
}

type tableStatusJSON struct {
	Table  string `json:"table"`
	Exists bool   `json:"exists"`
}

func printStatus(w io.Writer, status []migration.TableStatus) error {
	if jsonOutput {
		rows := make([]tableStatusJSON, len(status))
		for i, s := range status {
			rows[i] = tableStatusJSON(s)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TABLE\tSTATUS")
	_, _ = fmt.Fprintln(tw, "-----\t------")
	missing := 0
	for _, s := range status {
		if !s.Exists {
			missing++
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s %s\n", s.Table, output.TableIcon(s.Exists), output.TableState(s.Exists))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	p := output.New(w)
	if missing > 0 {
		p.Warning("%d table(s) missing, run 'shop migrate up'", missing)
	} else {
		p.Success("All %d table(s) present", len(status))
	}
	return nil
}

type planJSON struct {
	Tables []string `json:"tables"`
	Up     []string `json:"up"`
	Down   []string `json:"down"`
}

func printPlan(w io.Writer, plan *migration.Plan) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(planJSON{Tables: plan.TableNames(), Up: plan.Up, Down: plan.Down})
	}
	p := output.New(w)
	p.Section("Up")
	for _, stmt := range plan.Up {
		p.Statement(stmt + ";")
	}
	p.Section("Down")
	for _, stmt := range plan.Down {
		p.Statement(stmt + ";")
	}
	return nil
}
