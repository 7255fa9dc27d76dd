package db

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrUnknownMigrateAction is returned for a migrate subcommand that does
// not exist.
var ErrUnknownMigrateAction = errors.New("unknown migrate action")

// RunMigrateCommand handles the 'migrate' subcommand against the database
// at dbPath. Status and results are written to out.
func RunMigrateCommand(args []string, dbPath string, out io.Writer) error {
	if len(args) < 1 {
		PrintMigrateHelp(out)
		return fmt.Errorf("%w: none given", ErrUnknownMigrateAction)
	}
	action := args[0]
	if action == "help" {
		PrintMigrateHelp(out)
		return nil
	}

	// The schema is left alone until the action runs.
	database, err := OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	switch action {
	case "up":
		if err := database.MigrateUp(); err != nil {
			return err
		}
		fmt.Fprintln(out, "All migrations applied")
	case "down":
		if err := database.MigrateDown(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Rolled back one migration")
	case "status":
		return printMigrateStatus(database, out)
	case "version":
		v, err := versionArg(args)
		if err != nil {
			return err
		}
		if err := database.MigrateTo(uint(v)); err != nil {
			return err
		}
		fmt.Fprintf(out, "Migrated to version %d\n", v)
	case "force":
		v, err := versionArg(args)
		if err != nil {
			return err
		}
		if err := database.MigrateForce(v); err != nil {
			return err
		}
		fmt.Fprintf(out, "Migration version forced to %d\n", v)
	default:
		PrintMigrateHelp(out)
		return fmt.Errorf("%w: %s", ErrUnknownMigrateAction, action)
	}
	return printMigrateStatus(database, out)
}

func versionArg(args []string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("usage: particle migrate %s <version_number>", args[0])
	}
	v, err := strconv.Atoi(args[1])
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid version number: %s", args[1])
	}
	return v, nil
}

func printMigrateStatus(database *DB, out io.Writer) error {
	version, dirty, err := database.MigrateVersion()
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	latest, err := LatestMigrationVersion()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Current version: %d\n", version)
	fmt.Fprintf(out, "Latest available: %d\n", latest)
	fmt.Fprintf(out, "Dirty: %v\n", dirty)
	switch {
	case dirty:
		fmt.Fprintln(out, "A migration failed mid-execution. Inspect the database, then run: particle migrate force <version>")
	case version < latest:
		fmt.Fprintf(out, "Database is %d version(s) behind. Run 'particle migrate up' to update.\n", latest-version)
	}
	return nil
}

// PrintMigrateHelp writes the usage of the migrate command.
func PrintMigrateHelp(out io.Writer) {
	fmt.Fprint(out, `Database Migration Commands

Usage: particle migrate -db <path> <command> [version]

Commands:
  up              Apply all pending migrations
  down            Roll back one migration
  status          Show current and latest migration version
  version <N>     Migrate up or down to version N
  force <N>       Record version N without running migrations (recovery only)
  help            Show this help message
`)
}
