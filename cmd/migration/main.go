// Command migration applies the report archive schema.
//
// Usage:
//
//	migration up
//	migration down 1
//	migration version
//	migration force 1
//	migration goto 1
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/riskibarqy/venue-insights/internal/platform/logging"
	"github.com/spf13/cobra"
)

var logger = logging.New(logging.Options{Level: logging.LevelInfo, Format: logging.FormatConsole, Output: os.Stderr})

func main() {
	_ = godotenv.Load(".env")

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var dir string
	root := &cobra.Command{
		Use:          "migration",
		Short:        "Manage the venue_reports schema",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dir, "dir", "", "Migrations directory (default: MIGRATIONS_DIR or ./db/migrations)")

	withMigrator := func(fn func(m *migrate.Migrate, args []string) error) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, args []string) error {
			m, err := newMigrator(dir)
			if err != nil {
				return err
			}
			defer closeMigrator(m)
			return fn(m, args)
		}
	}

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(m *migrate.Migrate, _ []string) error {
			if err := ignoreNoChange(m.Up()); err != nil {
				return err
			}
			logger.Info("migrations applied")
			return nil
		}),
	})
	root.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: withMigrator(func(m *migrate.Migrate, args []string) error {
			steps, err := parseSteps(args)
			if err != nil {
				return err
			}
			if err := ignoreNoChange(m.Steps(-steps)); err != nil {
				return err
			}
			logger.Info("migrations rolled back", "steps", steps)
			return nil
		}),
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(m *migrate.Migrate, _ []string) error {
			version, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Println("version: none")
				fmt.Println("dirty: false")
				return nil
			}
			if err != nil {
				return fmt.Errorf("read version: %w", err)
			}
			fmt.Printf("version: %d\n", version)
			fmt.Printf("dirty: %t\n", dirty)
			return nil
		}),
	})
	root.AddCommand(&cobra.Command{
		Use:   "force <version>",
		Short: "Set the schema version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: withMigrator(func(m *migrate.Migrate, args []string) error {
			version, err := parseVersion(args[0])
			if err != nil {
				return err
			}
			if err := m.Force(version); err != nil {
				return fmt.Errorf("force version %d: %w", version, err)
			}
			logger.Info("forced schema version", "version", version)
			return nil
		}),
	})
	root.AddCommand(&cobra.Command{
		Use:     "goto <version>",
		Aliases: []string{"migrate"},
		Short:   "Migrate up or down to a specific version",
		Args:    cobra.ExactArgs(1),
		RunE: withMigrator(func(m *migrate.Migrate, args []string) error {
			target, err := parseTarget(args[0])
			if err != nil {
				return err
			}
			if err := ignoreNoChange(m.Migrate(target)); err != nil {
				return err
			}
			logger.Info("migrated", "version", target)
			return nil
		}),
	})
	return root
}

func newMigrator(dir string) (*migrate.Migrate, error) {
	dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
	if dbURL == "" {
		return nil, fmt.Errorf("DB_URL is required")
	}

	migrationsDir, err := resolveMigrationsDir(dir)
	if err != nil {
		return nil, err
	}

	sourceURL := "file://" + filepath.ToSlash(migrationsDir)
	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	logger.Info("migrator ready", "source", sourceURL)
	return m, nil
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}

	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps <= 0 {
		return 0, fmt.Errorf("down steps must be > 0")
	}
	return steps, nil
}

func parseVersion(raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("version must be >= 0")
	}
	return value, nil
}

func parseTarget(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q: %w", raw, err)
	}
	return uint(value), nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migration changes")
		return nil
	}
	return err
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("close migration source failed", "error", srcErr)
	}
	if dbErr != nil {
		logger.Warn("close migration db failed", "error", dbErr)
	}
}

func resolveMigrationsDir(explicit string) (string, error) {
	candidates := []string{
		strings.TrimSpace(explicit),
		strings.TrimSpace(os.Getenv("MIGRATIONS_DIR")),
		"./db/migrations",
		"/app/db/migrations",
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			continue
		}
		return abs, nil
	}

	return "", fmt.Errorf("migration directory not found (checked --dir, MIGRATIONS_DIR, ./db/migrations, /app/db/migrations)")
}
