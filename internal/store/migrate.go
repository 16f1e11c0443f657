package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/piwi3910/DrapeCalc/internal/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const sqliteDialect = "sqlite3"

// Migrate runs all pending migrations embedded in the binary. Goose output
// goes to log; a nil log discards it.
func Migrate(ctx context.Context, db *sql.DB, log *logger.Logger) error {
	if log == nil {
		log = logger.Discard()
	}
	goose.SetLogger(gooseLogger{log: log.WithComponent("migrate")})
	goose.SetBaseFS(migrationFS)
	if err := goose.SetDialect(sqliteDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}

	return nil
}

// gooseLogger adapts the structured logger to goose.Logger.
type gooseLogger struct {
	log *logger.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
	_ = g.log.Close()
	os.Exit(1)
}
