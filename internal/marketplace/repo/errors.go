package repo

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/thewillhuang/middleman/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	mysqlDuplicateEntry   = 1062
	mysqlDuplicateKeyName = 1061
)

// isUniqueViolation recognises duplicate-key failures of every supported driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func isDuplicateIndex(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateKeyName
}

// classify maps driver errors onto the marketplace error kinds. Anything that
// is not a known business condition is reported as retryable.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %s", models.ErrNotFound, op)
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %s", models.ErrAlreadyExists, op)
	default:
		return fmt.Errorf("%w: %s: %w", models.ErrUnavailable, op, err)
	}
}
