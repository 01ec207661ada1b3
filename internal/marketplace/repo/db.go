package repo

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"

	"github.com/thewillhuang/middleman/internal/marketplace/discovery"
)

// Dialect names a supported datastore.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// ParseDialect accepts the dialect name or the database/sql driver name.
func ParseDialect(raw string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", raw)
	}
}

func (d Dialect) driverName() string {
	if d == Postgres {
		return "pgx"
	}
	return string(d)
}

// mysqlDistance is the haversine formula inlined for MySQL. ST_Distance_Sphere
// rejects coordinates outside the geographic range, which would fail a whole
// search because of one bad row.
const mysqlDistance = `2 * 6371000 * ASIN(SQRT(LEAST(1,
	POWER(SIN(RADIANS(? - latitude) / 2), 2) +
	COS(RADIANS(latitude)) * COS(RADIANS(?)) * POWER(SIN(RADIANS(? - longitude) / 2), 2)
)))`

// distanceExpr returns the SQL computing meters between a task row and a query
// point. Its placeholders are filled by distanceArgs.
func (d Dialect) distanceExpr() string {
	if d == MySQL {
		return mysqlDistance
	}
	return "geo_distance(longitude, latitude, ?, ?)"
}

func (d Dialect) distanceArgs(p discovery.GeoPoint) []interface{} {
	if d == MySQL {
		return []interface{}{p.Lat, p.Lat, p.Lon}
	}
	return []interface{}{p.Lon, p.Lat}
}

var registerSQLite sync.Once

func registerSQLiteFunctions() (err error) {
	registerSQLite.Do(func() {
		err = sqlite.RegisterDeterministicScalarFunction("geo_distance", 4, func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			vals := make([]float64, len(args))
			for i, a := range args {
				switch v := a.(type) {
				case float64:
					vals[i] = v
				case int64:
					vals[i] = float64(v)
				case nil:
					return nil, nil
				default:
					return nil, fmt.Errorf("geo_distance: unsupported argument %T", a)
				}
			}
			from := discovery.GeoPoint{Lon: vals[0], Lat: vals[1]}
			return from.DistanceTo(discovery.GeoPoint{Lon: vals[2], Lat: vals[3]}), nil
		})
	})
	return err
}

// Open connects to the datastore and verifies the connection.
func Open(ctx context.Context, dialect Dialect, dsn string) (*sql.DB, error) {
	if dialect == SQLite {
		if err := registerSQLiteFunctions(); err != nil {
			return nil, fmt.Errorf("register sqlite functions: %w", err)
		}
	}
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, err
	}
	if dialect == SQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(35)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// DB bundles the handle with its dialect and the per-call timeout.
type DB struct {
	sql     *sql.DB
	dialect Dialect
	timeout time.Duration
}

// New wraps an open handle. The handle stays owned by the caller.
func New(db *sql.DB, dialect Dialect, timeout time.Duration) *DB {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &DB{sql: db, dialect: dialect, timeout: timeout}
}

func (d *DB) Dialect() Dialect { return d.dialect }

func (d *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.timeout)
}

// rebind rewrites ? placeholders to $n for postgres.
func (d *DB) rebind(query string) string {
	if d.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func nullableString(src *string) sql.NullString {
	if src == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *src, Valid: true}
}

func nullToPtr(ns sql.NullString) *string {
	if ns.Valid {
		val := ns.String
		return &val
	}
	return nil
}
