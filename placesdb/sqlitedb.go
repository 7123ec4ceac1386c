package placesdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"time"

	"modernc.org/sqlite"

	"ubmap.app/internal/appconf"
	"ubmap.app/internal/geo"
)

//go:embed schema.sql
var ddl string

var registerFunctionsOnce sync.Once
var registerFunctionsErr error

// registerFunctions installs haversine(lon1, lat1, lon2, lat2) and a
// unicode aware casefold(text). The driver keeps registrations process wide,
// so it runs once.
func registerFunctions() error {
	registerFunctionsOnce.Do(func() {
		registerFunctionsErr = sqlite.RegisterDeterministicScalarFunction("haversine", 4,
			func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				var v [4]float64
				for i, arg := range args {
					f, ok := toFloat(arg)
					if !ok {
						return nil, nil
					}
					v[i] = f
				}
				return geo.Haversine(v[0], v[1], v[2], v[3]), nil
			})
		if registerFunctionsErr != nil {
			return
		}

		registerFunctionsErr = sqlite.RegisterDeterministicScalarFunction("casefold", 1,
			func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				switch s := args[0].(type) {
				case string:
					return strings.ToLower(s), nil
				case []byte:
					return strings.ToLower(string(s)), nil
				default:
					return nil, nil
				}
			})
	})
	return registerFunctionsErr
}

func toFloat(v driver.Value) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// createDB opens the SQLite database and applies the schema
func createDB(config Config) (*sql.DB, error) {
	if config.Env == appconf.Test && config.DBPath != ":memory:" {
		return nil, fmt.Errorf("refusing to create a file database in the test environment: %s", config.DBPath)
	}

	if err := registerFunctions(); err != nil {
		return nil, fmt.Errorf("error registering SQL functions: %w", err)
	}

	db, err := sql.Open("sqlite", dataSourceName(config.DBPath))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	configureConnectionPool(db, config.DBPath)

	ctx := context.Background()
	if err := performDatabaseMigration(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}

	return db, nil
}

func dataSourceName(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// configureConnectionPool sizes the pool. Every connection to ":memory:"
// opens its own empty database, so in-memory stores use exactly one.
func configureConnectionPool(db *sql.DB, path string) {
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		return
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
}

func performDatabaseMigration(ctx context.Context, db *sql.DB) error {
	statements := strings.Split(ddl, "-- migrate")
	for _, stmt := range statements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, trimmedStmt); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", trimmedStmt, err)
		}
	}
	return nil
}
