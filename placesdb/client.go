package placesdb

import (
	"context"
	"database/sql"
	"log/slog"

	"ubmap.app/internal/logging"
)

// Client owns the database handle and the operations that span several
// statements.
type Client struct {
	config  Config
	DB      *sql.DB
	Queries *Queries
	logger  *slog.Logger
}

// NewClient creates a new Client with the provided configuration
func NewClient(config Config) (*Client, error) {
	db, err := createDB(config)
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		config:  config,
		DB:      db,
		Queries: New(db),
		logger:  logger.With(slog.String("component", "placesdb")),
	}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

// Ping verifies the database is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// withTx runs fn inside a transaction, committing when it returns nil.
func (c *Client) withTx(ctx context.Context, operation string, fn func(q *Queries) error) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer logging.SafeRollbackWithLogging(tx, c.logger, operation)

	if err := fn(c.Queries.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit()
}
