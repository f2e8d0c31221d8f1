package repository

import (
	"context"
	"errors"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Global error declarations.
var (
	ErrNoFills       = errors.New("no fills found in datasource")
	ErrInvalidFill   = errors.New("invalid fill in datasource")
	ErrMissingColumn = errors.New("required column missing")
)

type fillsRepository interface {
	ScanFills(ctx context.Context, arg FillQuery, fn func(fillRow) error) error
}

// Database struct that holds the database connection and queries.
type Database struct {
	fills fillsRepository
	conn  *pgxpool.Pool
}

// NewDatabase creates a new Database instance and verifies connectivity.
func NewDatabase(dbURL string) (Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return Database{}, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	conn, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return Database{}, err
	}
	// Ensure the connection is established.
	if err := conn.Ping(context.Background()); err != nil {
		conn.Close()
		return Database{}, err
	}

	return Database{
		fills: pgFills{pool: conn},
		conn:  conn}, nil
}

func (db *Database) Close() {
	if db.conn != nil {
		db.conn.Close()
	}
}
