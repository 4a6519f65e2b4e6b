package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB-backed PendingStore with pooled
// connections and auto-migration on construction.
//
// Type parameter S must be JSON-serializable.
type MySQLStore[S any] struct {
	*sqlPendingStore[S]
}

// NewMySQLStore opens a MySQL connection pool against dsn (see
// go-sql-driver/mysql's DSN format) and migrates the HITL tables.
func NewMySQLStore[S any](dsn string) (*MySQLStore[S], error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: opening mysql: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	base, err := newSQLPendingStore[S](db, sharedDDLMySQL)
	if err != nil {
		return nil, err
	}
	return &MySQLStore[S]{sqlPendingStore: base}, nil
}
