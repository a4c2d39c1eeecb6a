// Package database opens the MySQL pool the ledger runs on.
package database

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    _ "github.com/go-sql-driver/mysql"
)

// Pool sizing: ledger transactions are short (single-row locks), so a
// modest pool keeps lock wait chains short under contention.
const (
    maxOpenConns    = 25
    maxIdleConns    = 25
    connMaxLifetime = 30 * time.Minute
)

// Open connects to MySQL and verifies the connection. parseTime maps
// DATETIME columns to time.Time; loc=UTC keeps unlock and top-up
// timestamps consistent with the UTC_TIMESTAMP() writes.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
    auth := user
    if pass != "" {
        auth = fmt.Sprintf("%s:%s", user, pass)
    }
    dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
        auth, host, port, name)

    db, err := sql.Open("mysql", dsn)
    if err != nil {
        return nil, err
    }

    db.SetMaxOpenConns(maxOpenConns)
    db.SetMaxIdleConns(maxIdleConns)
    db.SetConnMaxLifetime(connMaxLifetime)

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        db.Close()
        return nil, err
    }
    return db, nil
}
