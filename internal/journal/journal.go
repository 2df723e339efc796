// Package journal provides durable storage for message exchanges.
// Uses SQLite with WAL mode for concurrent read access; the serving loop
// writes one row per message and the trace command reads them back.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Exchange is one journaled message, in either direction.
type Exchange struct {
	ID        string
	ConnID    string
	Seq       int64
	Direction string // "recv" or "send"
	Protocol  string
	Method    string
	Ordinal   uint64
	Txid      uint32
	Payload   string // canonical JSON of the decoded value
	At        time.Time
}

// Journal is an append-mostly exchange log backed by SQLite.
type Journal struct {
	db *sql.DB
}

// Open creates or opens a journal database at the given path. Idempotent;
// the schema is applied on every open.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// WriteExchange inserts one exchange. Duplicate IDs are silently ignored so
// retried writes stay idempotent.
func (j *Journal) WriteExchange(ctx context.Context, ex Exchange) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO exchanges
		(id, conn_id, seq, direction, protocol, method, ordinal, txid, payload, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		ex.ID,
		ex.ConnID,
		ex.Seq,
		ex.Direction,
		ex.Protocol,
		ex.Method,
		int64(ex.Ordinal),
		int64(ex.Txid),
		ex.Payload,
		ex.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write exchange: %w", err)
	}
	return nil
}

// Exchanges returns every exchange of one connection in sequence order.
func (j *Journal) Exchanges(ctx context.Context, connID string) ([]Exchange, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, conn_id, seq, direction, protocol, method, ordinal, txid, payload, at
		FROM exchanges
		WHERE conn_id = ?
		ORDER BY seq, direction
	`, connID)
	if err != nil {
		return nil, fmt.Errorf("read exchanges: %w", err)
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		var ex Exchange
		var ordinal, txid int64
		var at string
		if err := rows.Scan(&ex.ID, &ex.ConnID, &ex.Seq, &ex.Direction, &ex.Protocol,
			&ex.Method, &ordinal, &txid, &ex.Payload, &at); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		ex.Ordinal = uint64(ordinal)
		ex.Txid = uint32(txid)
		if ts, err := time.Parse(time.RFC3339Nano, at); err == nil {
			ex.At = ts
		}
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read exchanges: %w", err)
	}
	return out, nil
}

// Connections returns the distinct connection IDs present in the journal,
// oldest first.
func (j *Journal) Connections(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT conn_id FROM exchanges GROUP BY conn_id ORDER BY MIN(rowid)
	`)
	if err != nil {
		return nil, fmt.Errorf("read connections: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read connections: %w", err)
	}
	return out, nil
}
