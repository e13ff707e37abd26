package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"budget/internal/core"
	"budget/internal/log"

	_ "modernc.org/sqlite" // register sqlite driver
)

// SQLiteRepository keeps the ledger document as one JSON row per key.
type SQLiteRepository struct {
	db  *sql.DB
	key string
}

func NewSQLiteRepository(dbPath, key string) (*SQLiteRepository, error) {
	if key == "" {
		key = DefaultKey
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// _txlock=immediate makes every transaction take the write lock at BEGIN,
	// so two processes cannot both read the same document version in Update.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite schema ready",
		log.FieldComponent, log.ComponentStorage,
		"schema_version", version,
		log.FieldStorageKey, key)

	return &SQLiteRepository{db: db, key: key}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *SQLiteRepository) load(ctx context.Context, q querier) (core.Ledger, error) {
	var body string
	err := q.QueryRowContext(ctx,
		`SELECT body FROM ledger_documents WHERE storage_key = ?`, r.key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NewLedger(), nil
	}
	if err != nil {
		return core.Ledger{}, unavailable("load ledger", err)
	}

	doc, err := core.DecodeLedger([]byte(body))
	if err != nil {
		return core.Ledger{}, unavailable("load ledger", err)
	}
	return doc, nil
}

func (r *SQLiteRepository) save(ctx context.Context, q querier, doc core.Ledger) error {
	body, err := core.EncodeLedger(doc)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO ledger_documents (storage_key, body, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(storage_key) DO UPDATE SET
			body = excluded.body,
			updated_at = excluded.updated_at`,
		r.key, string(body))
	if err != nil {
		return unavailable("save ledger", err)
	}

	slog.DebugContext(ctx, "Ledger saved to SQLite",
		log.FieldComponent, log.ComponentStorage,
		log.FieldStorageKey, r.key,
		"bytes", len(body),
		"expenses", len(doc.Expenses))
	return nil
}

// Load implements DocumentStore
func (r *SQLiteRepository) Load(ctx context.Context) (core.Ledger, error) {
	return r.load(ctx, r.db)
}

// Save implements DocumentStore. The single upsert is the atomic unit.
func (r *SQLiteRepository) Save(ctx context.Context, doc core.Ledger) error {
	return r.save(ctx, r.db, doc)
}

// Update implements DocumentStore inside one immediate transaction, so
// writers in other processes sharing the file wait for the commit.
func (r *SQLiteRepository) Update(ctx context.Context, fn UpdateFunc) (core.Ledger, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Ledger{}, unavailable("begin update", err)
	}
	defer tx.Rollback()

	doc, err := r.load(ctx, tx)
	if err != nil {
		return core.Ledger{}, err
	}
	next, err := fn(doc)
	if err != nil {
		return core.Ledger{}, err
	}
	if err := r.save(ctx, tx, next); err != nil {
		return core.Ledger{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.Ledger{}, unavailable("commit update", err)
	}
	return next, nil
}

// Reset implements DocumentStore
func (r *SQLiteRepository) Reset(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM ledger_documents WHERE storage_key = ?`, r.key); err != nil {
		return unavailable("reset ledger", err)
	}

	slog.InfoContext(ctx, "Ledger document discarded",
		log.FieldComponent, log.ComponentStorage,
		log.FieldStorageKey, r.key)
	return nil
}
