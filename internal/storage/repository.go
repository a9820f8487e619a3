package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"famfin/internal/core"

	_ "modernc.org/sqlite"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so the same statements
// serve standalone calls and the atomic Record path.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteRepository is the durable ledger store: the append-only
// transaction log plus the single balance row.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the ledger database at
// dbPath, runs migrations, and ensures the balance row exists at 0.
// Idempotent: reopening an existing ledger never resets its balance.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, storageErr("open sqlite database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, storageErr("ping database", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, storageErr("run migrations", err)
	}

	repo := &SQLiteRepository{db: db}

	if err := repo.ensureBalanceRow(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ensureBalanceRow seeds the single balance record at 0 if the ledger
// has never been used before.
func (r *SQLiteRepository) ensureBalanceRow(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO balance (id, current_cents) VALUES (1, 0)`)
	if err != nil {
		return storageErr("seed balance row", err)
	}
	return nil
}

// ReadBalance returns the stored running balance.
func (r *SQLiteRepository) ReadBalance(ctx context.Context) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT current_cents FROM balance WHERE id = 1`).Scan(&cents)
	if err != nil {
		return core.Money{}, storageErr("read balance", err)
	}
	return core.Money{Cents: cents}, nil
}

// WriteBalance overwrites the stored running balance.
func (r *SQLiteRepository) WriteBalance(ctx context.Context, balance core.Money) error {
	if err := writeBalance(ctx, r.db, balance); err != nil {
		return err
	}
	return nil
}

// Append inserts a single transaction with a store-assigned id and
// timestamp. An empty category is stored as NULL (income entries).
func (r *SQLiteRepository) Append(ctx context.Context, category string, amount core.Money) (core.Transaction, error) {
	return insertTransaction(ctx, r.db, category, amount)
}

// Record writes the new balance and appends the transaction as one
// atomic unit. A failure midway leaves prior state intact.
func (r *SQLiteRepository) Record(ctx context.Context, category string, amount, newBalance core.Money) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, storageErr("begin transaction", err)
	}
	defer tx.Rollback()

	if err := writeBalance(ctx, tx, newBalance); err != nil {
		return core.Transaction{}, err
	}

	stored, err := insertTransaction(ctx, tx, category, amount)
	if err != nil {
		return core.Transaction{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Transaction{}, storageErr("commit transaction", err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"id", stored.ID,
		"category", stored.Category,
		"amount_cents", stored.Amount.Cents,
		"balance_cents", newBalance.Cents)

	return stored, nil
}

// Query returns transactions matching the filter in insertion order.
// Date filtering compares the calendar date of the timestamp only.
func (r *SQLiteRepository) Query(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	query := `SELECT id, category, amount_cents, created_at FROM transactions WHERE 1=1`
	var args []any
	if !f.Date.IsEmpty() {
		query += ` AND date(created_at) = ?`
		args = append(args, f.Date.String())
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query transactions", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate transactions", err)
	}
	return txs, nil
}

func writeBalance(ctx context.Context, q dbtx, balance core.Money) error {
	res, err := q.ExecContext(ctx,
		`UPDATE balance SET current_cents = ? WHERE id = 1`, balance.Cents)
	if err != nil {
		return storageErr("write balance", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storageErr("write balance", errors.New("balance row missing"))
	}
	return nil
}

func insertTransaction(ctx context.Context, q dbtx, category string, amount core.Money) (core.Transaction, error) {
	var cat any
	if category != "" {
		cat = category
	}
	row := q.QueryRowContext(ctx,
		`INSERT INTO transactions (category, amount_cents) VALUES (?, ?)
		 RETURNING id, category, amount_cents, created_at`,
		cat, amount.Cents)

	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t         core.Transaction
		category  sql.NullString
		createdAt sql.NullTime
	)
	if err := s.Scan(&t.ID, &category, &t.Amount.Cents, &createdAt); err != nil {
		return core.Transaction{}, storageErr("scan transaction", err)
	}
	t.Category = category.String
	t.CreatedAt = createdAt.Time
	return t, nil
}

// storageErr tags failures with core.ErrStorageUnavailable so callers
// can distinguish them from validation rejections via errors.Is.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(core.ErrStorageUnavailable, err))
}
