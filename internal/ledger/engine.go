// Package ledger implements the bookkeeping engine: it is the only
// component that mutates the balance or appends transactions, and it
// keeps the cached balance in lockstep with the durable log.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"famfin/internal/core"
)

// Store is the persistence surface the engine drives. Implemented by
// storage.SQLiteRepository.
type Store interface {
	ReadBalance(ctx context.Context) (core.Money, error)
	// Record persists the new balance and the transaction as one
	// atomic unit and returns the stored transaction.
	Record(ctx context.Context, category string, amount, newBalance core.Money) (core.Transaction, error)
	Query(ctx context.Context, f core.Filter) ([]core.Transaction, error)
	Close() error
}

// Engine wraps a Store with the ledger rules. It caches the balance in
// memory; the cache is the source of truth for reads and only moves
// after a successful atomic record, so balance == sum of stored
// amounts holds at every observation point.
//
// The engine assumes the single-writer discipline: at most one
// in-flight mutating call at a time, imposed by the caller.
type Engine struct {
	store   Store
	balance core.Money
}

// New builds an engine over an initialized store, loading the current
// balance once.
func New(ctx context.Context, store Store) (*Engine, error) {
	balance, err := store.ReadBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("load balance: %w", err)
	}
	return &Engine{store: store, balance: balance}, nil
}

// AddIncome records a credit of amount with no category.
//
// It returns (false, nil) when the amount is rejected by validation —
// a correctable input problem, not a failure — and a non-nil error
// only when the store fails. State is untouched in both cases.
func (e *Engine) AddIncome(ctx context.Context, amount core.Money) (bool, error) {
	if err := amount.Validate(); err != nil {
		slog.DebugContext(ctx, "Income rejected", "reason", err, "amount_cents", amount.Cents)
		return false, nil
	}

	newBalance := e.balance.Add(amount)
	if _, err := e.store.Record(ctx, "", amount, newBalance); err != nil {
		return false, fmt.Errorf("record income: %w", err)
	}
	e.balance = newBalance
	return true, nil
}

// AddExpense records a debit of amount against the given category.
//
// Rejected (false, nil) when the category is blank, the amount is not
// positive, or the expense would overdraw the balance.
func (e *Engine) AddExpense(ctx context.Context, category string, amount core.Money) (bool, error) {
	if err := core.ValidateCategory(category); err != nil {
		slog.DebugContext(ctx, "Expense rejected", "reason", err)
		return false, nil
	}
	if err := amount.Validate(); err != nil {
		slog.DebugContext(ctx, "Expense rejected", "reason", err, "amount_cents", amount.Cents)
		return false, nil
	}
	if amount.Cents > e.balance.Cents {
		slog.DebugContext(ctx, "Expense rejected",
			"reason", core.ErrInsufficientBalance,
			"amount_cents", amount.Cents,
			"balance_cents", e.balance.Cents)
		return false, nil
	}

	newBalance := e.balance.Sub(amount)
	if _, err := e.store.Record(ctx, category, amount.Neg(), newBalance); err != nil {
		return false, fmt.Errorf("record expense: %w", err)
	}
	e.balance = newBalance
	return true, nil
}

// Transactions returns the ledger entries matching the filter, in
// insertion order. Pure read, no side effects.
func (e *Engine) Transactions(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	txs, err := e.store.Query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	return txs, nil
}

// Balance returns the cached running balance without touching the
// store.
func (e *Engine) Balance() core.Money {
	return e.balance
}

func (e *Engine) Close() error {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			return fmt.Errorf("close store: %w", err)
		}
	}
	return nil
}
