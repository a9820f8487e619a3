package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Money is an amount in integer cents. Ledger amounts are signed:
	// positive for income, negative for expenses. Entry amounts coming
	// from callers are always positive magnitudes.
	Money struct {
		Cents int64
	}

	// Date is a calendar date; the time-of-day portion is ignored when
	// comparing against transaction timestamps.
	Date struct {
		time.Time
	}

	// Transaction is one immutable ledger entry. ID and CreatedAt are
	// assigned by the store at insertion.
	Transaction struct {
		ID        int64
		Category  string // empty for income entries
		Amount    Money  // signed, never zero
		CreatedAt time.Time
	}

	// Filter restricts a ledger query. Zero-value fields mean no
	// constraint on that field; both set means both must match.
	Filter struct {
		Date     Date
		Category string
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyCategory       = errors.New("empty category")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidDate         = errors.New("invalid date")

	// ErrStorageUnavailable marks hard storage failures so callers can
	// tell them apart from validation rejections.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) Neg() Money { return Money{Cents: -m.Cents} }

func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// ValidateCategory rejects empty or blank category labels. The label
// set is free text; suggested category lists are a presentation
// concern.
func ValidateCategory(category string) error {
	if strings.TrimSpace(category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// IsEmpty reports whether the date is unset (no filter constraint).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// IsIncome reports whether the transaction credits the balance.
func (t Transaction) IsIncome() bool {
	return t.Amount.Cents > 0
}

// IsExpense reports whether the transaction debits the balance.
func (t Transaction) IsExpense() bool {
	return t.Amount.Cents < 0
}

// IsEmpty reports whether the filter places no constraint at all.
func (f Filter) IsEmpty() bool {
	return f.Date.IsEmpty() && f.Category == ""
}
