// Package export renders ledger transactions for external consumers.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"famfin/internal/core"
)

const timestampLayout = "2006-01-02 15:04:05"

// WriteCSV writes one header row followed by one row per transaction,
// preserving ledger order. Amounts are exported as absolute values;
// the type column carries the direction.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"type", "category", "amount", "timestamp"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, t := range txs {
		kind := "income"
		if t.IsExpense() {
			kind = "expense"
		}
		row := []string{
			kind,
			t.Category,
			t.Amount.Abs().Decimal(),
			t.CreatedAt.Format(timestampLayout),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
