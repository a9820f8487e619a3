package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"famfin/internal/cli"
	"famfin/internal/config"
	"famfin/internal/core"
	"famfin/internal/export"
	"famfin/internal/ledger"
	applog "famfin/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(slog.LevelInfo)
	cfg := cli.LoadAndValidateConfig(logger)
	if level, err := config.ParseLevel(cfg.LogLevel); err == nil && level != slog.LevelInfo {
		logger = cli.SetupLogger(level)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	if os.Args[1] == "help" || os.Args[1] == "-h" || os.Args[1] == "--help" {
		printUsage()
		return
	}

	ctx := context.Background()

	store := cli.InitStore(logger, cfg.DBPath)
	engine, err := ledger.New(ctx, store)
	if err != nil {
		logger.Error("Failed to initialize ledger engine", applog.FieldError, err)
		store.Close()
		os.Exit(1)
	}
	defer engine.Close()

	var runErr error
	switch os.Args[1] {
	case "balance":
		runErr = runBalance(engine)
	case "income":
		runErr = runIncome(ctx, engine, os.Args[2:])
	case "expense":
		runErr = runExpense(ctx, engine, os.Args[2:])
	case "list":
		runErr = runList(ctx, engine, os.Args[2:])
	case "summary":
		runErr = runSummary(ctx, engine)
	case "export":
		runErr = runExport(ctx, engine, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if runErr != nil {
		fmt.Fprintln(os.Stderr, "Error:", runErr)
		engine.Close()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("famfin - family bookkeeping ledger")
	fmt.Println("\nUsage:")
	fmt.Println("  famfin <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  balance                      Show the current balance")
	fmt.Println("  income <amount>              Record an income")
	fmt.Println("  expense <category> <amount>  Record an expense")
	fmt.Println("  list [-date YYYY-MM-DD] [-category NAME]")
	fmt.Println("                               List transactions, optionally filtered")
	fmt.Println("  summary                      Show expense totals by category")
	fmt.Println("  export [-o FILE]             Export the ledger as CSV")
	fmt.Println("  help                         Show this help message")
}

func runBalance(engine *ledger.Engine) error {
	fmt.Println(engine.Balance().Decimal())
	return nil
}

func runIncome(ctx context.Context, engine *ledger.Engine, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: famfin income <amount>")
	}
	amount, err := core.ParseDecimalToCents(args[0])
	if err != nil {
		return fmt.Errorf("amount %q: %w", args[0], err)
	}

	ok, err := engine.AddIncome(ctx, amount)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("income rejected: amount must be positive")
	}
	fmt.Printf("Income of %s recorded, balance is %s\n",
		amount.Decimal(), engine.Balance().Decimal())
	return nil
}

func runExpense(ctx context.Context, engine *ledger.Engine, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: famfin expense <category> <amount>")
	}
	category := args[0]
	amount, err := core.ParseDecimalToCents(args[1])
	if err != nil {
		return fmt.Errorf("amount %q: %w", args[1], err)
	}

	ok, err := engine.AddExpense(ctx, category, amount)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("expense rejected: check the category, the amount, and the available balance (%s)",
			engine.Balance().Decimal())
	}
	fmt.Printf("Expense of %s (%s) recorded, balance is %s\n",
		amount.Decimal(), category, engine.Balance().Decimal())
	return nil
}

func runList(ctx context.Context, engine *ledger.Engine, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	dateArg := fs.String("date", "", "only transactions on this date (YYYY-MM-DD)")
	categoryArg := fs.String("category", "", "only transactions with this category")
	fs.Parse(args)

	var filter core.Filter
	if *dateArg != "" {
		d, err := core.ParseDate(*dateArg)
		if err != nil {
			return fmt.Errorf("date %q: %w", *dateArg, err)
		}
		filter.Date = d
	}
	filter.Category = *categoryArg

	txs, err := engine.Transactions(ctx, filter)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tAMOUNT\tDATE")
	for _, t := range txs {
		category := t.Category
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			category, t.Amount.Decimal(), t.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func runSummary(ctx context.Context, engine *ledger.Engine) error {
	txs, err := engine.Transactions(ctx, core.Filter{})
	if err != nil {
		return err
	}

	byCategory := core.ExpensesByCategory(txs)
	if len(byCategory) == 0 {
		fmt.Println("No expenses recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tSPENT")
	for _, c := range byCategory {
		fmt.Fprintf(w, "%s\t%s\n", c.Name, c.Amount.Decimal())
	}
	return w.Flush()
}

func runExport(ctx context.Context, engine *ledger.Engine, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("o", "", "output file (default stdout)")
	fs.Parse(args)

	txs, err := engine.Transactions(ctx, core.Filter{})
	if err != nil {
		return err
	}

	if *out == "" {
		return export.WriteCSV(os.Stdout, txs)
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	if err := export.WriteCSV(f, txs); err != nil {
		return err
	}
	fmt.Printf("Exported %d transactions to %s\n", len(txs), *out)
	return nil
}
