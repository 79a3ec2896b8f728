package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"library-lending/library"
	"library-lending/shell"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type flags struct {
	envFile    string
	journal    string
	seed       string
	loanDays   int
	finePerDay float64
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:          "library-portal",
		Short:        "Library catalog and lending tracker",
		Long:         "Interactive library portal: librarians manage books and members, members borrow and return books and pay overdue fines.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSession(cmd, f)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.envFile, "env-file", ".env", "optional dotenv file with LIBRARY_* settings")
	pf.StringVar(&f.journal, "journal", "", "journal database path (default in-memory)")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.Flags().StringVar(&f.seed, "seed", "", "CSV file of title,author,quantity to load into the catalog")
	root.Flags().IntVar(&f.loanDays, "loan-days", 0, "days until a new book is due")
	root.Flags().Float64Var(&f.finePerDay, "fine-per-day", 0, "fine charged per overdue day")

	root.AddCommand(newHistoryCmd(&f))
	return root
}

// loadConfig merges defaults, the env file, LIBRARY_* variables and the
// command-line flags, in that order.
func loadConfig(cmd *cobra.Command, f flags) (library.Config, error) {
	cfg, err := library.LoadConfig(f.envFile)
	if err != nil {
		return cfg, err
	}
	if f.journal != "" {
		cfg.JournalDSN = f.journal
	}
	if f.seed != "" {
		cfg.SeedFile = f.seed
	}
	if cmd.Flags().Changed("loan-days") {
		if f.loanDays <= 0 {
			return cfg, fmt.Errorf("--loan-days must be positive")
		}
		cfg.LoanPeriodDays = f.loanDays
	}
	if cmd.Flags().Changed("fine-per-day") {
		if f.finePerDay <= 0 {
			return cfg, fmt.Errorf("--fine-per-day must be positive")
		}
		cfg.FinePerDay = f.finePerDay
	}
	if f.logLevel != "" {
		lvl, err := library.ParseLogLevel(f.logLevel)
		if err != nil {
			return cfg, err
		}
		cfg.LogLevel = lvl
	}
	return cfg, nil
}

func newLogger(cfg library.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
}

func runSession(cmd *cobra.Command, f flags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	manager, err := library.NewLibraryManager(cfg, library.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("start library: %w", err)
	}
	defer manager.Close()

	opts := shell.Options{}
	if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil {
			opts.Width = w
		}
	}
	logger.Debug("session starting", "journal", cfg.JournalDSN, "width", opts.Width)

	return shell.New(manager, cmd.InOrStdin(), cmd.OutOrStdout(), opts).Run(cmd.Context())
}

func newHistoryCmd(f *flags) *cobra.Command {
	var (
		memberID string
		bookID   int64
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the loan journal of a file-backed session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, *f)
			if err != nil {
				return err
			}
			if cfg.JournalDSN == library.MemoryJournal {
				return fmt.Errorf("history needs a journal file; pass --journal or set %s", library.EnvJournal)
			}
			j, err := library.NewJournal(cfg.JournalDSN)
			if err != nil {
				return err
			}
			defer j.Close()

			entries, err := j.History(cmd.Context(), library.HistoryFilter{MemberID: memberID, BookID: bookID})
			if err != nil {
				return err
			}
			shell.PrintHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&memberID, "member", "", "only entries for this member id")
	cmd.Flags().Int64Var(&bookID, "book", 0, "only entries for this book id")
	return cmd
}
