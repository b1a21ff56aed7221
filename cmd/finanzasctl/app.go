package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"finanzas/internal/backend"
	"finanzas/internal/cache"
	"finanzas/internal/cli"
	"finanzas/internal/config"
	"finanzas/internal/core"
	"finanzas/internal/export"
	applog "finanzas/internal/log"
	"finanzas/internal/ports"
	"finanzas/internal/services"
)

// App is the finanzasctl command tree.
type App struct {
	rootCmd *cobra.Command

	user  string
	today string
}

// env holds what every subcommand needs once the configuration is loaded.
type env struct {
	cfg       *config.Config
	logger    *applog.Logger
	backend   *backend.BackendResult
	ledger    *services.TransactionService
	dashboard *services.DashboardService
}

func (e *env) Close() {
	if err := e.backend.Cleanup(); err != nil {
		e.logger.Warn("Failed to close data backend", "error", err)
	}
}

func NewApp(versionStr string) *App {
	app := &App{}

	rootCmd := &cobra.Command{
		Use:           "finanzasctl",
		Short:         "Personal finance ledger from the terminal",
		Version:       versionStr,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&app.user, "user", "u", "", "User whose ledger is read (required)")
	rootCmd.PersistentFlags().StringVar(&app.today, "today", "", "Reference day as YYYY-MM-DD (default: today in TIMEZONE)")
	_ = rootCmd.MarkPersistentFlagRequired("user")

	rootCmd.AddCommand(app.summaryCmd(), app.upcomingCmd(), app.exportCmd())
	app.rootCmd = rootCmd
	return app
}

func (app *App) Execute() error {
	return app.rootCmd.Execute()
}

func (app *App) open(ctx context.Context) (*env, error) {
	cli.LoadEnvFile()
	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, err
	}
	// Logs go to stderr so they don't mix with the tables.
	logger := applog.New(applog.Config{
		Component: applog.ComponentCLI,
		Handler:   slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}),
	})
	result, err := cli.OpenStore(ctx, logger.Logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("open data backend: %w", err)
	}
	dashboard := services.NewDashboardService(result.Store, cache.NewOwnerLRU[core.Dashboard](1, time.Minute))
	return &env{
		cfg:       cfg,
		logger:    logger,
		backend:   result,
		ledger:    services.NewTransactionService(result.Store, nil, dashboard),
		dashboard: dashboard,
	}, nil
}

func (app *App) referenceDay(loc *time.Location) (core.Date, error) {
	if app.today == "" {
		return core.DateOf(time.Now().In(loc)), nil
	}
	return core.ParseDate(app.today)
}

func (app *App) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show totals, budgets and goals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := app.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			today, err := app.referenceDay(e.cfg.Location())
			if err != nil {
				return err
			}
			d, err := e.dashboard.Dashboard(cmd.Context(), app.user, today)
			if err != nil {
				return err
			}
			return renderDashboard(d, today)
		},
	}
}

func (app *App) upcomingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upcoming",
		Short: "List projected recurring payments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := app.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			today, err := app.referenceDay(e.cfg.Location())
			if err != nil {
				return err
			}
			d, err := e.dashboard.Dashboard(cmd.Context(), app.user, today)
			if err != nil {
				return err
			}
			return renderUpcoming(d.Upcoming)
		},
	}
}

func (app *App) exportCmd() *cobra.Command {
	var (
		format, title, dir       string
		from, to, kind, category string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the transaction history to a report file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			filter, err := buildFilter(from, to, kind, category)
			if err != nil {
				return err
			}
			e, err := app.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			if dir == "" {
				dir = e.cfg.ExportDir
			}
			txs, err := e.ledger.History(cmd.Context(), app.user, filter)
			if err != nil {
				return err
			}
			path, err := export.WriteFile(dir, f, export.NewReport(title, txs, time.Now().In(e.cfg.Location())))
			if err != nil {
				return err
			}
			printSuccess("%d transactions exported to %s", len(txs), path)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&format, "format", "f", string(export.CSV), "Report format: "+formatList())
	flags.StringVarP(&title, "title", "t", "Transacciones", "Report title")
	flags.StringVarP(&dir, "dir", "d", "", "Output directory (default: EXPORT_DIR)")
	flags.StringVar(&from, "from", "", "First day included, YYYY-MM-DD")
	flags.StringVar(&to, "to", "", "Last day included, YYYY-MM-DD")
	flags.StringVar(&kind, "type", "", "Transaction type")
	flags.StringVar(&category, "category", "", "Category ID")
	return cmd
}

func formatList() string {
	names := make([]string, 0, len(export.Formats()))
	for _, f := range export.Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func buildFilter(from, to, kind, category string) (ports.TransactionFilter, error) {
	var f ports.TransactionFilter
	var err error
	if from != "" {
		if f.From, err = core.ParseDate(from); err != nil {
			return f, fmt.Errorf("--from: %w", err)
		}
	}
	if to != "" {
		if f.To, err = core.ParseDate(to); err != nil {
			return f, fmt.Errorf("--to: %w", err)
		}
	}
	if !f.From.IsEmpty() && !f.To.IsEmpty() && f.To.Before(f.From) {
		return f, fmt.Errorf("--to must not be before --from")
	}
	if kind != "" {
		f.Type = core.TransactionType(kind)
		if !f.Type.Valid() {
			return f, fmt.Errorf("--type: unknown transaction type %q", kind)
		}
	}
	f.CategoryID = strings.TrimSpace(category)
	return f, nil
}
