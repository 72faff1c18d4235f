package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jive/ledgerengine/internal/adapter/http/dto"
	"github.com/jive/ledgerengine/internal/adapter/http/middleware"
	"github.com/jive/ledgerengine/internal/infrastructure/config"
	"github.com/jive/ledgerengine/internal/infrastructure/logger"
	"github.com/jive/ledgerengine/internal/infrastructure/postgres"
)

var (
	baseURL        string
	timeout        time.Duration
	idempotencyKey string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Ledger engine CLI tool",
		Long:          `A command line interface for operating the ledger engine and its database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key for commands (generated when empty)")

	rootCmd.AddCommand(migrateCmd(), ledgerCmd(), accountCmd(), transactionCmd())
	return rootCmd
}

// Ledger commands

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check that every balance equals the sum of its entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := newClient().do(cmd.Context(), http.MethodGet, "/api/v1/ledger/consistency", nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch status {
			case http.StatusOK:
				fmt.Fprintln(out, "Consistency check PASSED")
				return nil
			case http.StatusConflict:
				fmt.Fprintln(out, "Consistency check FAILED")
				printJSON(out, json.RawMessage(body))
				return fmt.Errorf("ledger is inconsistent")
			default:
				return apiError(status, body)
			}
		},
	})

	return cmd
}

// Account commands

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show the balance summary of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient().print(cmd, http.MethodGet, "/api/v1/accounts/"+args[0]+"/balance", nil)
		},
	})

	var statementBalance, statementDate string
	reconcile := &cobra.Command{
		Use:   "reconcile <account-id>",
		Short: "Reconcile an account against a bank statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.ReconcileRequest{StatementBalance: statementBalance}
			if statementDate != "" {
				d, err := time.Parse(time.DateOnly, statementDate)
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", statementDate, err)
				}
				d = d.Add(24*time.Hour - time.Nanosecond)
				req.StatementDate = &d
			}
			return newClient().print(cmd, http.MethodPost, "/api/v1/accounts/"+args[0]+"/reconcile", req)
		},
	}
	reconcile.Flags().StringVar(&statementBalance, "balance", "", "Statement closing balance")
	reconcile.Flags().StringVar(&statementDate, "date", "", "Statement date (YYYY-MM-DD), inclusive")
	_ = reconcile.MarkFlagRequired("balance")

	cmd.AddCommand(reconcile)
	return cmd
}

// Transaction commands

func transactionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transaction",
		Short: "Transaction operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "settle <transaction-id>...",
		Short: "Clear pending transactions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient().print(cmd, http.MethodPost, "/api/v1/transactions/settle",
				dto.SettleTransactionsRequest{TransactionIDs: args})
		},
	})

	var ledgerID, policy string
	importCmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import a JSON array of transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var items []dto.ImportItemRequest
			if err := json.Unmarshal(raw, &items); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			return newClient().print(cmd, http.MethodPost, "/api/v1/transactions/import", dto.BulkImportRequest{
				LedgerID:       ledgerID,
				ConflictPolicy: policy,
				Items:          items,
			})
		},
	}
	importCmd.Flags().StringVar(&ledgerID, "ledger", "", "Ledger ID")
	importCmd.Flags().StringVar(&policy, "on-conflict", "skip", "Conflict policy: skip, overwrite or fail")

	cmd.AddCommand(importCmd)
	return cmd
}

// Migration commands run against the database directly.

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMigrator()
			if err != nil {
				return err
			}
			return m.Up()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid steps %q", args[0])
				}
				steps = n
			}
			m, err := newMigrator()
			if err != nil {
				return err
			}
			return m.Down(steps)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMigrator()
			if err != nil {
				return err
			}
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version: %d dirty: %v\n", version, dirty)
			return nil
		},
	})

	return cmd
}

func newMigrator() (*postgres.Migrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logg := logger.NewWithWriter(logger.Config{Level: cfg.LogLevel, Format: "console"}, os.Stderr)
	return postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, logg), nil
}

// API client

type client struct {
	baseURL string
	http    *http.Client
	key     string
}

func newClient() *client {
	key := idempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		key:     key,
	}
}

func (c *client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set(middleware.IdempotencyKeyHeader, c.key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, respBody, nil
}

// print runs the request and prints a successful JSON response.
func (c *client) print(cmd *cobra.Command, method, path string, payload any) error {
	status, body, err := c.do(cmd.Context(), method, path, payload)
	if err != nil {
		return err
	}
	if status >= http.StatusBadRequest {
		return apiError(status, body)
	}
	if method != http.MethodGet {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", middleware.IdempotencyKeyHeader, c.key)
	}
	printJSON(cmd.OutOrStdout(), json.RawMessage(body))
	return nil
}

func apiError(status int, body []byte) error {
	var e dto.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		if e.Message != "" {
			return fmt.Errorf("%s (status %d): %s", e.Error, status, e.Message)
		}
		return fmt.Errorf("%s (status %d)", e.Error, status)
	}
	return fmt.Errorf("unexpected status %d: %s", status, truncate(string(body), 200))
}

func printJSON(w io.Writer, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(w, err)
		return
	}
	fmt.Fprintln(w, string(b))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
