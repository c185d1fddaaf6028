package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/mfsledger/internal/adapter/http/dto"
	"github.com/iho/mfsledger/internal/domain"
)

var (
	baseURL string
	token   string
	timeout time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mfsledger-cli",
		Short:         "MFS Ledger CLI tool",
		Long:          `A command line interface for the MFS Ledger API and its database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the MFS Ledger API")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("MFSLEDGER_TOKEN"), "Bearer token (defaults to $MFSLEDGER_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Ledger commands
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger checks (admin token required)",
	}
	ledgerCmd.AddCommand(consistencyCmd(), reconcileCmd())

	txCmd := &cobra.Command{
		Use:   "tx",
		Short: "Transaction history",
	}
	txCmd.AddCommand(listTransactionsCmd())

	rootCmd.AddCommand(
		loginCmd(),
		balanceCmd(),
		quoteCmd(),
		txCmd,
		ledgerCmd,
		hashPINCmd(),
		migrateCmd(),
		adminCmd(),
		outboxCmd(),
	)

	return rootCmd
}

func loginCmd() *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "login <mobile|email>",
		Short: "Exchange credentials for a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.LoginResponse
			if err := callAPI(http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{Identifier: args[0], PIN: pin}, &resp); err != nil {
				return err
			}
			fmt.Println(resp.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&pin, "pin", "", "Account PIN")
	_ = cmd.MarkFlagRequired("pin")

	return cmd
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the caller's balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.BalanceResponse
			if err := callAPI(http.MethodGet, "/api/v1/accounts/me/balance", nil, &resp); err != nil {
				return err
			}
			printJSON(resp)
			return nil
		},
	}
}

func quoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote <cash-out|send-money|cash-in> <amount>",
		Short: "Price a movement without performing it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{"type": {args[0]}, "amount": {args[1]}}
			var resp dto.FeeQuoteResponse
			if err := callAPI(http.MethodGet, "/api/v1/fees/quote?"+q.Encode(), nil, &resp); err != nil {
				return err
			}
			printJSON(resp)
			return nil
		},
	}
}

func listTransactionsCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the caller's transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{"limit": {strconv.Itoa(limit)}, "offset": {strconv.Itoa(offset)}}
			var resp dto.ListTransactionsResponse
			if err := callAPI(http.MethodGet, "/api/v1/transactions/me?"+q.Encode(), nil, &resp); err != nil {
				return err
			}
			printTransactions(os.Stdout, resp.Transactions)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	return cmd
}

func consistencyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result dto.ConsistencyResponse
			status, err := fetch(http.MethodGet, "/api/v1/ledger/consistency", nil, &result, http.StatusConflict)
			if err != nil {
				return err
			}

			printJSON(result)
			if status != http.StatusOK {
				return fmt.Errorf("consistency check FAILED: balances %s, entries %s, minted %s",
					result.TotalBalance, result.TotalEntries, result.TotalMinted)
			}
			fmt.Println("Consistency check PASSED")
			return nil
		},
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Compare every stored balance with its entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report dto.ReconciliationResponse
			status, err := fetch(http.MethodGet, "/api/v1/ledger/reconciliation", nil, &report, http.StatusConflict)
			if err != nil {
				return err
			}

			printJSON(report)
			if status != http.StatusOK {
				return fmt.Errorf("reconciliation FAILED: %d discrepancies", len(report.Discrepancies))
			}
			fmt.Printf("Reconciled %d/%d accounts\n", report.ReconciledAccounts, report.TotalAccounts)
			return nil
		},
	}
}

// callAPI performs a request and decodes a 2xx response into out.
func callAPI(method, path string, body, out any) error {
	_, err := fetch(method, path, body, out)
	return err
}

// fetch performs a request against baseURL. Responses with a 2xx status or
// one of accept are decoded into out; anything else is an error carrying
// the response body.
func fetch(method, path string, body, out any, accept ...int) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if !accepted(resp.StatusCode, accept) {
		return resp.StatusCode, fmt.Errorf("request failed (status %d): %s", resp.StatusCode, truncate(string(bytes.TrimSpace(data)), 200))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func accepted(status int, extra []int) bool {
	if status >= 200 && status < 300 {
		return true
	}
	for _, s := range extra {
		if status == s {
			return true
		}
	}
	return false
}

func printTransactions(w io.Writer, txs []*dto.TransactionViewResponse) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSTATUS\tAMOUNT\tFEE\tFROM\tTO\tDESCRIPTION")
	for _, t := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Type, t.Status, t.Amount.StringFixed(2), t.Fee.StringFixed(2),
			partyLabel(t.From), partyLabel(t.To), truncate(t.Description, 24))
	}
	_ = tw.Flush()
}

func partyLabel(p *domain.PartyView) string {
	if p == nil {
		return "-"
	}
	return p.Mobile
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode output: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

// truncate shortens s to at most n characters, marking the cut with "...".
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
