package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"ledgerbilling/internal/core"
)

func (a *app) customersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "customers",
		Short: "List customers",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			list, err := a.billing.Customers(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "NAME\tID\tADDRESS")
			for _, c := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, c.ID, strings.ReplaceAll(c.Address, "\n", ", "))
			}
			return w.Flush()
		}),
	}
}

func (a *app) balanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <customer>",
		Short: "Show a customer's billable and receivable balances",
		Args:  cobra.ExactArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			balance, err := a.billing.CustomerBalance(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintf(w, "Customer:\t%s\n", balance.Customer.Name)
			fmt.Fprintf(w, "Billable:\t%s\n", formatTotals(balance.Billable))
			fmt.Fprintf(w, "Receivable:\t%s\n", formatTotals(balance.Receivable))
			return w.Flush()
		}),
	}
}

func (a *app) transactionsCommand() *cobra.Command {
	var typeFilter string
	cmd := &cobra.Command{
		Use:   "transactions <customer>",
		Short: "Show a customer's transactions, classified",
		Args:  cobra.ExactArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			result, err := a.billing.CustomerTransactions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			txs := result.Transactions
			if typeFilter != "" {
				t, err := core.ParseTransactionType(typeFilter)
				if err != nil {
					return err
				}
				txs = core.Filter(txs, t)
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "DATE\tCODE\tTYPE\tPAYEE\tACCOUNT\tAMOUNT\tNOTE")
			for _, tx := range txs {
				for i, p := range tx.Postings {
					if i == 0 {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\t", tx.Date, tx.Code, tx.Type, tx.Payee)
					} else {
						fmt.Fprint(w, "\t\t\t\t")
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", p.Account, p.Amount, p.Note)
				}
			}
			return w.Flush()
		}),
	}
	cmd.Flags().StringVarP(&typeFilter, "type", "t", "", "only show billables, invoice, payment or unknown transactions")
	return cmd
}

func (a *app) invoiceCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "invoice <customer> <code>",
		Short: "Render the invoice with the given transaction code",
		Args:  cobra.ExactArgs(2),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			inv, err := a.billing.Invoice(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(inv.Output)
				return err
			}
			if err := os.WriteFile(output, inv.Output, 0o644); err != nil {
				return fmt.Errorf("write invoice: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Invoice %s for %s written to %s (%s)\n",
				inv.Document.Code, inv.Document.Customer.Name, output, formatTotals(inv.Document.Totals))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the rendered invoice to a file instead of stdout")
	return cmd
}

func (a *app) taxCommand() *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "tax",
		Short: "Net VAT received against VAT paid",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			report, err := a.billing.TaxReport(cmd.Context(), period)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			if report.Period != "" {
				fmt.Fprintf(w, "Period:\t%s\n", report.Period)
			}
			fmt.Fprintf(w, "VAT received:\t%s\n", formatTotals(report.Received))
			fmt.Fprintf(w, "VAT paid:\t%s\n", formatTotals(report.Paid))
			fmt.Fprintf(w, "Net due:\t%s\n", formatTotals(report.Net))
			return w.Flush()
		}),
	}
	cmd.Flags().StringVarP(&period, "period", "p", "", "ledger period expression, e.g. 2024 or \"last quarter\"")
	return cmd
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

// formatTotals prints per-currency totals in a stable order.
func formatTotals(totals map[string]decimal.Decimal) string {
	if len(totals) == 0 {
		return "0"
	}
	parts := make([]string, 0, len(totals))
	for _, currency := range core.Currencies(totals) {
		parts = append(parts, core.Amount{Currency: currency, Value: totals[currency]}.String())
	}
	return strings.Join(parts, ", ")
}
