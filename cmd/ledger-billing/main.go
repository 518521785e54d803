// Command ledger-billing prints customer balances, transaction histories,
// invoices and VAT reports from a ledger query service.
package main

import (
	"os"

	"ledgerbilling/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
