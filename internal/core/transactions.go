package core

import "sort"

// MergePostings concatenates posting batches and stable-sorts them by date.
// Duplicates are kept: the forward and related queries return the two sides of
// the same transactions.
func MergePostings(batches ...[]Posting) []Posting {
	n := 0
	for _, b := range batches {
		n += len(b)
	}
	merged := make([]Posting, 0, n)
	for _, b := range batches {
		merged = append(merged, b...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date.Time)
	})
	return merged
}

// ReconstructTransactions groups postings into transactions by contiguous
// (date, payee) runs. Runs are never merged across an interleaving posting,
// and each transaction is classified once its run has closed.
func ReconstructTransactions(postings []Posting, cfg AccountConfig) []Transaction {
	cfg = cfg.Resolved()
	transactions := make([]Transaction, 0)
	var open *Transaction

	closeOpen := func() {
		if open == nil {
			return
		}
		open.Type = classifyResolved(open.Postings, cfg)
		transactions = append(transactions, *open)
		open = nil
	}

	for _, p := range postings {
		if open == nil || !open.Date.Equal(p.Date.Time) || open.Payee != p.Payee {
			closeOpen()
			open = &Transaction{Date: p.Date, Payee: p.Payee}
		}
		if open.Code == "" {
			open.Code = p.Code
		}
		open.Postings = append(open.Postings, p)
	}
	closeOpen()

	return transactions
}

// ClassifyTransaction derives a transaction type from the set of account
// categories among its postings. Amounts, counts and dates play no part.
//
//   {billable}                         -> billables
//   2-3 categories incl. billable and
//   receivable                         -> invoice
//   {receivable, asset}                -> payment
//   anything else                      -> unknown
func ClassifyTransaction(postings []Posting, cfg AccountConfig) TransactionType {
	return classifyResolved(postings, cfg.Resolved())
}

func classifyResolved(postings []Posting, cfg AccountConfig) TransactionType {
	categories := make(map[AccountCategory]struct{}, 4)
	for _, p := range postings {
		categories[classifyAccount(p.Account, cfg)] = struct{}{}
	}
	has := func(c AccountCategory) bool {
		_, ok := categories[c]
		return ok
	}

	switch {
	case len(categories) == 1 && has(CategoryBillable):
		return TransactionBillables
	case (len(categories) == 2 || len(categories) == 3) && has(CategoryBillable) && has(CategoryReceivable):
		return TransactionInvoice
	case len(categories) == 2 && has(CategoryReceivable) && has(CategoryAsset):
		return TransactionPayment
	default:
		return TransactionUnknown
	}
}

// Filter returns the transactions of the given type, preserving order.
func Filter(transactions []Transaction, t TransactionType) []Transaction {
	var out []Transaction
	for _, tx := range transactions {
		if tx.Type == t {
			out = append(out, tx)
		}
	}
	return out
}

// FindByCode returns the first transaction carrying the given code.
func FindByCode(transactions []Transaction, code string) (Transaction, bool) {
	for _, tx := range transactions {
		if tx.Code == code {
			return tx, true
		}
	}
	return Transaction{}, false
}
