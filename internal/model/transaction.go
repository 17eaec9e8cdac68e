package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Transaction is one statement line normalised to the shape every parser and
// the aggregator agree on. Dates are ISO strings (YYYY-MM-DD) so that
// lexicographic order is chronological order. Exactly one of Debit/Credit is
// meaningful for a given transaction; the other stays zero.
type Transaction struct {
	Date        string
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Category    string
}

// HasAmount reports whether the transaction carries a non-zero debit or credit.
func (t *Transaction) HasAmount() bool {
	return t.Debit.IsPositive() || t.Credit.IsPositive()
}

// ParseResult is the output of a single parser invocation. It is owned by the
// caller and consumed once by the aggregator.
type ParseResult struct {
	AccountNumber   string
	StatementPeriod string
	Transactions    []Transaction
	Err             error
}

// NewParseResult returns an empty, valid result.
func NewParseResult() *ParseResult {
	return &ParseResult{}
}

// AddTransaction appends a transaction to the result.
func (pr *ParseResult) AddTransaction(t Transaction) {
	pr.Transactions = append(pr.Transactions, t)
}

// SetError records a non-fatal parse failure on the result.
func (pr *ParseResult) SetError(err error) {
	pr.Err = err
}

// TransactionMetadata is per-transaction provenance attached during
// aggregation. Parsers never see it.
type TransactionMetadata struct {
	Institution   string
	AccountNumber string
	DocumentID    int
}

// SortTransactionsWithMetadata stable-sorts transactions by date ascending,
// then description ascending, keeping the metadata slice aligned. Both
// slices must be the same length. Repeated runs over the same input produce
// identical output.
func SortTransactionsWithMetadata(txns []Transaction, meta []TransactionMetadata) {
	pairs := make([]int, len(txns))
	for i := range pairs {
		pairs[i] = i
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		i, j := pairs[a], pairs[b]
		if txns[i].Date != txns[j].Date {
			return txns[i].Date < txns[j].Date
		}
		return txns[i].Description < txns[j].Description
	})

	sortedTxns := make([]Transaction, len(txns))
	sortedMeta := make([]TransactionMetadata, len(meta))
	for out, in := range pairs {
		sortedTxns[out] = txns[in]
		sortedMeta[out] = meta[in]
	}
	copy(txns, sortedTxns)
	copy(meta, sortedMeta)
}

var daysInMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// ValidateDateISO checks that s is a real calendar date in strict YYYY-MM-DD
// form, including month lengths and leap years.
func ValidateDateISO(s string) error {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return fmt.Errorf("date %q is not in YYYY-MM-DD format", s)
	}
	for i, r := range s {
		if i == 4 || i == 7 {
			continue
		}
		if r < '0' || r > '9' {
			return fmt.Errorf("date %q is not in YYYY-MM-DD format", s)
		}
	}

	year, _ := strconv.Atoi(s[:4])
	month, _ := strconv.Atoi(s[5:7])
	day, _ := strconv.Atoi(s[8:10])

	if year < 1900 || year > 2100 {
		return fmt.Errorf("date %q: year out of range", s)
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("date %q: invalid month", s)
	}
	maxDay := daysInMonth[month-1]
	if month == 2 && isLeapYear(year) {
		maxDay = 29
	}
	if day < 1 || day > maxDay {
		return fmt.Errorf("date %q: invalid day", s)
	}
	return nil
}

func isLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// CompareDates orders two ISO dates. ISO form means plain string comparison
// is correct.
func CompareDates(a, b string) int {
	return strings.Compare(a, b)
}
