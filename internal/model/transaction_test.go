package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortTransactionsWithMetadata_DateThenDescription(t *testing.T) {
	txns := []Transaction{
		{Date: "2025-05-20", Description: "Zebra Cafe"},
		{Date: "2025-05-17", Description: "Transfer To X"},
		{Date: "2025-05-20", Description: "Apple Store"},
		{Date: "2025-04-01", Description: "Rent"},
	}
	meta := make([]TransactionMetadata, len(txns))

	SortTransactionsWithMetadata(txns, meta)

	require.Len(t, txns, 4)
	assert.Equal(t, "Rent", txns[0].Description)
	assert.Equal(t, "Transfer To X", txns[1].Description)
	assert.Equal(t, "Apple Store", txns[2].Description)
	assert.Equal(t, "Zebra Cafe", txns[3].Description)
}

func TestSortTransactionsWithMetadata_Deterministic(t *testing.T) {
	make2 := func() ([]Transaction, []TransactionMetadata) {
		return []Transaction{
			{Date: "2025-01-02", Description: "B"},
			{Date: "2025-01-01", Description: "A"},
			{Date: "2025-01-02", Description: "A"},
		}, make([]TransactionMetadata, 3)
	}
	a, am := make2()
	b, bm := make2()
	SortTransactionsWithMetadata(a, am)
	SortTransactionsWithMetadata(b, bm)
	assert.Equal(t, a, b)
}

func TestSortTransactionsWithMetadata_KeepsAlignment(t *testing.T) {
	txns := []Transaction{
		{Date: "2025-07-07", Description: "SPOTIFY SYDNEY"},
		{Date: "2025-05-17", Description: "Transfer To X"},
	}
	meta := []TransactionMetadata{
		{Institution: "ANZ", DocumentID: 42},
		{Institution: "Commonwealth Bank", DocumentID: 7},
	}

	SortTransactionsWithMetadata(txns, meta)

	assert.Equal(t, "Transfer To X", txns[0].Description)
	assert.Equal(t, "Commonwealth Bank", meta[0].Institution)
	assert.Equal(t, 7, meta[0].DocumentID)
	assert.Equal(t, "ANZ", meta[1].Institution)
}

func TestHasAmount(t *testing.T) {
	empty := Transaction{}
	assert.False(t, empty.HasAmount())

	debit := Transaction{Debit: decimal.NewFromFloat(6677.00)}
	assert.True(t, debit.HasAmount())

	credit := Transaction{Credit: decimal.NewFromFloat(19.99)}
	assert.True(t, credit.HasAmount())
}

func TestValidateDateISO(t *testing.T) {
	tests := []struct {
		date    string
		wantErr bool
	}{
		{"2025-05-17", false},
		{"2024-02-29", false}, // leap year
		{"2023-02-29", true},
		{"2025-13-01", true},
		{"2025-04-31", true},
		{"30/06/2025", true},
		{"2025-5-17", true},
		{"", true},
		{"1899-01-01", true},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			err := ValidateDateISO(tt.date)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompareDates(t *testing.T) {
	assert.Negative(t, CompareDates("2025-01-01", "2025-01-31"))
	assert.Zero(t, CompareDates("2025-01-01", "2025-01-01"))
	assert.Positive(t, CompareDates("2025-02-01", "2025-01-31"))
}
