package parser

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stmtproc/internal/logger"
)

func newTestCBAParser(buf *bytes.Buffer) *CBAParser {
	if buf == nil {
		buf = &bytes.Buffer{}
	}
	return NewCBAParser(logger.NewWithWriter(buf))
}

const cbaStatement = `CommBank Smart Access
Account Number 06 4144 10181166
Statement Period 1 May 2025 - 31 Oct 2025

Date Transaction Debit Credit Balance
17 May Transfer To X 6,677.00 $10,819.79 CR
03 Jun Direct Debit
Insurance Premium 120.50 $10,699.29 CR
10 Jun Salary Deposit $2,500.00 $13,199.29 CR
`

func TestCBAParse(t *testing.T) {
	p := newTestCBAParser(nil)
	result, err := p.Parse(cbaStatement)
	require.NoError(t, err)

	assert.Equal(t, "06 4144 10181166", result.AccountNumber)
	assert.Equal(t, "1 May 2025 - 31 Oct 2025", result.StatementPeriod)
	require.Len(t, result.Transactions, 3)

	tx := result.Transactions[0]
	assert.Equal(t, "2025-05-17", tx.Date)
	assert.Equal(t, "Transfer To X", tx.Description)
	assert.Equal(t, "6677", tx.Debit.String())
	assert.True(t, tx.Credit.IsZero())
}

func TestCBAParse_MultiLineTransaction(t *testing.T) {
	p := newTestCBAParser(nil)
	result, err := p.Parse(cbaStatement)
	require.NoError(t, err)
	require.Len(t, result.Transactions, 3)

	tx := result.Transactions[1]
	assert.Equal(t, "2025-06-03", tx.Date)
	assert.Equal(t, "Direct Debit Insurance Premium", tx.Description)
	assert.Equal(t, "120.5", tx.Debit.String())
	assert.True(t, tx.Credit.IsZero())
}

func TestCBAParse_CreditColumn(t *testing.T) {
	p := newTestCBAParser(nil)
	result, err := p.Parse(cbaStatement)
	require.NoError(t, err)
	require.Len(t, result.Transactions, 3)

	tx := result.Transactions[2]
	assert.Equal(t, "2025-06-10", tx.Date)
	assert.Equal(t, "Salary Deposit", tx.Description)
	assert.True(t, tx.Debit.IsZero())
	assert.Equal(t, "2500", tx.Credit.String())
}

func TestCBAParse_YearBoundaryPeriod(t *testing.T) {
	content := `Statement Period 1 Nov 2025 - 31 Jan 2026

28 Nov Card Purchase Grocer 54.20 $900.00 CR
05 Jan Card Purchase Cafe 12.00 $888.00 CR
`
	p := newTestCBAParser(nil)
	result, err := p.Parse(content)
	require.NoError(t, err)
	require.Len(t, result.Transactions, 2)

	assert.Equal(t, "2025-11-28", result.Transactions[0].Date)
	assert.Equal(t, "2026-01-05", result.Transactions[1].Date)
}

func TestCBAParse_MissingPeriodFallsBackAndLogs(t *testing.T) {
	var buf bytes.Buffer
	p := newTestCBAParser(&buf)
	result, err := p.Parse("17 May Transfer To X 6,677.00 $10,819.79 CR\n")
	require.NoError(t, err)

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "2025-05-17", result.Transactions[0].Date)
	assert.Contains(t, buf.String(), "no usable statement period")
}

func TestCBAParse_EmptyContent(t *testing.T) {
	p := newTestCBAParser(nil)
	result, err := p.Parse("")
	require.NoError(t, err)
	assert.Empty(t, result.Transactions)
	assert.Nil(t, result.Err)
}

func TestCBAParse_SkipsMalformedLines(t *testing.T) {
	var buf bytes.Buffer
	p := newTestCBAParser(&buf)
	content := `Statement Period 1 May 2025 - 31 Oct 2025

17 May Pending Hold No Amounts Here
18 May Transfer To X 100.00 $500.00 CR
`
	result, err := p.Parse(content)
	require.NoError(t, err)

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "Transfer To X", result.Transactions[0].Description)
	assert.Contains(t, buf.String(), "skipping")
}

func TestCBAParse_DescriptionContainingCRMarker(t *testing.T) {
	content := `Statement Period 1 May 2025 - 31 Oct 2025

20 May CREDIT INTEREST $5.00 $105.00 CR
`
	p := newTestCBAParser(nil)
	result, err := p.Parse(content)
	require.NoError(t, err)

	require.Len(t, result.Transactions, 1)
	tx := result.Transactions[0]
	assert.Equal(t, "2025-05-20", tx.Date)
	assert.Equal(t, "CREDIT INTEREST", tx.Description)
	assert.True(t, tx.Debit.IsZero())
	assert.Equal(t, "5", tx.Credit.String())
}

func TestCBAParse_NeverEmitsBothAmounts(t *testing.T) {
	p := newTestCBAParser(nil)
	result, err := p.Parse(cbaStatement)
	require.NoError(t, err)

	for _, tx := range result.Transactions {
		both := tx.Debit.IsPositive() && tx.Credit.IsPositive()
		assert.False(t, both, "transaction %q has both debit and credit", tx.Description)
	}
}
