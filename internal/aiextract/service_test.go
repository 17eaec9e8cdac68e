package aiextract

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stmtproc/internal/logger"
)

const validResponse = `{
	"account_number": "06 4144 10181166",
	"statement_period": "1 May 2025 - 31 Oct 2025",
	"transactions": [
		{"date": "2025-05-17", "description": "Transfer To X", "debit": 6677.00, "credit": null, "balance": 10819.79}
	]
}`

// stubProvider fails its first failUntil calls, then returns response.
type stubProvider struct {
	failUntil int
	calls     int
	response  string
	docs      bool
}

func (s *stubProvider) Name() string            { return "stub" }
func (s *stubProvider) SupportsDocuments() bool { return s.docs }

func (s *stubProvider) Call(ctx context.Context, pdf []byte) (string, error) {
	s.calls++
	if s.calls <= s.failUntil {
		return "", fmt.Errorf("connection reset")
	}
	return s.response, nil
}

func newTestExtractor(p Provider) (*Extractor, *[]time.Duration) {
	e := NewExtractor(p, logger.NewWithWriter(&bytes.Buffer{}))
	var delays []time.Duration
	e.sleep = func(d time.Duration) { delays = append(delays, d) }
	return e, &delays
}

func TestExtract_RetryWithEventualSuccess(t *testing.T) {
	p := &stubProvider{failUntil: 2, response: validResponse, docs: true}
	e, delays := newTestExtractor(p)

	result, err := e.Extract(context.Background(), []byte("%PDF-1.4"))
	require.NoError(t, err)

	assert.Equal(t, 3, p.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "2025-05-17", result.Transactions[0].Date)
	assert.Equal(t, "6677", result.Transactions[0].Debit.String())
	assert.True(t, result.Transactions[0].Credit.IsZero())
	assert.Equal(t, "06 4144 10181166", result.AccountNumber)
}

func TestExtract_RetriesExhausted(t *testing.T) {
	p := &stubProvider{failUntil: 10, docs: true}
	e, delays := newTestExtractor(p)

	_, err := e.Extract(context.Background(), []byte("%PDF-1.4"))
	require.Error(t, err)

	assert.Equal(t, 4, p.calls, "one initial attempt plus three retries")
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, *delays)
	assert.Contains(t, err.Error(), "retries exhausted")
}

func TestExtract_ValidationFailureIsNotRetried(t *testing.T) {
	p := &stubProvider{response: `{"account_number": 42}`, docs: true}
	e, delays := newTestExtractor(p)

	_, err := e.Extract(context.Background(), []byte("%PDF-1.4"))
	require.Error(t, err)

	assert.Equal(t, 1, p.calls, "a malformed response must not be retried")
	assert.Empty(t, *delays)
}

func TestExtract_ProviderWithoutDocumentSupportFailsImmediately(t *testing.T) {
	p := &stubProvider{response: validResponse, docs: false}
	e, _ := newTestExtractor(p)

	_, err := e.Extract(context.Background(), []byte("%PDF-1.4"))
	require.Error(t, err)

	assert.Equal(t, 0, p.calls, "no network call may be attempted")
	assert.Contains(t, err.Error(), "does not support document upload")
}

func TestExtract_LlamaCppNeverCallsNetwork(t *testing.T) {
	e, _ := newTestExtractor(&llamaCppProvider{})
	_, err := e.Extract(context.Background(), []byte("%PDF-1.4"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document upload")
}
