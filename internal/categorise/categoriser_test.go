package categorise

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stmtproc/internal/config"
	"stmtproc/internal/logger"
	"stmtproc/internal/model"
)

func newTestEngine(t *testing.T, rules []config.CategoryRule) *Engine {
	t.Helper()
	return NewEngine(rules, "Uncategorised", logger.NewWithWriter(&bytes.Buffer{}))
}

func TestCategorise_FirstMatchWins(t *testing.T) {
	e := newTestEngine(t, []config.CategoryRule{
		{Pattern: "SALARY", Category: "Income"},
		{Pattern: ".*", Category: "Catch-all"},
	})

	tx := model.Transaction{Description: "MONTHLY SALARY PAYMENT"}
	e.Categorise(&tx)
	assert.Equal(t, "Income", tx.Category)
}

func TestCategorise_CaseInsensitive(t *testing.T) {
	e := newTestEngine(t, []config.CategoryRule{
		{Pattern: "woolworths", Category: "Groceries"},
	})

	tx := model.Transaction{Description: "WOOLWORTHS SYDNEY NSW"}
	e.Categorise(&tx)
	assert.Equal(t, "Groceries", tx.Category)
}

func TestCategorise_Idempotent(t *testing.T) {
	e := newTestEngine(t, []config.CategoryRule{
		{Pattern: "SPOTIFY", Category: "Entertainment"},
	})

	tx := model.Transaction{Description: "SPOTIFY SYDNEY", Category: "Subscriptions"}
	e.Categorise(&tx)
	assert.Equal(t, "Subscriptions", tx.Category, "existing category must not be overwritten")

	fresh := model.Transaction{Description: "SPOTIFY SYDNEY"}
	e.Categorise(&fresh)
	e.Categorise(&fresh)
	assert.Equal(t, "Entertainment", fresh.Category)
}

func TestCategorise_NoMatchUsesDefault(t *testing.T) {
	e := newTestEngine(t, []config.CategoryRule{
		{Pattern: "SALARY", Category: "Income"},
	})

	tx := model.Transaction{Description: "SOMETHING ELSE ENTIRELY"}
	e.Categorise(&tx)
	assert.Equal(t, "Uncategorised", tx.Category)
}

func TestCategorise_EmptyDescriptionUsesDefault(t *testing.T) {
	e := newTestEngine(t, []config.CategoryRule{
		{Pattern: ".*", Category: "Catch-all"},
	})

	tx := model.Transaction{}
	e.Categorise(&tx)
	assert.Equal(t, "Uncategorised", tx.Category)
}

func TestNewEngine_DropsInvalidPattern(t *testing.T) {
	buf := &bytes.Buffer{}
	e := NewEngine([]config.CategoryRule{
		{Pattern: "([unclosed", Category: "Broken"},
		{Pattern: "RENT", Category: "Housing"},
	}, "Uncategorised", logger.NewWithWriter(buf))

	assert.Equal(t, 1, e.RuleCount(), "invalid rule must be dropped, valid rule kept")
	assert.Contains(t, buf.String(), "invalid pattern")

	tx := model.Transaction{Description: "RENT PAYMENT"}
	e.Categorise(&tx)
	assert.Equal(t, "Housing", tx.Category)
}

func TestSummarise(t *testing.T) {
	e := newTestEngine(t, []config.CategoryRule{
		{Pattern: "SALARY", Category: "Income"},
		{Pattern: "RENT", Category: "Housing"},
	})

	txns := []model.Transaction{
		{Description: "SALARY MAY"},
		{Description: "RENT MAY"},
		{Description: "RENT JUNE"},
		{Description: "MYSTERY CHARGE"},
	}
	e.CategoriseAll(txns)

	stats := e.Summarise(txns)
	require.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.Categorised)
	assert.Equal(t, 1, stats.Defaulted)
	assert.Equal(t, 1, stats.ByCategory["Income"])
	assert.Equal(t, 2, stats.ByCategory["Housing"])
	assert.Equal(t, 1, stats.ByCategory["Uncategorised"])
}
