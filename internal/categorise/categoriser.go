package categorise

import (
	"regexp"

	"github.com/rs/zerolog"

	"stmtproc/internal/config"
	"stmtproc/internal/model"
)

// rule is one compiled pattern→category mapping. Rules keep the order they
// were configured in; the first match wins.
type rule struct {
	pattern  string
	category string
	re       *regexp.Regexp
}

// Engine assigns categories to transactions from an ordered rule set.
type Engine struct {
	rules           []rule
	defaultCategory string
}

// NewEngine compiles the configured rules. A pattern that fails to compile is
// dropped with a warning and excluded from evaluation; it never aborts the
// run. Patterns match case-insensitively.
func NewEngine(rules []config.CategoryRule, defaultCategory string, log zerolog.Logger) *Engine {
	e := &Engine{defaultCategory: defaultCategory}
	for _, r := range rules {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			log.Warn().Str("pattern", r.Pattern).Str("category", r.Category).Err(err).
				Msg("dropping category rule with invalid pattern")
			continue
		}
		e.rules = append(e.rules, rule{pattern: r.Pattern, category: r.Category, re: re})
	}
	return e
}

// DefaultCategory returns the label used when no rule matches.
func (e *Engine) DefaultCategory() string {
	return e.defaultCategory
}

// RuleCount returns the number of usable rules.
func (e *Engine) RuleCount() int {
	return len(e.rules)
}

// Categorise assigns a category to t. An already-assigned category is never
// overwritten. Transactions without a description get the default category.
func (e *Engine) Categorise(t *model.Transaction) {
	if t == nil || t.Category != "" {
		return
	}
	if t.Description == "" {
		t.Category = e.defaultCategory
		return
	}
	for _, r := range e.rules {
		if r.re.MatchString(t.Description) {
			t.Category = r.category
			return
		}
	}
	t.Category = e.defaultCategory
}

// CategoriseAll runs Categorise over a slice in place.
func (e *Engine) CategoriseAll(txns []model.Transaction) {
	for i := range txns {
		e.Categorise(&txns[i])
	}
}

// Stats summarises categorisation results. Purely derived; nothing on the
// transactions is touched.
type Stats struct {
	Total       int
	Categorised int
	Defaulted   int
	ByCategory  map[string]int
}

// Summarise counts categorised vs defaulted transactions and per-category
// totals in one pass.
func (e *Engine) Summarise(txns []model.Transaction) Stats {
	s := Stats{ByCategory: make(map[string]int)}
	for i := range txns {
		s.Total++
		cat := txns[i].Category
		if cat == "" || cat == e.defaultCategory {
			s.Defaulted++
		} else {
			s.Categorised++
		}
		if cat != "" {
			s.ByCategory[cat]++
		}
	}
	return s
}
