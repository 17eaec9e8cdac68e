package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// defaultYear is the fallback when a statement carries no usable period.
const defaultYear = 2025

var monthsByName = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// monthNumber resolves a month name ("May", "OCT", "September") to 1..12.
func monthNumber(name string) (int, bool) {
	if len(name) < 3 {
		return 0, false
	}
	m, ok := monthsByName[strings.ToLower(name[:3])]
	return m, ok
}

// cleanAmount strips currency symbols and thousand separators from a numeric
// token and parses it as a decimal value.
func cleanAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', ' ':
			return -1
		}
		return r
	}, s)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount %q", s)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d, nil
}

// statementPeriod is the parsed form of a statement's declared date range,
// used only to resolve years for day+month transaction dates.
type statementPeriod struct {
	startMonth int
	startYear  int
	endMonth   int
	endYear    int
}

var periodPattern = regexp.MustCompile(
	`(?i)(\d{1,2})\s+([A-Za-z]+)\s+(\d{4})\s*-\s*(\d{1,2})\s+([A-Za-z]+)\s+(\d{4})`)

// parseStatementPeriod parses ranges like "1 May 2025 - 31 Oct 2025".
func parseStatementPeriod(s string) (statementPeriod, bool) {
	m := periodPattern.FindStringSubmatch(s)
	if m == nil {
		return statementPeriod{}, false
	}
	startMonth, ok1 := monthNumber(m[2])
	endMonth, ok2 := monthNumber(m[5])
	if !ok1 || !ok2 {
		return statementPeriod{}, false
	}
	var p statementPeriod
	p.startMonth = startMonth
	p.endMonth = endMonth
	fmt.Sscanf(m[3], "%d", &p.startYear)
	fmt.Sscanf(m[6], "%d", &p.endYear)
	return p, true
}

// resolveYear picks the year for a day+month transaction date. When the
// period spans a year boundary and the transaction month precedes the
// period's start month, the transaction belongs to the end year; otherwise
// the start year.
func (p statementPeriod) resolveYear(month int) int {
	if p.startYear != p.endYear && month < p.startMonth {
		return p.endYear
	}
	return p.startYear
}

// extractLabeledValue pulls the value following label on the same line.
// Internal single spaces are kept while the next run of characters starts
// with a digit (or one of extraRunes), which covers account numbers printed
// as spaced groups like "06 4144 10181166".
func extractLabeledValue(content, label string, extraRunes string) string {
	idx := strings.Index(content, label)
	if idx < 0 {
		return ""
	}
	rest := content[idx+len(label):]

	// Skip separator noise after the label.
	rest = strings.TrimLeft(rest, " \t:")

	var b strings.Builder
	for i := 0; i < len(rest); {
		c := rest[i]
		if c == '\n' || c == '\r' {
			break
		}
		if c == ' ' || c == '\t' {
			j := i
			for j < len(rest) && (rest[j] == ' ' || rest[j] == '\t') {
				j++
			}
			if j < len(rest) && (unicode.IsDigit(rune(rest[j])) || strings.ContainsRune(extraRunes, rune(rest[j]))) {
				b.WriteByte(' ')
				i = j
				continue
			}
			break
		}
		b.WriteByte(c)
		i++
	}
	return strings.TrimSpace(b.String())
}

// extractLabeledLine returns the rest of the line following label, trimmed.
func extractLabeledLine(content, label string) string {
	idx := strings.Index(content, label)
	if idx < 0 {
		return ""
	}
	rest := content[idx+len(label):]
	rest = strings.TrimLeft(rest, " \t:")
	if end := strings.IndexAny(rest, "\n\r"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// splitLines splits statement content on newlines, tolerating CRLF.
func splitLines(content string) []string {
	return strings.FieldsFunc(content, func(r rune) bool {
		return r == '\n' || r == '\r'
	})
}
