package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stmtproc/internal/model"
)

// CBAParser extracts transactions from the text layer of Commonwealth Bank
// statements. The layout is a table flattened to text: each transaction opens
// with a "DD MMM" date, description may wrap onto continuation lines, and the
// line ends with optional debit, optional $-prefixed credit, then the running
// balance ("$1,234.56 CR").
type CBAParser struct {
	log zerolog.Logger
}

func NewCBAParser(log zerolog.Logger) *CBAParser {
	return &CBAParser{log: log.With().Str("parser", "cba").Logger()}
}

func (p *CBAParser) Institution() string { return "Commonwealth Bank" }

// cbaDatePrefix matches the "DD MMM" opener of a transaction line. The month
// token is validated against known month names separately.
var cbaDatePrefix = regexp.MustCompile(`^(\d{1,2})\s+([A-Za-z]{3,9})(?:\s|$)`)

func (p *CBAParser) Parse(content string) (*model.ParseResult, error) {
	result := model.NewParseResult()
	if strings.TrimSpace(content) == "" {
		return result, nil
	}

	result.AccountNumber = extractLabeledValue(content, "Account Number", "")
	if result.AccountNumber != "" {
		p.log.Debug().Str("account", result.AccountNumber).Msg("found account number")
	}

	result.StatementPeriod = extractLabeledLine(content, "Statement Period")
	period, havePeriod := parseStatementPeriod(result.StatementPeriod)
	if !havePeriod {
		p.log.Warn().
			Int("fallback_year", defaultYear).
			Msg("no usable statement period, transaction years may be wrong")
	}

	// Accumulate each transaction across its continuation lines, then
	// finalize when the next date-prefixed line (or end of input) arrives.
	var pending string
	flush := func() {
		if pending != "" {
			p.finalize(pending, period, havePeriod, result)
			pending = ""
		}
	}
	for _, raw := range splitLines(content) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if day, month, ok := cbaLineDate(line); ok && day >= 1 && day <= 31 && month >= 1 {
			flush()
			pending = line
		} else if pending != "" {
			pending += " " + line
		}
	}
	flush()

	p.log.Info().Int("transactions", len(result.Transactions)).Msg("parsed statement")
	return result, nil
}

// cbaLineDate reports whether line opens with a day and a recognizable month
// name.
func cbaLineDate(line string) (day, month int, ok bool) {
	m := cbaDatePrefix.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	fmt.Sscanf(m[1], "%d", &day)
	month, ok = monthNumber(m[2])
	return day, month, ok
}

// finalize parses one reconstructed transaction line. The running balance is
// the rightmost anchor: everything is located by scanning backward from the
// "$… CR" marker, so irregular spacing inside the description cannot shift
// the amount columns.
func (p *CBAParser) finalize(line string, period statementPeriod, havePeriod bool, result *model.ParseResult) {
	day, month, ok := cbaLineDate(line)
	if !ok {
		return
	}
	year := defaultYear
	if havePeriod {
		year = period.resolveYear(month)
	}
	date := fmt.Sprintf("%04d-%02d-%02d", year, month, day)

	descStart := skipFields(line, 2)

	// The balance marker is the rightmost anchor: descriptions like
	// "CREDIT INTEREST" contain " CR" too.
	crIdx := strings.LastIndex(line, " CR")
	if crIdx < 0 {
		p.log.Warn().Str("line", line).Msg("skipping line without balance marker")
		return
	}
	balDollar := strings.LastIndex(line[:crIdx], "$")
	if balDollar < 0 {
		p.log.Warn().Str("line", line).Msg("skipping line without balance amount")
		return
	}
	amountsEnd := trimBack(line, balDollar, descStart)

	var debit, credit decimal.Decimal

	// A " (" marker means the debit is embedded mid-line, just before a
	// parenthesised reference; otherwise the debit (or a $-prefixed credit)
	// sits immediately before the balance.
	if parenIdx := strings.Index(line, " ("); parenIdx >= 0 && parenIdx < amountsEnd {
		if start, ok := scanAmountBackward(line, parenIdx, descStart); ok {
			if d, err := cleanAmount(line[start:parenIdx]); err == nil {
				debit = d
				amountsEnd = trimBack(line, start, descStart)
			}
		}
	} else if start, ok := scanAmountBackward(line, amountsEnd, descStart); ok {
		if d, err := cleanAmount(line[start:amountsEnd]); err == nil {
			if start > descStart && line[start-1] == '$' {
				credit = d
				amountsEnd = trimBack(line, start-1, descStart)
			} else {
				debit = d
				amountsEnd = trimBack(line, start, descStart)
			}
		}
	}

	// Any remaining $-prefixed token before the amounts is the credit column.
	if credit.IsZero() {
		if dollar, end, ok := lastDollarAmount(line, descStart, amountsEnd); ok {
			if d, err := cleanAmount(line[dollar+1 : end]); err == nil {
				credit = d
				amountsEnd = trimBack(line, dollar, descStart)
			}
		}
	}

	description := strings.TrimSpace(line[descStart:amountsEnd])
	tx := model.Transaction{
		Date:        date,
		Description: description,
		Debit:       debit,
		Credit:      credit,
	}

	if description == "" || !tx.HasAmount() {
		p.log.Warn().
			Str("description", description).
			Str("debit", debit.String()).
			Str("credit", credit.String()).
			Msg("skipping malformed transaction line")
		return
	}

	p.log.Debug().
		Str("date", date).
		Str("description", description).
		Str("debit", debit.String()).
		Str("credit", credit.String()).
		Msg("parsed transaction")
	result.AddTransaction(tx)
}

// skipFields returns the index just past the first n whitespace-separated
// fields of line.
func skipFields(line string, n int) int {
	i := 0
	for f := 0; f < n && i < len(line); f++ {
		for i < len(line) && !isSpaceByte(line[i]) {
			i++
		}
		for i < len(line) && isSpaceByte(line[i]) {
			i++
		}
	}
	return i
}

// scanAmountBackward walks left from end over amount characters (digits,
// commas, decimal points) and reports the token start. The token only counts
// when it begins with a digit.
func scanAmountBackward(line string, end, lower int) (int, bool) {
	i := end
	for i > lower && isAmountByte(line[i-1]) {
		i--
	}
	return i, i < end && line[i] >= '0' && line[i] <= '9'
}

// lastDollarAmount finds the rightmost "$<digits…>" token within
// line[lower:upper] and returns the index of the dollar sign and the token's
// end.
func lastDollarAmount(line string, lower, upper int) (dollar, end int, ok bool) {
	for i := upper - 1; i > lower; i-- {
		if line[i-1] != '$' {
			continue
		}
		if line[i] < '0' || line[i] > '9' {
			continue
		}
		end = i
		for end < upper && isAmountByte(line[end]) {
			end++
		}
		return i - 1, end, true
	}
	return 0, 0, false
}

// trimBack moves pos left over trailing whitespace, never past lower.
func trimBack(line string, pos, lower int) int {
	for pos > lower && isSpaceByte(line[pos-1]) {
		pos--
	}
	return pos
}

func isSpaceByte(c byte) bool { return c == ' ' || c == '\t' }

func isAmountByte(c byte) bool {
	return (c >= '0' && c <= '9') || c == ',' || c == '.'
}
