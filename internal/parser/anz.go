package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stmtproc/internal/model"
)

// ANZParser extracts transactions from the text layer of ANZ statements.
// Each transaction is a single line: processed date, transaction date, card
// number, description, $-prefixed amount (with a CR marker for credits), and
// the $-prefixed running balance.
type ANZParser struct {
	log zerolog.Logger
}

func NewANZParser(log zerolog.Logger) *ANZParser {
	return &ANZParser{log: log.With().Str("parser", "anz").Logger()}
}

func (p *ANZParser) Institution() string { return "ANZ" }

var anzSlashDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)

func (p *ANZParser) Parse(content string) (*model.ParseResult, error) {
	result := model.NewParseResult()
	if strings.TrimSpace(content) == "" {
		return result, nil
	}

	result.AccountNumber = extractLabeledValue(content, "ACCOUNT NUMBER:", "-")
	if result.AccountNumber != "" {
		p.log.Debug().Str("account", result.AccountNumber).Msg("found account number")
	}

	for _, raw := range splitLines(content) {
		fields := strings.Fields(raw)
		if len(fields) < 5 || !anzSlashDate.MatchString(fields[0]) {
			continue
		}
		p.parseLine(fields, result)
	}

	p.log.Info().Int("transactions", len(result.Transactions)).Msg("parsed statement")
	return result, nil
}

// parseLine handles one transaction row, already split into fields:
//
//	07/07/2025 02/07/2025 8410 SPOTIFY SYDNEY $19.99 $2,147.91
//
// The balance is the last field; the amount sits just before it, optionally
// tagged CR (attached or as its own field) to mark a credit.
func (p *ANZParser) parseLine(fields []string, result *model.ParseResult) {
	date, ok := isoFromSlashDate(fields[0])
	if !ok {
		return
	}

	if !strings.HasPrefix(fields[len(fields)-1], "$") {
		p.log.Warn().Strs("fields", fields).Msg("skipping line without balance amount")
		return
	}

	i := len(fields) - 2
	creditMarked := false
	if i >= 3 && strings.EqualFold(fields[i], "CR") {
		creditMarked = true
		i--
	}
	if i < 3 {
		p.log.Warn().Strs("fields", fields).Msg("skipping line without transaction amount")
		return
	}
	amountField := fields[i]
	if trimmed, found := strings.CutSuffix(amountField, "CR"); found {
		creditMarked = true
		amountField = trimmed
	}
	if !strings.HasPrefix(amountField, "$") {
		p.log.Warn().Strs("fields", fields).Msg("skipping line without transaction amount")
		return
	}
	amount, err := cleanAmount(amountField)
	if err != nil {
		p.log.Warn().Err(err).Str("amount", amountField).Msg("skipping unparseable amount")
		return
	}

	description := strings.Join(fields[3:i], " ")
	// Surface the purchase date when it differs from the processing date.
	if fields[0] != fields[1] {
		description += " [Txn Date: " + fields[1] + "]"
	}

	var debit, credit decimal.Decimal
	if creditMarked {
		credit = amount
	} else {
		debit = amount
	}
	tx := model.Transaction{
		Date:        date,
		Description: description,
		Debit:       debit,
		Credit:      credit,
	}

	if strings.TrimSpace(description) == "" || !tx.HasAmount() {
		p.log.Warn().
			Str("description", description).
			Str("amount", amount.String()).
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

// isoFromSlashDate converts DD/MM/YYYY to YYYY-MM-DD, rejecting out-of-range
// components.
func isoFromSlashDate(s string) (string, bool) {
	m := anzSlashDate.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	var day, month, year int
	fmt.Sscanf(m[1], "%d", &day)
	fmt.Sscanf(m[2], "%d", &month)
	fmt.Sscanf(m[3], "%d", &year)
	if day < 1 || day > 31 || month < 1 || month > 12 || year < 1900 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}
