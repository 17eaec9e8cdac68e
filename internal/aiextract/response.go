package aiextract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"stmtproc/internal/model"
)

// resultFromModelJSON validates the model's response against the expected
// schema and converts it into a ParseResult. Any schema violation is a hard
// failure: a partially valid transaction list is never accepted.
func resultFromModelJSON(raw string) (*model.ParseResult, error) {
	clean := cleanModelJSON(raw)

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}

	account, err := getStringField(parsed, "account_number")
	if err != nil {
		return nil, err
	}
	period, err := getStringField(parsed, "statement_period")
	if err != nil {
		return nil, err
	}

	txAny, ok := parsed["transactions"]
	if !ok {
		return nil, fmt.Errorf("missing required field %q", "transactions")
	}
	txSlice, ok := txAny.([]interface{})
	if !ok {
		return nil, fmt.Errorf("field %q has type %T, want array", "transactions", txAny)
	}

	result := model.NewParseResult()
	result.AccountNumber = account
	result.StatementPeriod = period

	for i, item := range txSlice {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("transaction %d is %T, want object", i, item)
		}

		date, err := getStringField(obj, "date")
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		if err := model.ValidateDateISO(date); err != nil {
			return nil, fmt.Errorf("transaction %d: invalid date: %w", i, err)
		}
		description, err := getStringField(obj, "description")
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}

		debit, err := getOptionalAmountField(obj, "debit")
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		credit, err := getOptionalAmountField(obj, "credit")
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		// The running balance is validated for shape but not carried over:
		// it is derivable and the report does not use it.
		if err := requireAmountField(obj, "balance"); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}

		result.AddTransaction(model.Transaction{
			Date:        date,
			Description: description,
			Debit:       debit,
			Credit:      credit,
		})
	}

	return result, nil
}

// cleanModelJSON strips Markdown fences and surrounding prose that models
// sometimes emit despite instructions, keeping the outermost JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

func getStringField(m map[string]interface{}, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("missing required field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
	return s, nil
}

// getOptionalAmountField accepts an absent or null value as zero, and a
// non-negative number otherwise.
func getOptionalAmountField(m map[string]interface{}, key string) (decimal.Decimal, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return decimal.Zero, nil
	}
	f, ok := v.(float64)
	if !ok {
		return decimal.Zero, fmt.Errorf("field %q has type %T, want number or null", key, v)
	}
	if f < 0 {
		return decimal.Zero, fmt.Errorf("field %q is negative (%v)", key, f)
	}
	return decimal.NewFromFloat(f), nil
}

// requireAmountField checks for a present, non-negative numeric value.
func requireAmountField(m map[string]interface{}, key string) error {
	v, ok := m[key]
	if !ok {
		return fmt.Errorf("missing required field %q", key)
	}
	f, ok := v.(float64)
	if !ok {
		return fmt.Errorf("field %q has type %T, want number", key, v)
	}
	if f < 0 {
		return fmt.Errorf("field %q is negative (%v)", key, f)
	}
	return nil
}
