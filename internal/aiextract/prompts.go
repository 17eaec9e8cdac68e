package aiextract

// Prompts are fixed: extraction quality depends on the exact wording and the
// strict response schema, so they are not user-configurable.
const (
	systemPrompt = "You are a bank statement parser. Extract transaction data accurately from PDF bank statements."

	userPrompt = "Extract all transactions from this CBA bank statement PDF. " +
		"Return JSON with: account_number, statement_period, and transactions array. " +
		"Each transaction must have: date (YYYY-MM-DD), description, debit (null or amount), " +
		"credit (null or amount), balance."
)
