package aiextract

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stmtproc/internal/model"
)

// maxRetries bounds re-attempts after the first call, so a document costs at
// most four provider calls.
const maxRetries = 3

// Extractor drives one PDF through the configured provider with bounded
// retries. Only transport-level failures are retried; a response that fails
// schema validation is a hard failure for the document.
type Extractor struct {
	provider Provider
	log      zerolog.Logger
	sleep    func(time.Duration)
}

func NewExtractor(provider Provider, log zerolog.Logger) *Extractor {
	return &Extractor{
		provider: provider,
		log:      log.With().Str("component", "aiextract").Logger(),
		sleep:    time.Sleep,
	}
}

// Extract sends the PDF to the provider and returns the validated result.
func (e *Extractor) Extract(ctx context.Context, pdf []byte) (*model.ParseResult, error) {
	if !e.provider.SupportsDocuments() {
		return nil, fmt.Errorf("provider %q does not support document upload", e.provider.Name())
	}

	var raw string
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<(attempt-1)) * time.Second
			e.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Dur("backoff", delay).
				Msg("provider call failed, retrying")
			e.sleep(delay)
		}
		raw, err = e.provider.Call(ctx, pdf)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("provider %q: retries exhausted: %w", e.provider.Name(), err)
	}

	result, err := resultFromModelJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("provider %q: %w", e.provider.Name(), err)
	}

	e.log.Info().Int("transactions", len(result.Transactions)).Msg("extracted transactions from pdf")
	return result, nil
}
