package processor

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stmtproc/internal/categorise"
	"stmtproc/internal/model"
	"stmtproc/internal/paperless"
	"stmtproc/internal/parser"
	"stmtproc/internal/report"
)

// DocumentSource is the document repository surface the processor needs.
type DocumentSource interface {
	ListDocuments(ctx context.Context, dateFrom, dateTo string, includeProcessed bool) ([]paperless.Document, error)
	DownloadOriginal(ctx context.Context, documentID int) ([]byte, error)
	MarkProcessed(ctx context.Context, documentID int) error
}

// Extractor turns an original PDF into a parse result, typically via an
// inference provider.
type Extractor interface {
	Extract(ctx context.Context, pdf []byte) (*model.ParseResult, error)
}

// ReportWriter renders the final transaction set to a file.
type ReportWriter interface {
	Write(path string, transactions []model.Transaction, metadata []model.TransactionMetadata, stats report.Stats) error
}

// RunOptions are the per-invocation parameters, validated by the CLI layer.
type RunOptions struct {
	DateFrom         string
	DateTo           string
	OutputDir        string
	IncludeProcessed bool
}

// Summary is the outcome of one run. A run with zero documents or zero
// transactions is a normal empty outcome, not an error.
type Summary struct {
	Documents      int
	Processed      int
	SkippedUnknown int
	SkippedEmpty   int
	Transactions   int
	ReportPath     string
	Stats          report.Stats
	// ByCategory counts the final transactions per assigned category.
	ByCategory map[string]int
}

// Processor drives one pass over the matching documents: resolve the
// institution, extract transactions, categorise, accumulate, then sort,
// report, and mark the source documents processed.
type Processor struct {
	source   DocumentSource
	registry *parser.Registry
	engine   *categorise.Engine
	writer   ReportWriter
	// extractors maps institution display names to their configured AI
	// extractor; institutions without an entry are text-parsed.
	extractors map[string]Extractor
	log        zerolog.Logger
	confirm    func(path string) bool
}

func New(
	source DocumentSource,
	registry *parser.Registry,
	engine *categorise.Engine,
	writer ReportWriter,
	extractors map[string]Extractor,
	log zerolog.Logger,
) *Processor {
	return &Processor{
		source:     source,
		registry:   registry,
		engine:     engine,
		writer:     writer,
		extractors: extractors,
		log:        log.With().Str("component", "processor").Logger(),
		confirm: func(path string) bool {
			return report.ConfirmOverwrite(path, os.Stdin, os.Stdout)
		},
	}
}

// Run processes every document in the date range and writes the report.
// Document-level failures are counted and skipped; only listing failures and
// report-write failures are fatal.
func (p *Processor) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	runLog := p.log.With().Str("run_id", uuid.New().String()).Logger()
	runLog.Info().
		Str("date_from", opts.DateFrom).
		Str("date_to", opts.DateTo).
		Bool("include_processed", opts.IncludeProcessed).
		Msg("starting run")

	docs, err := p.source.ListDocuments(ctx, opts.DateFrom, opts.DateTo, opts.IncludeProcessed)
	if err != nil {
		return nil, fmt.Errorf("fetching document list: %w", err)
	}

	summary := &Summary{Documents: len(docs)}
	if len(docs) == 0 {
		runLog.Info().Msg("no documents found for the given date range")
		return summary, nil
	}

	var (
		transactions []model.Transaction
		metadata     []model.TransactionMetadata
		processedIDs []int
	)

	for _, doc := range docs {
		log := runLog.With().Int("document_id", doc.ID).Logger()

		handle := p.registry.Resolve(doc.Correspondent)
		if handle == nil {
			log.Warn().
				Str("correspondent", doc.Correspondent).
				Strs("supported", p.registry.Supported()).
				Msg("skipping document: unknown institution")
			summary.SkippedUnknown++
			continue
		}

		result := p.extract(ctx, doc, handle, log)
		if result == nil || result.Err != nil || len(result.Transactions) == 0 {
			log.Warn().Str("institution", handle.Institution()).Msg("skipping document: no transactions extracted")
			summary.SkippedEmpty++
			continue
		}

		p.engine.CategoriseAll(result.Transactions)

		for _, tx := range result.Transactions {
			transactions = append(transactions, tx)
			metadata = append(metadata, model.TransactionMetadata{
				Institution:   handle.Institution(),
				AccountNumber: result.AccountNumber,
				DocumentID:    doc.ID,
			})
		}

		processedIDs = append(processedIDs, doc.ID)
		summary.Processed++
		log.Info().
			Str("institution", handle.Institution()).
			Int("transactions", len(result.Transactions)).
			Msg("document processed")
	}

	summary.Transactions = len(transactions)
	if len(transactions) == 0 {
		runLog.Info().
			Int("documents", summary.Documents).
			Int("skipped_unknown", summary.SkippedUnknown).
			Int("skipped_empty", summary.SkippedEmpty).
			Msg("no transactions accumulated, nothing to report")
		return summary, nil
	}

	model.SortTransactionsWithMetadata(transactions, metadata)
	summary.Stats = report.ComputeStats(transactions, p.engine.DefaultCategory())
	summary.ByCategory = p.engine.Summarise(transactions).ByCategory

	path := report.Filename(opts.DateFrom, opts.DateTo, opts.OutputDir)
	if !p.confirm(path) {
		runLog.Warn().Str("path", path).Msg("report not written: overwrite declined")
		return summary, nil
	}
	if err := p.writer.Write(path, transactions, metadata, summary.Stats); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}
	summary.ReportPath = path

	for _, id := range processedIDs {
		if err := p.source.MarkProcessed(ctx, id); err != nil {
			runLog.Warn().Err(err).Int("document_id", id).Msg("failed to mark document processed")
		}
	}

	runLog.Info().
		Int("documents", summary.Documents).
		Int("processed", summary.Processed).
		Int("skipped_unknown", summary.SkippedUnknown).
		Int("skipped_empty", summary.SkippedEmpty).
		Int("transactions", summary.Transactions).
		Str("report", summary.ReportPath).
		Msg("run complete")
	return summary, nil
}

// extract picks the extraction strategy for the document: AI with text
// fallback when an extractor is configured for an AI-eligible institution,
// plain text parsing otherwise. Never returns an error: a failed document
// yields nil and is counted by the caller.
func (p *Processor) extract(ctx context.Context, doc paperless.Document, handle *parser.Handle, log zerolog.Logger) *model.ParseResult {
	if extractor, ok := p.extractors[handle.Institution()]; ok && handle.AIEligible {
		if result := p.extractWithAI(ctx, doc, extractor, log); result != nil {
			return result
		}
		log.Warn().Msg("ai extraction failed, falling back to text parsing")
	}

	result, err := handle.Parser.Parse(doc.Content)
	if err != nil {
		log.Error().Err(err).Msg("text parsing failed")
		return nil
	}
	return result
}

func (p *Processor) extractWithAI(ctx context.Context, doc paperless.Document, extractor Extractor, log zerolog.Logger) *model.ParseResult {
	pdf, err := p.source.DownloadOriginal(ctx, doc.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to download original pdf")
		return nil
	}
	result, err := extractor.Extract(ctx, pdf)
	if err != nil {
		log.Error().Err(err).Msg("ai extraction failed")
		return nil
	}
	return result
}
