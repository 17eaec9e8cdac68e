package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stmtproc/internal/aiextract"
	"stmtproc/internal/categorise"
	"stmtproc/internal/config"
	"stmtproc/internal/logger"
	"stmtproc/internal/model"
	"stmtproc/internal/paperless"
	"stmtproc/internal/parser"
	"stmtproc/internal/processor"
	"stmtproc/internal/report"
)

type runParams struct {
	dateFrom   string
	dateTo     string
	configPath string
	outputDir  string
	reprocess  bool
}

func newRunCommand() *cobra.Command {
	var params runParams

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch statements in a date range and build the expense report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, params)
		},
	}

	cmd.Flags().StringVar(&params.dateFrom, "date-from", "", "start of the date range, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&params.dateTo, "date-to", "", "end of the date range, inclusive (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("date-from")
	_ = cmd.MarkFlagRequired("date-to")
	cmd.Flags().StringVar(&params.configPath, "config", "", "path to the configuration file")
	cmd.Flags().StringVar(&params.outputDir, "output-dir", "", "directory the report is written into")
	cmd.Flags().BoolVar(&params.reprocess, "reprocess", false, "include documents already marked processed")

	return cmd
}

// validateRunParams covers everything that must abort before any document is
// fetched.
func validateRunParams(params runParams) error {
	if err := model.ValidateDateISO(params.dateFrom); err != nil {
		return fmt.Errorf("invalid --date-from: %w", err)
	}
	if err := model.ValidateDateISO(params.dateTo); err != nil {
		return fmt.Errorf("invalid --date-to: %w", err)
	}
	if model.CompareDates(params.dateFrom, params.dateTo) > 0 {
		return fmt.Errorf("--date-from %s is after --date-to %s", params.dateFrom, params.dateTo)
	}
	if params.outputDir != "" {
		info, err := os.Stat(params.outputDir)
		if err != nil {
			return fmt.Errorf("output directory %q: %w", params.outputDir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("output directory %q is not a directory", params.outputDir)
		}
	}
	return nil
}

func runProcess(cmd *cobra.Command, params runParams) error {
	// A .env file is a convenience for interactive use; absence is fine.
	_ = godotenv.Load()

	log := logger.New()

	if err := validateRunParams(params); err != nil {
		return err
	}

	baseURL := os.Getenv("PAPERLESS_URL")
	apiKey := os.Getenv("PAPERLESS_API_KEY")
	if baseURL == "" || apiKey == "" {
		return fmt.Errorf("PAPERLESS_URL and PAPERLESS_API_KEY must be set")
	}

	cfg, err := config.Load(params.configPath)
	if err != nil {
		return err
	}

	extractors, err := buildExtractors(cfg, log)
	if err != nil {
		return err
	}

	engine := categorise.NewEngine(cfg.Categories, cfg.DefaultCategory, log)
	log.Debug().Int("category_rules", engine.RuleCount()).Msg("compiled category rules")

	proc := processor.New(
		paperless.NewClient(baseURL, apiKey, cfg.Paperless, log),
		parser.NewRegistry(log),
		engine,
		report.NewWriter(baseURL, log),
		extractors,
		log,
	)

	summary, err := proc.Run(cmd.Context(), processor.RunOptions{
		DateFrom:         params.dateFrom,
		DateTo:           params.dateTo,
		OutputDir:        params.outputDir,
		IncludeProcessed: params.reprocess,
	})
	if err != nil {
		return err
	}

	printSummary(cmd, summary)
	return nil
}

// buildExtractors wires an AI extractor per institution configured for
// AI-based parsing. Misconfigured providers are a startup error, not a
// per-document one.
func buildExtractors(cfg *config.Config, log zerolog.Logger) (map[string]processor.Extractor, error) {
	extractors := make(map[string]processor.Extractor)

	for institution, pc := range map[string]config.InstitutionParser{
		"Commonwealth Bank": cfg.Parsers.CBA,
		"ANZ":               cfg.Parsers.ANZ,
	} {
		if !pc.UseAI() {
			continue
		}
		provider, err := aiextract.NewProvider(pc.Provider, cfg.Provider(pc.Provider), log)
		if err != nil {
			return nil, fmt.Errorf("configuring extraction for %s: %w", institution, err)
		}
		extractors[institution] = aiextract.NewExtractor(provider, log)
	}

	return extractors, nil
}

func printSummary(cmd *cobra.Command, s *processor.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Documents found:   %d\n", s.Documents)
	fmt.Fprintf(out, "Processed:         %d\n", s.Processed)
	fmt.Fprintf(out, "Skipped (unknown): %d\n", s.SkippedUnknown)
	fmt.Fprintf(out, "Skipped (empty):   %d\n", s.SkippedEmpty)
	fmt.Fprintf(out, "Transactions:      %d\n", s.Transactions)
	if s.Transactions > 0 {
		fmt.Fprintf(out, "Total debits:      %s\n", s.Stats.TotalDebit.StringFixed(2))
		fmt.Fprintf(out, "Total credits:     %s\n", s.Stats.TotalCredit.StringFixed(2))
		fmt.Fprintf(out, "Net amount:        %s\n", s.Stats.NetAmount.StringFixed(2))
	}
	if len(s.ByCategory) > 0 {
		fmt.Fprintln(out, "By category:")
		categories := make([]string, 0, len(s.ByCategory))
		for c := range s.ByCategory {
			categories = append(categories, c)
		}
		sort.Strings(categories)
		for _, c := range categories {
			fmt.Fprintf(out, "  %-16s %d\n", c+":", s.ByCategory[c])
		}
	}
	if s.ReportPath != "" {
		fmt.Fprintf(out, "Report:            %s\n", s.ReportPath)
	}
}
