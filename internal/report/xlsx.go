package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"stmtproc/internal/model"
)

const sheetName = "Transactions"

var headers = []string{
	"Date", "Description", "Debit", "Credit",
	"Category", "Institution", "Account Number", "Document URL",
}

var columnWidths = []float64{12, 30, 12, 12, 15, 8, 18, 25}

// Stats summarises the final transaction set for the report footer and the
// run summary. Derived only, never mutated back into the transactions.
type Stats struct {
	TotalTransactions int
	TotalDebit        decimal.Decimal
	TotalCredit       decimal.Decimal
	NetAmount         decimal.Decimal
	Categorised       int
	Uncategorised     int
}

// ComputeStats derives totals over the transaction set. Transactions left on
// defaultCategory count as uncategorised.
func ComputeStats(transactions []model.Transaction, defaultCategory string) Stats {
	var s Stats
	for _, tx := range transactions {
		s.TotalTransactions++
		s.TotalDebit = s.TotalDebit.Add(tx.Debit)
		s.TotalCredit = s.TotalCredit.Add(tx.Credit)
		if tx.Category != "" && tx.Category != defaultCategory {
			s.Categorised++
		} else {
			s.Uncategorised++
		}
	}
	s.NetAmount = s.TotalCredit.Sub(s.TotalDebit)
	return s
}

// Filename builds the report path for a date range:
// exp_report-<from>-<to>.xlsx, placed under outputDir when given.
func Filename(dateFrom, dateTo, outputDir string) string {
	name := fmt.Sprintf("exp_report-%s-%s.xlsx", dateFrom, dateTo)
	if outputDir == "" {
		return name
	}
	return filepath.Join(outputDir, name)
}

// ConfirmOverwrite asks before clobbering an existing file. A missing file
// needs no confirmation. Anything other than a leading y/Y declines.
func ConfirmOverwrite(path string, in io.Reader, out io.Writer) bool {
	if _, err := os.Stat(path); err != nil {
		return true
	}
	fmt.Fprintf(out, "File %s already exists. Overwrite? (y/n): ", path)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	line = strings.TrimSpace(line)
	return strings.HasPrefix(strings.ToLower(line), "y")
}

// Writer renders the sorted transaction set into a formatted workbook. Each
// row links back to the source document in the repository's web UI.
type Writer struct {
	paperlessURL string
	log          zerolog.Logger
}

func NewWriter(paperlessURL string, log zerolog.Logger) *Writer {
	return &Writer{
		paperlessURL: strings.TrimRight(paperlessURL, "/"),
		log:          log.With().Str("component", "report").Logger(),
	}
}

// Write creates the workbook at path. transactions and metadata are parallel
// slices, already sorted by the caller.
func (w *Writer) Write(path string, transactions []model.Transaction, metadata []model.TransactionMetadata, stats Stats) error {
	if len(transactions) != len(metadata) {
		return fmt.Errorf("transaction and metadata counts differ (%d vs %d)", len(transactions), len(metadata))
	}

	w.log.Info().Str("path", path).Int("transactions", len(transactions)).Msg("writing report")

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("naming worksheet: %w", err)
	}

	styles, err := newStyleSet(f)
	if err != nil {
		return fmt.Errorf("creating styles: %w", err)
	}

	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("setting column width: %w", err)
		}
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, styles.header); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, tx := range transactions {
		if err := w.writeRow(f, styles, i+2, tx, metadata[i]); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := w.writeSummary(f, styles, len(transactions)+4, stats); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	w.log.Info().Str("path", path).Msg("report written")
	return nil
}

type styleSet struct {
	header   int
	date     int
	currency int
	text     int
	url      int
}

func newStyleSet(f *excelize.File) (*styleSet, error) {
	thin := []excelize.Border{
		{Type: "left", Style: 1, Color: "000000"},
		{Type: "right", Style: 1, Color: "000000"},
		{Type: "top", Style: 1, Color: "000000"},
		{Type: "bottom", Style: 1, Color: "000000"},
	}

	var s styleSet
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#C0C0C0"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thin,
	}); err != nil {
		return nil, err
	}

	dateFmt := "dd/mm/yyyy"
	if s.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt, Border: thin}); err != nil {
		return nil, err
	}

	currencyFmt := "$#,##0.00"
	if s.currency, err = f.NewStyle(&excelize.Style{CustomNumFmt: &currencyFmt, Border: thin}); err != nil {
		return nil, err
	}

	if s.text, err = f.NewStyle(&excelize.Style{
		Border:    thin,
		Alignment: &excelize.Alignment{WrapText: true},
	}); err != nil {
		return nil, err
	}

	if s.url, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Color: "1265BE", Underline: "single"},
		Border: thin,
	}); err != nil {
		return nil, err
	}

	return &s, nil
}

func (w *Writer) writeRow(f *excelize.File, styles *styleSet, row int, tx model.Transaction, meta model.TransactionMetadata) error {
	set := func(col int, value interface{}, style int) error {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		if err := f.SetCellValue(sheetName, cell, value); err != nil {
			return err
		}
		return f.SetCellStyle(sheetName, cell, cell, style)
	}

	if date, err := time.Parse("2006-01-02", tx.Date); err == nil {
		if err := set(1, date, styles.date); err != nil {
			return err
		}
	} else if err := set(1, tx.Date, styles.text); err != nil {
		return err
	}

	if err := set(2, tx.Description, styles.text); err != nil {
		return err
	}

	if tx.Debit.IsPositive() {
		if err := set(3, tx.Debit.InexactFloat64(), styles.currency); err != nil {
			return err
		}
	} else if err := set(3, "", styles.currency); err != nil {
		return err
	}
	if tx.Credit.IsPositive() {
		if err := set(4, tx.Credit.InexactFloat64(), styles.currency); err != nil {
			return err
		}
	} else if err := set(4, "", styles.currency); err != nil {
		return err
	}

	if err := set(5, tx.Category, styles.text); err != nil {
		return err
	}

	institution := meta.Institution
	if institution == "" {
		institution = "Unknown"
	}
	if err := set(6, institution, styles.text); err != nil {
		return err
	}
	if err := set(7, meta.AccountNumber, styles.text); err != nil {
		return err
	}

	if w.paperlessURL != "" && meta.DocumentID > 0 {
		docURL := fmt.Sprintf("%s/documents/%d", w.paperlessURL, meta.DocumentID)
		cell, _ := excelize.CoordinatesToCellName(8, row)
		if err := f.SetCellValue(sheetName, cell, docURL); err != nil {
			return err
		}
		if err := f.SetCellHyperLink(sheetName, cell, docURL, "External"); err != nil {
			return err
		}
		return f.SetCellStyle(sheetName, cell, cell, styles.url)
	}
	return set(8, "", styles.text)
}

func (w *Writer) writeSummary(f *excelize.File, styles *styleSet, row int, stats Stats) error {
	label := func(r int, text string, style int) error {
		cell, _ := excelize.CoordinatesToCellName(1, r)
		if err := f.SetCellValue(sheetName, cell, text); err != nil {
			return err
		}
		return f.SetCellStyle(sheetName, cell, cell, style)
	}
	value := func(r int, v interface{}, style int) error {
		cell, _ := excelize.CoordinatesToCellName(2, r)
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return err
		}
		return f.SetCellStyle(sheetName, cell, cell, style)
	}

	if err := label(row, "Summary", styles.header); err != nil {
		return err
	}

	entries := []struct {
		name     string
		val      interface{}
		valStyle int
	}{
		{"Total Transactions:", stats.TotalTransactions, styles.text},
		{"Total Debits:", stats.TotalDebit.InexactFloat64(), styles.currency},
		{"Total Credits:", stats.TotalCredit.InexactFloat64(), styles.currency},
		{"Net Amount:", stats.NetAmount.InexactFloat64(), styles.currency},
		{"Categorised:", stats.Categorised, styles.text},
		{"Uncategorised:", stats.Uncategorised, styles.text},
	}
	for i, e := range entries {
		if err := label(row+1+i, e.name, styles.text); err != nil {
			return err
		}
		if err := value(row+1+i, e.val, e.valStyle); err != nil {
			return err
		}
	}
	return nil
}
