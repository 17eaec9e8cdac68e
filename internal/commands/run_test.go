package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stmtproc/internal/processor"
)

func TestValidateRunParams(t *testing.T) {
	dir := t.TempDir()

	valid := runParams{dateFrom: "2025-05-01", dateTo: "2025-05-31", outputDir: dir}
	assert.NoError(t, validateRunParams(valid))

	noDir := valid
	noDir.outputDir = ""
	assert.NoError(t, validateRunParams(noDir))
}

func TestValidateRunParams_Rejections(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	cases := map[string]runParams{
		"malformed date-from":  {dateFrom: "01/05/2025", dateTo: "2025-05-31"},
		"malformed date-to":    {dateFrom: "2025-05-01", dateTo: "31-05-2025"},
		"inverted range":       {dateFrom: "2025-06-01", dateTo: "2025-05-01"},
		"missing output dir":   {dateFrom: "2025-05-01", dateTo: "2025-05-31", outputDir: filepath.Join(dir, "missing")},
		"output dir is a file": {dateFrom: "2025-05-01", dateTo: "2025-05-31", outputDir: file},
	}
	for name, params := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, validateRunParams(params))
		})
	}
}

func TestPrintSummary_CategoryBreakdown(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	printSummary(cmd, &processor.Summary{
		Documents:    1,
		Processed:    1,
		Transactions: 2,
		ReportPath:   "exp_report-2025-05-01-2025-05-31.xlsx",
		ByCategory:   map[string]int{"Groceries": 1, "Entertainment": 1},
	})

	out := buf.String()
	assert.Contains(t, out, "By category:")
	// Categories print in stable alphabetical order.
	assert.Less(t, strings.Index(out, "Entertainment"), strings.Index(out, "Groceries"))
	assert.Contains(t, out, "exp_report-2025-05-01-2025-05-31.xlsx")
}

func TestRunCommand_RequiresDateFlags(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run"})
	err := cmd.Execute()
	require.Error(t, err)
}
