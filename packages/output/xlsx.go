package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/classifyprobe/packages/core/runner"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "Summary"
	CasesSheet   = "Cases"
)

// XLSXCaseHeaders are the columns of the cases sheet.
var XLSXCaseHeaders = []string{
	"Run", "#", "Name", "Business Name", "Request ID", "Image", "Outcome",
	"Reason", "Status", "Duration (ms)", "Business Type", "Is Match",
	"Match Score", "Match Reason", "Message",
}

// XLSXFormatter writes a workbook with one summary row per run and one
// row per verdict.
type XLSXFormatter struct {
	writer  io.Writer
	version string
	results []*runner.RunResult
	now     func() time.Time
}

type XLSXOption func(*XLSXFormatter)

func NewXLSXFormatter(opts ...XLSXOption) *XLSXFormatter {
	f := &XLSXFormatter{
		writer: os.Stdout,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func XLSXWithWriter(w io.Writer) XLSXOption {
	return func(f *XLSXFormatter) {
		f.writer = w
	}
}

func (f *XLSXFormatter) FormatResult(result *runner.RunResult) {
	f.results = append(f.results, result)
}

func (f *XLSXFormatter) FormatError(err error) {
	// Errors are included in individual verdicts
}

func (f *XLSXFormatter) FormatHeader(version string) {
	f.version = version
}

func (f *XLSXFormatter) Flush(totalDuration time.Duration) error {
	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName("Sheet1", SummarySheet); err != nil {
		return err
	}
	if _, err := book.NewSheet(CasesSheet); err != nil {
		return err
	}

	bold, err := book.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := f.writeSummary(book, bold, totalDuration); err != nil {
		return err
	}
	if err := f.writeCases(book, bold); err != nil {
		return err
	}

	if err := book.Write(f.writer); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func (f *XLSXFormatter) writeSummary(book *excelize.File, bold int, totalDuration time.Duration) error {
	rows := [][]any{
		{"Generated", f.now().Format(time.RFC3339)},
		{"Version", f.version},
		{"Duration (ms)", totalDuration.Milliseconds()},
		{"Runs", len(f.results)},
		{"Run", "Suite", "Endpoint", "Health", "Total", "Passed", "Failed", "Inconclusive", "Skipped", "Aborted", "Success"},
	}
	header := len(rows)

	for i, r := range f.results {
		health := "not checked"
		if r.Health.Checked {
			health = r.Health.Message
		}
		aborted := ""
		if r.Aborted {
			aborted = string(r.AbortReason)
		}
		rows = append(rows, []any{
			i + 1, r.Suite, r.Endpoint.BaseURL(), health, r.Total(),
			r.Passed, r.Failed, r.Inconclusive, r.Skipped, aborted, r.Success,
		})
	}

	if err := setRows(book, SummarySheet, rows); err != nil {
		return err
	}
	if err := book.SetCellStyle(SummarySheet, "A1", "A4", bold); err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(11, header)
	if err != nil {
		return err
	}
	start, _ := excelize.CoordinatesToCellName(1, header)
	return book.SetCellStyle(SummarySheet, start, end, bold)
}

func (f *XLSXFormatter) writeCases(book *excelize.File, bold int) error {
	header := make([]any, len(XLSXCaseHeaders))
	for i, h := range XLSXCaseHeaders {
		header[i] = h
	}
	rows := [][]any{header}

	for run, r := range f.results {
		for _, v := range r.Verdicts {
			isMatch, score, reason := "", "", ""
			if c := v.Comparison; c != nil {
				isMatch, score, reason = c.IsMatchString(), c.MatchScoreString(), c.MatchReasonString()
			}
			status := any("")
			if v.StatusCode != 0 {
				status = v.StatusCode
			}
			rows = append(rows, []any{
				run + 1, v.Index, v.Name, v.BusinessName, v.RequestID, yesNo(v.HasImage),
				string(v.Outcome), string(v.Reason), status, v.Duration.Milliseconds(),
				v.BusinessType, isMatch, score, reason, v.Message,
			})
		}
	}

	if err := setRows(book, CasesSheet, rows); err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(len(XLSXCaseHeaders), 1)
	if err != nil {
		return err
	}
	if err := book.SetCellStyle(CasesSheet, "A1", end, bold); err != nil {
		return err
	}
	return book.SetPanes(CasesSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func setRows(book *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
