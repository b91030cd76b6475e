package suite

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CasesSheet is the preferred worksheet name in XLSX suites.
const CasesSheet = "Cases"

// XLSXHeaders are the recognised column headers, in scaffold order.
var XLSXHeaders = []string{
	"Name", "Business Name", "Image File", "Expected Type",
	"Expected Match", "Request ID", "Tags", "Skip",
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

func loadXLSX(path string) (*Suite, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening suite workbook: %w", err)
	}
	defer f.Close()

	sheet := ""
	sheets := f.GetSheetList()
	for _, name := range sheets {
		if strings.EqualFold(name, CasesSheet) {
			sheet = name
			break
		}
	}
	if sheet == "" {
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s: workbook has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return &Suite{}, nil
	}

	columns := make(map[string]int)
	for i, h := range rows[0] {
		columns[normalizeHeader(h)] = i
	}
	if _, ok := columns["businessname"]; !ok {
		return nil, fmt.Errorf("%s: sheet %s has no \"Business Name\" column", path, sheet)
	}

	s := &Suite{}
	for n, row := range rows[1:] {
		cell := func(key string) string {
			i, ok := columns[key]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		rowNum := n + 2

		tc := TestCase{
			Name:         cell("name"),
			BusinessName: cell("businessname"),
			ImageFile:    cell("imagefile"),
			ExpectedType: cell("expectedtype"),
			RequestID:    cell("requestid"),
			Skip:         cell("skip"),
		}
		if tc.Name == "" {
			tc.Name = fmt.Sprintf("Row %d", rowNum)
		}
		if v := cell("expectedmatch"); v != "" {
			b, err := parseBool(v)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: expected match: %w", path, rowNum, err)
			}
			tc.ExpectedMatch = &b
		}
		if v := cell("tags"); v != "" {
			for _, tag := range strings.Split(v, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					tc.Tags = append(tc.Tags, tag)
				}
			}
		}
		s.Cases = append(s.Cases, tc)
	}
	return s, nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", v)
	}
	return b, nil
}

// WriteXLSXTemplate writes a workbook with the header row and the given cases.
func WriteXLSXTemplate(path string, cases []TestCase) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(CasesSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	header := make([]any, len(XLSXHeaders))
	for i, h := range XLSXHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(CasesSheet, "A1", &header); err != nil {
		return err
	}

	for i, tc := range cases {
		match := ""
		if tc.ExpectedMatch != nil {
			match = strconv.FormatBool(*tc.ExpectedMatch)
		}
		row := []any{
			tc.Name, tc.BusinessName, tc.ImageFile, tc.ExpectedType,
			match, tc.RequestID, strings.Join(tc.Tags, ","), tc.Skip,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(CasesSheet, cell, &row); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}
