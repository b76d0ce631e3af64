package exports

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// BuildWorkbook renders headers and rows into a single-sheet xlsx file.
func BuildWorkbook(sheetName string, headers []string, rows [][]any) ([]byte, error) {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	xl.SetSheetName(xl.GetSheetName(0), sheetName)

	if err := xl.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return nil, err
	}
	for ri, row := range rows {
		record := make([]any, len(row))
		for ci, v := range row {
			record[ci] = formatCell(v)
		}
		cellRef, err := excelize.CoordinatesToCellName(1, ri+2)
		if err != nil {
			return nil, err
		}
		if err := xl.SetSheetRow(sheetName, cellRef, &record); err != nil {
			return nil, err
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// formatCell normalizes database values into spreadsheet friendly cells.
// Monetary values come back from pgx as float64 and get thousands
// separators; timestamps are rendered as dates in UTC.
func formatCell(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format("2006-01-02")
	case float64:
		return amountPrinter.Sprintf("%.2f", val)
	case nil:
		return ""
	default:
		return val
	}
}

func exportFileName(reportType ReportType, at time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", reportType, at.UTC().Format("20060102_150405"))
}
