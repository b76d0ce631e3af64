package exports

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuildWorkbook(t *testing.T) {
	headers := []string{"doc_number", "issue_date", "total"}
	rows := [][]any{
		{"INV-2024-0001", time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC), 1234567.891},
		{"INV-2024-0002", nil, 50.0},
	}

	data, err := BuildWorkbook("invoices", headers, rows)
	require.NoError(t, err)

	xl, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = xl.Close() }()

	require.Equal(t, []string{"invoices"}, xl.GetSheetList())

	got, err := xl.GetRows("invoices")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, headers, got[0])
	require.Equal(t, []string{"INV-2024-0001", "2024-03-01", "1,234,567.89"}, got[1])
	require.Equal(t, "50.00", got[2][2])
}

func TestExportFileName(t *testing.T) {
	at := time.Date(2024, time.March, 1, 10, 30, 45, 0, time.UTC)
	require.Equal(t, "invoices_20240301_103045.xlsx", exportFileName(ReportInvoices, at))
}
