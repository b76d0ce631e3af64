package numbering

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memorySequenceRepo struct {
	counters map[string]int64
}

func newMemorySequenceRepo() *memorySequenceRepo {
	return &memorySequenceRepo{counters: make(map[string]int64)}
}

func (r *memorySequenceRepo) key(companyID int64, docType DocType, year int) string {
	return fmt.Sprintf("%d|%s|%d", companyID, docType, year)
}

func (r *memorySequenceRepo) NextNumber(ctx context.Context, companyID int64, docType DocType, year int) (int64, error) {
	k := r.key(companyID, docType, year)
	r.counters[k]++
	return r.counters[k], nil
}

func (r *memorySequenceRepo) GetSequence(ctx context.Context, companyID int64, docType DocType, year int) (*Sequence, error) {
	k := r.key(companyID, docType, year)
	return &Sequence{CompanyID: companyID, DocType: docType, Year: year, CurrentNumber: r.counters[k]}, nil
}

func fixedTime(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, time.June, 15, 12, 0, 0, 0, time.UTC)
	}
}

func TestGenerateNextMonotonic(t *testing.T) {
	svc := NewService(newMemorySequenceRepo())
	svc.now = fixedTime(2024)

	first, err := svc.GenerateNext(context.Background(), 1, DocTypeQuotation)
	require.NoError(t, err)
	second, err := svc.GenerateNext(context.Background(), 1, DocTypeQuotation)
	require.NoError(t, err)

	require.Equal(t, "QT-2024-0001", first)
	require.Equal(t, "QT-2024-0002", second)
}

func TestGenerateNextYearlyReset(t *testing.T) {
	svc := NewService(newMemorySequenceRepo())

	svc.now = fixedTime(2024)
	for i := 0; i < 3; i++ {
		_, err := svc.GenerateNext(context.Background(), 1, DocTypeInvoice)
		require.NoError(t, err)
	}

	svc.now = fixedTime(2025)
	number, err := svc.GenerateNext(context.Background(), 1, DocTypeInvoice)
	require.NoError(t, err)

	require.Equal(t, "INV-2025-0001", number)
}

func TestGenerateNextNoResetSequence(t *testing.T) {
	svc := NewService(newMemorySequenceRepo())

	svc.now = fixedTime(2024)
	_, err := svc.GenerateNext(context.Background(), 1, DocTypeReceipt)
	require.NoError(t, err)

	svc.now = fixedTime(2025)
	number, err := svc.GenerateNext(context.Background(), 1, DocTypeReceipt)
	require.NoError(t, err)

	require.Equal(t, "RCP-000002", number)
}

func TestGenerateNextSeparateCompanies(t *testing.T) {
	svc := NewService(newMemorySequenceRepo())
	svc.now = fixedTime(2024)

	a, err := svc.GenerateNext(context.Background(), 1, DocTypeQuotation)
	require.NoError(t, err)
	b, err := svc.GenerateNext(context.Background(), 2, DocTypeQuotation)
	require.NoError(t, err)

	require.Equal(t, "QT-2024-0001", a)
	require.Equal(t, "QT-2024-0001", b)
}

func TestFormat(t *testing.T) {
	out, err := Format("{prefix}-{year}-{number}", "QT", 2024, 7, 4)
	require.NoError(t, err)
	require.Equal(t, "QT-2024-0007", out)
}

func TestFormatRequiresNumber(t *testing.T) {
	_, err := Format("{prefix}-{year}", "QT", 2024, 7, 4)
	require.ErrorIs(t, err, ErrBadFormat)
}

func TestGenerateNextUnknownDocType(t *testing.T) {
	svc := NewService(newMemorySequenceRepo())
	_, err := svc.GenerateNext(context.Background(), 1, DocType("purchase_order"))
	require.Error(t, err)
}
