package quotations

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateTotalsOrder(t *testing.T) {
	items := []Item{
		{Quantity: 2, UnitPrice: 100},
		{Quantity: 1, UnitPrice: 50},
	}

	totals := CalculateTotals(items, 10, 6)

	require.InDelta(t, 250.0, totals.Subtotal, 1e-9)
	require.InDelta(t, 25.0, totals.DiscountAmount, 1e-9)
	require.InDelta(t, 13.5, totals.TaxAmount, 1e-9)
	require.InDelta(t, 238.5, totals.Total, 1e-9)
}

func TestCalculateTotalsIdentity(t *testing.T) {
	items := []Item{
		{Quantity: 3, UnitPrice: 19.99},
		{Quantity: 0.5, UnitPrice: 120},
	}

	totals := CalculateTotals(items, 12.5, 8)

	taxable := totals.Subtotal - totals.DiscountAmount
	require.InDelta(t, taxable+totals.TaxAmount, totals.Total, 1e-9)
	require.InDelta(t, taxable*0.08, totals.TaxAmount, 1e-9)
}

func TestCalculateTotalsNoItems(t *testing.T) {
	totals := CalculateTotals(nil, 10, 6)
	require.Zero(t, totals.Subtotal)
	require.Zero(t, totals.Total)
}

func TestCalculateTotalsIdempotent(t *testing.T) {
	items := []Item{{Quantity: 4, UnitPrice: 25}}

	first := CalculateTotals(items, 5, 10)
	second := CalculateTotals(items, 5, 10)

	require.Equal(t, first, second)
}

func TestCanTransition(t *testing.T) {
	require.True(t, CanTransition(StatusDraft, StatusSent))
	require.True(t, CanTransition(StatusSent, StatusViewed))
	require.True(t, CanTransition(StatusViewed, StatusAccepted))
	require.True(t, CanTransition(StatusAccepted, StatusConverted))
	require.True(t, CanTransition(StatusSent, StatusExpired))

	require.False(t, CanTransition(StatusDraft, StatusAccepted))
	require.False(t, CanTransition(StatusConverted, StatusDraft))
	require.False(t, CanTransition(StatusRejected, StatusAccepted))
	require.False(t, CanTransition(StatusExpired, StatusSent))
}
