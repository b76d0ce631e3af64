package exports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNextRun(t *testing.T) {
	from := time.Date(2024, time.January, 31, 8, 0, 0, 0, time.UTC)

	require.Equal(t, from.AddDate(0, 0, 1), NextRun(FrequencyDaily, from))
	require.Equal(t, from.AddDate(0, 0, 7), NextRun(FrequencyWeekly, from))
	require.Equal(t, from.AddDate(0, 1, 0), NextRun(FrequencyMonthly, from))
	require.Equal(t, from.AddDate(0, 0, 1), NextRun(Frequency("hourly"), from))
}
