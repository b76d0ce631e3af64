package webhooks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoffDelay(t *testing.T) {
	require.Equal(t, 60*time.Second, BackoffDelay(1))
	require.Equal(t, 300*time.Second, BackoffDelay(2))
	require.Equal(t, 900*time.Second, BackoffDelay(3))
	require.Equal(t, 3600*time.Second, BackoffDelay(4))
	require.Equal(t, 14400*time.Second, BackoffDelay(5))
}

func TestBackoffDelayClampsBeyondTable(t *testing.T) {
	require.Equal(t, 14400*time.Second, BackoffDelay(6))
	require.Equal(t, 14400*time.Second, BackoffDelay(100))
}

func TestBackoffDelayFloorsAtFirstAttempt(t *testing.T) {
	require.Equal(t, 60*time.Second, BackoffDelay(0))
	require.Equal(t, 60*time.Second, BackoffDelay(-3))
}
