package leads

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	require.True(t, CanTransition(StatusNew, StatusContacted))
	require.True(t, CanTransition(StatusNew, StatusQuoted))
	require.True(t, CanTransition(StatusContacted, StatusWon))
	require.True(t, CanTransition(StatusQuoted, StatusWon))
	require.True(t, CanTransition(StatusQuoted, StatusLost))
	require.True(t, CanTransition(StatusLost, StatusContacted))

	require.False(t, CanTransition(StatusNew, StatusWon))
	require.False(t, CanTransition(StatusWon, StatusLost))
	require.False(t, CanTransition(StatusWon, StatusQuoted))
	require.False(t, CanTransition(StatusLost, StatusWon))
	require.False(t, CanTransition(StatusQuoted, StatusQuoted))
}
