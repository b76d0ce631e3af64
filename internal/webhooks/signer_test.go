package webhooks

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignDeterministic(t *testing.T) {
	body := []byte(`{"event":"invoice.paid"}`)
	first := Sign("topsecret", body)
	second := Sign("topsecret", body)

	require.Equal(t, first, second)
	require.Len(t, first, 64)
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"invoice.paid"}`)
	sig := Sign("topsecret", body)

	require.True(t, VerifySignature("topsecret", body, sig))
	require.False(t, VerifySignature("othersecret", body, sig))
	require.False(t, VerifySignature("topsecret", []byte(`{"tampered":true}`), sig))
	require.False(t, VerifySignature("topsecret", body, "deadbeef"))
}
