package pow

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// solve brute-forces a counter whose hash meets the difficulty.
func solve(nonce string, difficulty int) string {
	prefix := strings.Repeat("0", difficulty)

	for i := 0; ; i++ {
		counter := strconv.Itoa(i)
		hash := sha256.Sum256([]byte(nonce + counter))
		if strings.HasPrefix(hex.EncodeToString(hash[:]), prefix) {
			return counter
		}
	}
}

func TestChallengeRoundTrip(t *testing.T) {
	m := NewManager(1)

	nonce := m.NewChallenge()
	require.NotEmpty(t, nonce)

	token, err := m.ValidateProof(nonce, solve(nonce, 1))
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// The nonce is consumed by a successful proof.
	_, err = m.ValidateProof(nonce, solve(nonce, 1))
	require.Error(t, err)
}

func TestValidateProofRejectsBadInput(t *testing.T) {
	m := NewManager(4)

	_, err := m.ValidateProof("made-up-nonce", "0")
	require.Error(t, err)

	nonce := m.NewChallenge()
	_, err = m.ValidateProof(nonce, "unlikely-to-meet-difficulty")
	require.Error(t, err)
}

func TestCheckProofToken(t *testing.T) {
	m := NewManager(1)

	nonce := m.NewChallenge()
	token, err := m.ValidateProof(nonce, solve(nonce, 1))
	require.NoError(t, err)

	// Header form.
	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set(TokenHeaderKey, token)
	require.True(t, m.CheckProofToken(r))

	// Query parameter form, for WebSocket upgrades.
	r = httptest.NewRequest("GET", "/ws?"+TokenQueryKey+"="+token, nil)
	require.True(t, m.CheckProofToken(r))

	// No token at all.
	r = httptest.NewRequest("GET", "/ws", nil)
	require.False(t, m.CheckProofToken(r))

	// Unknown token.
	r = httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set(TokenHeaderKey, "bogus")
	require.False(t, m.CheckProofToken(r))
}

func TestDifficulty(t *testing.T) {
	require.Equal(t, 3, NewManager(3).Difficulty())
	require.Zero(t, NewManager(0).Difficulty())
}
