/*
Package pow implements the Proof-of-Work (PoW) gate used as an anti-abuse
measure in front of the WebSocket endpoint.

It manages the generation and validation of challenge nonces and the issuance
of short-lived proof tokens upon successful validation.
*/
package pow

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// TokenHeaderKey is the HTTP header the client uses to send the proof token.
	TokenHeaderKey = "X-PoW-Token"

	// TokenQueryKey is the query parameter alternative for WebSocket upgrades,
	// where custom headers are awkward for browser clients.
	TokenQueryKey = "pow_token"

	// tokenTTL is the validity period of a proof token.
	tokenTTL = 30 * time.Second

	// nonceTTL is the validity period of a challenge nonce.
	nonceTTL = 5 * time.Minute
)

// Manager owns the lifecycle of PoW challenges and proof tokens. It is
// concurrent-safe.
type Manager struct {
	// difficulty is the required number of leading hex zeros of the proof hash.
	difficulty int

	// nonces maps active challenge nonces to their expiry.
	nonces map[string]time.Time

	// tokens maps issued proof tokens to their expiry.
	tokens map[string]time.Time

	// mu protects nonces and tokens.
	mu sync.RWMutex
}

// NewManager creates a Manager with the given challenge difficulty and starts
// a background goroutine cleaning up expired entries.
func NewManager(difficulty int) *Manager {
	m := &Manager{
		difficulty: difficulty,
		nonces:     make(map[string]time.Time),
		tokens:     make(map[string]time.Time),
	}

	go m.cleanupLoop()

	return m
}

// Difficulty returns the configured challenge difficulty.
func (m *Manager) Difficulty() int {
	return m.difficulty
}

// NewChallenge generates and stores a fresh challenge nonce.
func (m *Manager) NewChallenge() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	nonce := uuid.New().String()
	m.nonces[nonce] = time.Now().Add(nonceTTL)
	return nonce
}

// ValidateProof checks a client's proof: the nonce must be live, and
// SHA-256(nonce + counter) must start with the required number of zeros.
// A valid proof consumes the nonce and returns a proof token.
func (m *Manager) ValidateProof(nonce, counter string) (string, error) {
	m.mu.RLock()
	expiry, ok := m.nonces[nonce]
	m.mu.RUnlock()

	if !ok || time.Now().After(expiry) {
		return "", fmt.Errorf("nonce expired or invalid")
	}

	hash := sha256.Sum256([]byte(nonce + counter))
	hashStr := hex.EncodeToString(hash[:])

	if !strings.HasPrefix(hashStr, strings.Repeat("0", m.difficulty)) {
		return "", fmt.Errorf("proof does not meet difficulty requirement")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, stillLive := m.nonces[nonce]; !stillLive {
		return "", fmt.Errorf("nonce consumed by concurrent request")
	}

	delete(m.nonces, nonce)

	token := uuid.New().String()
	m.tokens[token] = time.Now().Add(tokenTTL)
	return token, nil
}

// CheckProofToken reports whether the request carries a live proof token, in
// either the header or the query parameter.
func (m *Manager) CheckProofToken(r *http.Request) bool {
	token := r.Header.Get(TokenHeaderKey)
	if token == "" {
		token = r.URL.Query().Get(TokenQueryKey)
	}

	if token == "" {
		return false
	}

	m.mu.RLock()
	expiry, ok := m.tokens[token]
	m.mu.RUnlock()

	return ok && time.Now().Before(expiry)
}

// cleanupLoop periodically removes expired nonces and tokens.
func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		now := time.Now()

		for nonce, expiry := range m.nonces {
			if now.After(expiry) {
				delete(m.nonces, nonce)
			}
		}

		for token, expiry := range m.tokens {
			if now.After(expiry) {
				delete(m.tokens, token)
			}
		}
		m.mu.Unlock()
	}
}
