package handler

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"peerchat/internal/app/engine"
	"peerchat/internal/configs"
	"peerchat/internal/pkg/errs"
	"peerchat/internal/pkg/pow"
	"peerchat/internal/pkg/resp"
	"peerchat/internal/transport/ws"
)

func newTestRouter(t *testing.T, difficulty int) http.Handler {
	t.Helper()

	cfg := &configs.AppConfig{
		Environment:     "development",
		Port:            8080,
		PowDifficulty:   difficulty,
		AllowedOrigins:  []string{},
		MaxMessageBytes: 65536,
	}

	storage := engine.NewStorage()
	wsServer := ws.NewServer(cfg.MaxMessageBytes)
	api := engine.NewAPI(storage, wsServer, nil, nil)
	wsServer.Bind(api)

	return Router(&AppDeps{
		Config: cfg,
		Engine: api,
		WS:     wsServer,
		Pow:    pow.NewManager(difficulty),
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, resp.JSONResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	var parsed resp.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))

	return w, parsed
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, 0)

	w, parsed := doJSON(t, router, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Zero(t, parsed.Code)
}

func TestStatsEndpoint(t *testing.T) {
	router := newTestRouter(t, 0)

	w, parsed := doJSON(t, router, "GET", "/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Zero(t, parsed.Code)

	stats, ok := parsed.Data.(map[string]any)
	require.True(t, ok)
	require.EqualValues(t, 0, stats["users"])
	require.EqualValues(t, 1, stats["rooms"], "the lobby always exists")
}

func TestPowChallengeVerifyFlow(t *testing.T) {
	router := newTestRouter(t, 1)

	_, parsed := doJSON(t, router, "POST", "/api/pow/challenge", nil)
	require.Zero(t, parsed.Code)

	challenge := parsed.Data.(map[string]any)
	nonce := challenge["nonce"].(string)
	require.NotEmpty(t, nonce)
	require.EqualValues(t, 1, challenge["difficulty"])

	// Brute-force a counter meeting the difficulty.
	var counter string
	for i := 0; ; i++ {
		counter = strconv.Itoa(i)
		hash := sha256.Sum256([]byte(nonce + counter))
		if strings.HasPrefix(hex.EncodeToString(hash[:]), "0") {
			break
		}
	}

	_, parsed = doJSON(t, router, "POST", "/api/pow/verify", map[string]string{
		"nonce":   nonce,
		"counter": counter,
	})
	require.Zero(t, parsed.Code)
	require.NotEmpty(t, parsed.Data.(map[string]any)["token"])
}

func TestPowVerifyRejectsBadProof(t *testing.T) {
	router := newTestRouter(t, 4)

	_, parsed := doJSON(t, router, "POST", "/api/pow/verify", map[string]string{
		"nonce":   "made-up",
		"counter": "0",
	})
	require.Equal(t, errs.ErrPowChallengeInvalid, parsed.Code)
}

func TestPowVerifyRejectsMissingFields(t *testing.T) {
	router := newTestRouter(t, 4)

	_, parsed := doJSON(t, router, "POST", "/api/pow/verify", map[string]string{"nonce": "x"})
	require.Equal(t, errs.ErrInvalidParams, parsed.Code)
}

func TestWebSocketUpgradeRequiresProofToken(t *testing.T) {
	router := newTestRouter(t, 1)

	_, parsed := doJSON(t, router, "GET", "/ws", nil)
	require.Equal(t, errs.ErrPowChallengeRequired, parsed.Code)
}

func TestWebSocketGateDisabledAtZeroDifficulty(t *testing.T) {
	router := newTestRouter(t, 0)

	// With the gate off the request reaches the upgrader, which rejects a
	// plain GET without the WebSocket handshake headers.
	r := httptest.NewRequest("GET", "/ws", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
