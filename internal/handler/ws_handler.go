/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate limiting,
enforcing the Proof-of-Work gate, upgrading the HTTP connection to WebSocket, and handing
the connection over to the transport server for its session lifecycle.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"peerchat/internal/pkg/errs"
	"peerchat/internal/pkg/limiter"
	"peerchat/internal/pkg/logx"
	"peerchat/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		if deps.Pow.Difficulty() > 0 && !deps.Pow.CheckProofToken(r) {
			logx.Warn("WebSocket connection rejected: Missing or expired proof token.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrPowChallengeRequired))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		// Accept blocks for the lifetime of the session (its read pump).
		if err := deps.WS.Accept(conn); err != nil {
			logx.Error(err, "WebSocket session ended with error")
		}
	}
}
