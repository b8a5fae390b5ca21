/*
Package handler provides HTTP handler functions for the Proof-of-Work (PoW) challenge flow.

Clients must solve a challenge before opening a WebSocket connection: request a
nonce, find a counter whose hash meets the difficulty, and exchange the proof
for a short-lived token presented on the upgrade request.
*/
package handler

import (
	"net/http"

	"peerchat/internal/pkg/errs"
	"peerchat/internal/pkg/logx"
	"peerchat/internal/pkg/req"
	"peerchat/internal/pkg/resp"
)

type PowVerifyInput struct {
	Nonce   string `json:"nonce"`
	Counter string `json:"counter"`
}

// HandlePowChallenge issues a fresh challenge nonce along with the required difficulty.
func HandlePowChallenge(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nonce := deps.Pow.NewChallenge()

		data := map[string]any{
			"nonce":      nonce,
			"difficulty": deps.Pow.Difficulty(),
		}
		resp.RespondSuccess(w, r, data)
	}
}

// HandlePowVerify validates a client's proof and issues a proof token on success.
func HandlePowVerify(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input PowVerifyInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Nonce == "" || input.Counter == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		token, err := deps.Pow.ValidateProof(input.Nonce, input.Counter)
		if err != nil {
			logx.Warn("PoW verification failed.", "reason", err.Error())
			resp.RespondError(w, r, errs.NewError(errs.ErrPowChallengeInvalid))
			return
		}

		data := map[string]string{
			"token": token,
		}
		resp.RespondSuccess(w, r, data)
	}
}
