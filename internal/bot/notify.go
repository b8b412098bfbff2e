package bot

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"contract-bot/internal/backend"
	apperrors "contract-bot/internal/common/errors"
	"contract-bot/internal/common/logger"
)

// NotifyHeader carries the shared backend key on notification requests.
const NotifyHeader = "X-Api-Key"

// NewNotifyHandler accepts POSTed contracts from the backend and announces them in the
// configured chat.
func NewNotifyHandler(router *Router, apiKey string, log logger.Logger) http.Handler {
	log = log.With(map[string]interface{}{"component": "notify"})
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{"ok": false, "error": "method not allowed"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(req.Header.Get(NotifyHeader)), []byte(apiKey)) != 1 {
			log.Warn("notification rejected: bad key", map[string]interface{}{"remote": req.RemoteAddr})
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"ok": false, "error": "unauthorized"})
			return
		}

		var contract backend.Contract
		if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, 1<<20)).Decode(&contract); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "error": "invalid contract payload"})
			return
		}

		if err := router.NotifyNewContract(req.Context(), contract); err != nil {
			status := http.StatusBadGateway
			if apperrors.HasCode(err, apperrors.ErrCodeValidationFailed) {
				status = http.StatusBadRequest
			}
			log.Error("new contract notification failed", map[string]interface{}{"error": err, "contractNumber": contract.Number})
			writeJSON(w, status, map[string]interface{}{"ok": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
