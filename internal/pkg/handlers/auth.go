package handlers

import (
	"net/http"
	"sync"

	"github.com/homekit-bridges/homekit-alexa/internal/pkg/alexaapi"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/logging"
)

/*
 * AuthHandler implements the cookie capture endpoint used by the auth
 * command. A companion proxy (or the user, manually) posts the Alexa
 * session cookie here; the handler persists it and signals completion
 * so the capture server can shut down.
 */

type AuthHandler struct {
	sessionFile string

	mu       sync.Mutex
	captured bool
	done     chan struct{}
}

func NewAuthHandler(sessionFile string) *AuthHandler {
	return &AuthHandler{
		sessionFile: sessionFile,
		done:        make(chan struct{}),
	}
}

// Done is closed once a cookie has been captured and saved.
func (h *AuthHandler) Done() <-chan struct{} {
	return h.done
}

type authStatus struct {
	Captured bool `json:"captured"`
}

type submitCookieRequest struct {
	Cookie string `json:"cookie"`
}

func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	captured := h.captured
	h.mu.Unlock()

	sendJSONResponse(w, r, authStatus{Captured: captured})
}

func (h *AuthHandler) SubmitCookie(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logging.Logger(r.Context())

	var req submitCookieRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		ctxLogger.WithError(err).Errorf("decoding JSON")
		http.Error(w, "unable to parse JSON", http.StatusBadRequest)
		return
	}

	if req.Cookie == "" {
		http.Error(w, "cookie must not be empty", http.StatusBadRequest)
		return
	}

	session := alexaapi.NewSession(req.Cookie)
	if err := session.Save(h.sessionFile); err != nil {
		ctxLogger.WithError(err).Error("saving session")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	first := !h.captured
	h.captured = true
	h.mu.Unlock()

	if first {
		close(h.done)
	}

	ctxLogger.Info("session cookie captured")
	sendJSONResponse(w, r, authStatus{Captured: true})
}
