package http

import (
	"net/http"

	"github.com/quillworks/quill/internal/auth/service"
	"github.com/quillworks/quill/pkg/httpx"
	"github.com/quillworks/quill/pkg/slogx"
)

type LogoutHandler struct {
	AuthService *service.AuthService
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ServeHTTP blacklists the presented refresh token. Safe to repeat; a
// second logout with the same token returns the same success.
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req logoutRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrMalformedBody.WriteError(w)
		return
	}
	if req.RefreshToken == "" {
		ErrMissingField.WriteError(w)
		return
	}

	result, err := h.AuthService.Logout(ctx, req.RefreshToken)
	if err != nil {
		log.Error("logout failed", "err", err)
		ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, result)
}
