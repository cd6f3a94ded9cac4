package http

import (
	"net/http"

	"github.com/quillworks/quill/internal/auth/service"
	"github.com/quillworks/quill/pkg/httpx"
	"github.com/quillworks/quill/pkg/slogx"
)

type RefreshHandler struct {
	AuthService *service.AuthService
}

type refreshRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ServeHTTP rotates a token pair. The access token may be expired; its
// signature still has to check out.
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrMalformedBody.WriteError(w)
		return
	}
	if req.AccessToken == "" || req.RefreshToken == "" {
		ErrMissingField.WriteError(w)
		return
	}

	result, err := h.AuthService.Refresh(ctx, req.AccessToken, req.RefreshToken)
	if err != nil {
		log.Error("refresh failed", "err", err)
		ErrServerError.WriteError(w)
		return
	}

	status := http.StatusOK
	if !result.Succeeded {
		status = http.StatusUnauthorized
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, status, result)
}
