package http

import (
	"errors"
	"io"
	"net/http"
	"slices"

	"github.com/quillworks/quill/internal/auth/domain"
	"github.com/quillworks/quill/internal/auth/service"
	"github.com/quillworks/quill/pkg/httpx"
	"github.com/quillworks/quill/pkg/slogx"
)

type RevokeAllHandler struct {
	AuthService *service.AuthService
}

type revokeAllRequest struct {
	// UserID defaults to the authenticated subject. Revoking for another
	// user requires the Admin role.
	UserID string `json:"user_id,omitempty"`
}

// ServeHTTP rotates the target user's security stamp, invalidating their
// credential version going forward.
func (h *RevokeAllHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	requesterID := httpx.UserIDFromContext(ctx)
	if requesterID == "" {
		ErrInvalidToken.WriteError(w)
		return
	}

	var req revokeAllRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		ErrMalformedBody.WriteError(w)
		return
	}

	targetID := req.UserID
	if targetID == "" {
		targetID = requesterID
	}

	isAdmin := slices.Contains(httpx.RolesFromContext(ctx), string(domain.RoleAdmin))
	if !service.Authorize(ctx, requesterID, isAdmin, targetID) {
		ErrForbidden.WriteError(w)
		return
	}

	result, err := h.AuthService.RevokeAllTokens(ctx, targetID)
	if err != nil {
		log.Error("revoke-all failed", "user_id", targetID, "err", err)
		ErrServerError.WriteError(w)
		return
	}

	status := http.StatusOK
	if !result.Succeeded {
		status = http.StatusNotFound
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, status, result)
}
