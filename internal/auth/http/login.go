package http

import (
	"net/http"

	"github.com/quillworks/quill/internal/auth/service"
	"github.com/quillworks/quill/pkg/httpx"
	"github.com/quillworks/quill/pkg/slogx"
)

type LoginHandler struct {
	AuthService *service.AuthService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ServeHTTP authenticates email+password credentials. Failed attempts get
// 401 with a body that never distinguishes unknown email from wrong
// password; lockout is the single disclosed failure mode.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrMalformedBody.WriteError(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		ErrMissingField.WriteError(w)
		return
	}

	result, err := h.AuthService.Login(ctx, req.Email, req.Password)
	if err != nil {
		log.Error("login failed", "err", err)
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
