package http

import (
	"net/http"

	"github.com/quillworks/quill/internal/auth/service"
	"github.com/quillworks/quill/pkg/httpx"
	"github.com/quillworks/quill/pkg/slogx"
)

type RegisterHandler struct {
	AuthService *service.AuthService
}

type registerRequest struct {
	Email           string `json:"email"`
	DisplayName     string `json:"display_name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ServeHTTP creates an account and signs the new user in.
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrMalformedBody.WriteError(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		ErrMissingField.WriteError(w)
		return
	}

	result, err := h.AuthService.Register(ctx, req.Email, req.DisplayName, req.Password, req.ConfirmPassword)
	if err != nil {
		log.Error("register failed", "err", err)
		ErrServerError.WriteError(w)
		return
	}

	status := http.StatusCreated
	if !result.Succeeded {
		status = http.StatusBadRequest
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, status, result)
}
