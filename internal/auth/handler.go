package auth

import (
	"context"
	"net/http"

	"github.com/frahmantamala/expense-reporting/internal"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/frahmantamala/expense-reporting/internal/transport"
)

const resetRequestMessage = "if the email is registered, a reset link has been issued"

type ServiceAPI interface {
	Register(ctx context.Context, dto RegisterDTO) (*AuthResponse, error)
	Authenticate(ctx context.Context, dto LoginDTO) (*AuthResponse, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	Authenticated(ctx context.Context, accessToken string) (*coreUser.Principal, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ValidateResetToken(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, dto PasswordResetDTO) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	// exposeResetToken returns reset tokens in the response body outside production.
	exposeResetToken bool
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI, exposeResetToken bool) *Handler {
	return &Handler{
		BaseHandler:      baseHandler,
		Service:          svc,
		exposeResetToken: exposeResetToken,
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	resp, err := h.Service.Register(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("Register: failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	resp, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("Login: authentication failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.Logger.Warn("RefreshToken: token refresh failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// Logout is stateless: tokens expire on their own and clients discard them.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.HandleServiceError(w, internal.NewUnauthorizedError("missing authorization token", internal.ErrCodeInvalidToken))
		return
	}

	if _, err := h.Service.Authenticated(r.Context(), token); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var dto PasswordResetRequestDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	token, err := h.Service.RequestPasswordReset(r.Context(), dto.Email)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp := MessageResponse{Message: resetRequestMessage}
	if h.exposeResetToken {
		resp.ResetToken = token
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) ValidateResetToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if err := h.Service.ValidateResetToken(r.Context(), token); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var dto PasswordResetDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	if err := h.Service.ResetPassword(r.Context(), dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, MessageResponse{Message: "password updated"})
}

func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.Logger.Debug("auth middleware: missing authorization token", "path", r.URL.Path)
			h.HandleServiceError(w, internal.NewUnauthorizedError("missing authorization token", internal.ErrCodeInvalidToken))
			return
		}

		principal, err := h.Service.Authenticated(r.Context(), token)
		if err != nil {
			h.Logger.Warn("auth middleware: token rejected", "error", err)
			h.HandleServiceError(w, err)
			return
		}

		ctx := coreUser.WithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
