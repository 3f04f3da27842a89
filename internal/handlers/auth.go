package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"livecast-api/internal/service"
)

// AuthHandler は登録・ログイン・ログアウトのHTTPハンドラー
type AuthHandler struct {
	svc *service.AuthService
	log zerolog.Logger
}

// NewAuthHandler は新しいAuthHandlerを作成します
func NewAuthHandler(svc *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

func (r registerRequest) validate() error {
	if err := validateRequired("email", r.Email); err != nil {
		return err
	}
	if err := validateRequired("password", r.Password); err != nil {
		return err
	}
	return validateRequired("displayName", r.DisplayName)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) validate() error {
	if err := validateRequired("email", r.Email); err != nil {
		return err
	}
	return validateRequired("password", r.Password)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, session, err := h.svc.Register(r.Context(), in.Email, in.Password, in.DisplayName, in.Role)
	if err != nil {
		h.writeServiceError(w, err, "Register error")
		return
	}
	setSessionCookie(w, session.SessionId, h.svc.SessionTTLSec())
	respondJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, session, err := h.svc.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		h.writeServiceError(w, err, "Login error")
		return
	}
	setSessionCookie(w, session.SessionId, h.svc.SessionTTLSec())
	respondJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionId, ok := sessionFrom(r.Context()); ok {
		if err := h.svc.Logout(r.Context(), sessionId); err != nil {
			h.log.Error().Err(err).Msg("Logout error")
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) writeServiceError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrInvalidRole):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg(logMsg)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
