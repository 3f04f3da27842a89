package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"livecast-api/internal/service"
)

// StreamHandler は配信の開始・停止・一覧・チャット履歴のHTTPハンドラー
type StreamHandler struct {
	svc *service.StreamService
	log zerolog.Logger
}

// NewStreamHandler は新しいStreamHandlerを作成します
func NewStreamHandler(svc *service.StreamService, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{svc: svc, log: log}
}

type createStreamRequest struct {
	Title string `json:"title"`
}

func (r createStreamRequest) validate() error {
	return validateRequired("title", r.Title)
}

type stopStreamRequest struct {
	Reason string `json:"reason"`
}

func (h *StreamHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	var in createStreamRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	stream, err := h.svc.Create(r.Context(), user, in.Title)
	if err != nil {
		h.log.Error().Err(err).Str("userId", user.UserId).Msg("Create stream error")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, stream)
}

// Stop は配信を停止します
// 停止レコードの永続化が成功した場合のみ、サービス側が
// チャットルームへの停止通知と全接続の強制切断を行います
func (h *StreamHandler) Stop(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	streamId := normalizeID(chi.URLParam(r, "streamId"))
	if err := validateStreamId(streamId); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	// 理由は省略可能（省略時はサービス側のデフォルト文言）
	var in stopStreamRequest
	if !decodeJSONOptional(w, r, &in) {
		return
	}

	stream, err := h.svc.Stop(r.Context(), streamId, in.Reason, user)
	if err != nil {
		h.log.Error().Err(err).Str("streamId", streamId).Str("userId", user.UserId).Msg("Stop stream error")
		h.writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"id":            stream.StreamId,
		"status":        stream.Status,
		"stoppedReason": stream.StoppedReason,
	})
}

func (h *StreamHandler) List(w http.ResponseWriter, r *http.Request) {
	streams, err := h.svc.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("List streams error")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"streams": streams})
}

func (h *StreamHandler) History(w http.ResponseWriter, r *http.Request) {
	streamId := normalizeID(chi.URLParam(r, "streamId"))
	if err := validateStreamId(streamId); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	messages, err := h.svc.History(r.Context(), streamId)
	if err != nil {
		h.log.Error().Err(err).Str("streamId", streamId).Msg("Chat history error")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *StreamHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrStreamNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotStreamOwner):
		respondError(w, http.StatusForbidden, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
