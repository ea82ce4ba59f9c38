// Package roulette — handlers.go обрабатывает HTTP-запросы мини-приложения:
// POST /roulette/get-token и POST /roulette/start.
package roulette

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/gift-roulette/internal/common"
	"serotonyl.ru/gift-roulette/internal/telegram/initdata"
)

// maxBodyBytes — тело /roulette/start маленькое, больше не читаем.
const maxBodyBytes = 4 << 10

// Handler обрабатывает запросы рулетки.
type Handler struct {
	service *Service
}

// NewHandler создаёт обработчик рулетки.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleGetToken выдаёт одноразовый токен.
//
// Ответ: {"success": true, "token": "..."}
func (h *Handler) HandleGetToken(w http.ResponseWriter, r *http.Request) {
	raw := initdata.FromAuthorizationHeader(r.Header.Get("Authorization"))

	token, err := h.service.IssueToken(r.Context(), raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
	})
}

// HandleStart открывает кейс.
//
// Тело: {"caseType": "swiss", "token": "..."}
// Ответ: {"success": true, "idGiftNumber": 42, "giftNumber": "5170233102089322756"}
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, common.ErrValidation)
		return
	}

	raw := initdata.FromAuthorizationHeader(r.Header.Get("Authorization"))

	result, err := h.service.Start(r.Context(), req, raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"idGiftNumber": result.IDGiftNumber,
		"giftNumber":   result.GiftNumber,
	})
}

// apiError — HTTP-статус, стабильный код и сообщение для клиента.
type apiError struct {
	status  int
	code    string
	message error
}

// classify сопоставляет ошибку сервиса с ответом. Неизвестные ошибки — 500.
func classify(err error) apiError {
	switch {
	case errors.Is(err, common.ErrValidation):
		return apiError{http.StatusBadRequest, "validation_error", common.ErrValidation}
	case errors.Is(err, common.ErrUnknownCase):
		return apiError{http.StatusBadRequest, "unknown_case", common.ErrUnknownCase}
	case errors.Is(err, common.ErrAuthRequired):
		return apiError{http.StatusUnauthorized, "auth_required", common.ErrAuthRequired}
	case errors.Is(err, common.ErrStaleAuth):
		return apiError{http.StatusForbidden, "stale_auth", common.ErrStaleAuth}
	case errors.Is(err, common.ErrAuth):
		return apiError{http.StatusForbidden, "auth_error", common.ErrAuth}
	case errors.Is(err, common.ErrToken):
		return apiError{http.StatusForbidden, "token_error", common.ErrToken}
	case errors.Is(err, common.ErrInsufficientBalance):
		return apiError{http.StatusForbidden, "insufficient_balance", common.ErrInsufficientBalance}
	case errors.Is(err, common.ErrUserNotFound):
		return apiError{http.StatusNotFound, "user_not_found", common.ErrUserNotFound}
	default:
		return apiError{http.StatusInternalServerError, "internal_error", common.ErrInternal}
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := classify(err)

	entry := log.WithFields(log.Fields{
		"path":   r.URL.Path,
		"status": e.status,
		"code":   e.code,
	}).WithError(err)
	if e.status >= http.StatusInternalServerError {
		entry.Error("Ошибка обработки запроса рулетки")
	} else {
		entry.Debug("Запрос рулетки отклонён")
	}

	writeJSON(w, e.status, map[string]any{
		"success": false,
		"code":    e.code,
		"error":   e.message.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("Ошибка записи ответа")
	}
}
