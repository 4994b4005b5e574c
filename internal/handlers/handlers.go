package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"soq/internal/apperror"
	"soq/internal/estimate"
	"soq/internal/logger"

	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// Handler связывает HTTP с ядром (Book) и хранилищем. Ядро проверяет
// инварианты, хранилище получает изменённые сущности после успешной операции.
type Handler struct {
	Book  *estimate.Book
	Store StorageInterface
	Log   *logrus.Logger
}

func NewHandler(book *estimate.Book, store StorageInterface) *Handler {
	return &Handler{Book: book, Store: store, Log: logger.Log}
}

// PingHandler отвечает "ok" для проверки сервера
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// currentUser id пользователя от провайдера идентификации хоста. Учётные
// данные здесь не проверяются.
func currentUser(r *http.Request) string {
	if user := strings.TrimSpace(r.Header.Get("X-User-ID")); user != "" {
		return user
	}
	return strings.TrimSpace(r.URL.Query().Get("username"))
}

// decodeJSON читает тело запроса с ограничением размера, чтобы избежать DoS.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return apperror.Validation("failed to read request body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperror.Validation("invalid JSON format: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Code    apperror.ErrorCode `json:"code"`
	Message string             `json:"message"`
	State   string             `json:"state,omitempty"`
	Event   string             `json:"event,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.HTTPStatus(err)
	resp := errorResponse{Code: apperror.CodeOf(err), Message: err.Error()}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message
		resp.State = appErr.State
		resp.Event = appErr.Event
	}
	if status == http.StatusInternalServerError {
		h.Log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		// причину ошибки клиенту не отдаём
		if resp.Code != apperror.ErrCodeDatabase {
			resp.Code = apperror.ErrCodeInternal
			resp.Message = "internal error"
		}
	}
	writeJSON(w, status, resp)
}

// persist сохраняет изменения после успешной операции ядра.
func (h *Handler) persist(w http.ResponseWriter, r *http.Request, steps ...func() error) bool {
	for _, step := range steps {
		if err := step(); err != nil {
			h.writeError(w, r, apperror.Wrap(err, apperror.ErrCodeDatabase, "failed to persist change"))
			return false
		}
	}
	return true
}
