package handlers

import (
	"net/http"
	"strconv"
	"time"

	"soq/internal/apperror"
	"soq/models"

	"github.com/go-chi/chi/v5"
)

type PaginationParams struct {
	Limit  int
	Offset int
}

// parsePaginationParams парсит limit и offset из query, с дефолтами и ограничениями
func parsePaginationParams(r *http.Request) PaginationParams {
	params := PaginationParams{Limit: 5}

	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 50 {
		params.Limit = l
	}
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o >= 0 {
		params.Offset = o
	}
	return params
}

func paginate(ts []models.Tender, p PaginationParams) []models.Tender {
	if p.Offset >= len(ts) {
		return []models.Tender{}
	}
	end := p.Offset + p.Limit
	if end > len(ts) {
		end = len(ts)
	}
	return ts[p.Offset:end]
}

// GetTendersHandler возвращает публичные тендеры и приватные тендеры текущего
// пользователя. Фильтр status может повторяться.
func (h *Handler) GetTendersHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)
	user := currentUser(r)

	statuses := map[models.TenderStatus]bool{}
	for _, v := range r.URL.Query()["status"] {
		s := models.TenderStatus(v)
		if !s.IsValid() {
			h.writeError(w, r, apperror.Validation("invalid status filter %q", v))
			return
		}
		statuses[s] = true
	}

	var out []models.Tender
	for _, t := range h.Book.Tenders() {
		if t.Privacy == models.PrivacyPrivate && (user == "" || t.CreatedBy != user) {
			continue
		}
		if len(statuses) > 0 && !statuses[t.Status] {
			continue
		}
		out = append(out, t)
	}
	writeJSON(w, http.StatusOK, paginate(out, params))
}

// GetUserTendersHandler возвращает тендеры, созданные текущим пользователем
func (h *Handler) GetUserTendersHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)
	user := currentUser(r)
	if user == "" {
		h.writeError(w, r, apperror.Validation("missing user id"))
		return
	}

	var out []models.Tender
	for _, t := range h.Book.Tenders() {
		if t.CreatedBy == user {
			out = append(out, t)
		}
	}
	writeJSON(w, http.StatusOK, paginate(out, params))
}

type createTenderRequest struct {
	models.TenderInput
	JobIDs []string `json:"jobIds"`
}

// CreateTenderHandler обрабатывает POST /api/tenders/new
func (h *Handler) CreateTenderHandler(w http.ResponseWriter, r *http.Request) {
	var req createTenderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := h.Book.CreateTender(req.TenderInput, req.JobIDs, currentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !h.persist(w, r, func() error { return h.Store.SaveTender(r.Context(), t) }) {
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) GetTenderHandler(w http.ResponseWriter, r *http.Request) {
	t, err := h.Book.Tender(chi.URLParam(r, "tenderId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteTenderHandler удаляет только черновики.
func (h *Handler) DeleteTenderHandler(w http.ResponseWriter, r *http.Request) {
	tenderID := chi.URLParam(r, "tenderId")
	if err := h.Book.DeleteTender(tenderID); err != nil {
		h.writeError(w, r, err)
		return
	}
	if !h.persist(w, r, func() error { return h.Store.DeleteTender(r.Context(), tenderID) }) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tenderJobRequest struct {
	JobID string `json:"jobId"`
}

func (h *Handler) AddTenderJobHandler(w http.ResponseWriter, r *http.Request) {
	var req tenderJobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := h.Book.AddJobToTender(chi.URLParam(r, "tenderId"), req.JobID)
	h.respondTender(w, r, t, err)
}

func (h *Handler) RemoveTenderJobHandler(w http.ResponseWriter, r *http.Request) {
	t, err := h.Book.RemoveJobFromTender(chi.URLParam(r, "tenderId"), chi.URLParam(r, "jobId"))
	h.respondTender(w, r, t, err)
}

type privacyRequest struct {
	Privacy models.TenderPrivacy `json:"privacy"`
}

func (h *Handler) SetPrivacyHandler(w http.ResponseWriter, r *http.Request) {
	var req privacyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := h.Book.SetPrivacy(chi.URLParam(r, "tenderId"), req.Privacy)
	h.respondTender(w, r, t, err)
}

type scheduleRequest struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

func (h *Handler) RescheduleTenderHandler(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := h.Book.Reschedule(chi.URLParam(r, "tenderId"), req.StartTime, req.EndTime)
	h.respondTender(w, r, t, err)
}

type tenderStatusRequest struct {
	Event      models.TenderEvent `json:"event"`
	BidderName string             `json:"bidderName"`
}

// ChangeTenderStatusHandler применяет событие жизненного цикла: submit, withdraw или award.
func (h *Handler) ChangeTenderStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req tenderStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	tenderID := chi.URLParam(r, "tenderId")

	var (
		t   models.Tender
		err error
	)
	switch req.Event {
	case models.EventSubmit:
		t, err = h.Book.Submit(tenderID)
	case models.EventWithdraw:
		t, err = h.Book.Withdraw(tenderID)
	case models.EventAward:
		t, err = h.Book.Award(tenderID, req.BidderName)
	default:
		err = apperror.Validation("unknown event %q", req.Event)
	}
	h.respondTender(w, r, t, err)
}

// GetTenderVersionHandler возвращает сохранённую версию тендера из истории.
func (h *Handler) GetTenderVersionHandler(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || version <= 0 {
		h.writeError(w, r, apperror.Validation("invalid version"))
		return
	}
	t, err := h.Store.GetTenderVersion(r.Context(), chi.URLParam(r, "tenderId"), version)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) respondTender(w http.ResponseWriter, r *http.Request, t models.Tender, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !h.persist(w, r, func() error { return h.Store.SaveTender(r.Context(), t) }) {
		return
	}
	writeJSON(w, http.StatusOK, t)
}
