package handlers

import (
	"net/http"

	"soq/internal/apperror"
	"soq/internal/estimate"
	"soq/models"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) CreateJobHandler(w http.ResponseWriter, r *http.Request) {
	var in models.JobInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	categoryID := chi.URLParam(r, "categoryId")
	j, err := h.Book.CreateJob(categoryID, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !h.persist(w, r, h.saveJobPlacement(r, j.ID, categoryID)) {
		return
	}
	writeJSON(w, http.StatusCreated, j)
}

func (h *Handler) GetJobHandler(w http.ResponseWriter, r *http.Request) {
	j, err := h.Book.Job(chi.URLParam(r, "jobId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (h *Handler) EditJobHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.JobPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondJob(w, r)(h.Book.UpdateJob(chi.URLParam(r, "jobId"), patch))
}

type jobStatusRequest struct {
	Status models.JobStatus `json:"status"`
}

// ChangeJobStatusHandler переводит работу между draft и ready.
func (h *Handler) ChangeJobStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req jobStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondJob(w, r)(h.Book.SetStatus(chi.URLParam(r, "jobId"), req.Status))
}

func (h *Handler) RecomputeJobHandler(w http.ResponseWriter, r *http.Request) {
	h.respondJob(w, r)(h.Book.RecomputeTotals(chi.URLParam(r, "jobId")))
}

type moveJobRequest struct {
	CategoryID string `json:"categoryId"`
}

func (h *Handler) MoveJobHandler(w http.ResponseWriter, r *http.Request) {
	var req moveJobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	jobID := chi.URLParam(r, "jobId")
	before, err := h.Book.Job(jobID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	j, err := h.Book.MoveJob(jobID, req.CategoryID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !h.persist(w, r, h.saveJobPlacement(r, jobID, j.CategoryID, before.CategoryID)) {
		return
	}
	writeJSON(w, http.StatusOK, j)
}

// DeleteJobHandler удаляет работу и ссылки на неё из черновых тендеров.
func (h *Handler) DeleteJobHandler(w http.ResponseWriter, r *http.Request) {
	removal, err := h.Book.DeleteJob(chi.URLParam(r, "jobId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !h.persist(w, r, func() error { return h.deleteJob(r, removal) }) {
		return
	}
	writeJSON(w, http.StatusOK, removal)
}

func (h *Handler) AddMaterialHandler(w http.ResponseWriter, r *http.Request) {
	var in models.MaterialInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	jobID := chi.URLParam(r, "jobId")
	item, err := h.Book.AddMaterialItem(jobID, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !h.persist(w, r, h.saveJob(r, jobID)) {
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) AddLaborHandler(w http.ResponseWriter, r *http.Request) {
	var in models.LaborInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	jobID := chi.URLParam(r, "jobId")
	item, err := h.Book.AddLaborItem(jobID, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !h.persist(w, r, h.saveJob(r, jobID)) {
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// EditItemHandler возвращает работу с пересчитанными итогами.
func (h *Handler) EditItemHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.ItemPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondJob(w, r)(h.Book.UpdateItem(chi.URLParam(r, "itemId"), patch))
}

func (h *Handler) DeleteItemHandler(w http.ResponseWriter, r *http.Request) {
	h.respondJob(w, r)(h.Book.RemoveItem(chi.URLParam(r, "itemId")))
}

type attachmentRequest struct {
	URL string `json:"url"`
}

// AddAttachmentHandler принимает URL, выданный файловым хранилищем хоста.
func (h *Handler) AddAttachmentHandler(w http.ResponseWriter, r *http.Request) {
	var req attachmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	itemID := chi.URLParam(r, "itemId")
	item, err := h.Book.RecordAttachment(itemID, req.URL)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jobID, err := h.Book.ItemJob(itemID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !h.persist(w, r, h.saveJob(r, jobID)) {
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) respondJob(w http.ResponseWriter, r *http.Request) func(models.Job, error) {
	return func(j models.Job, err error) {
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if !h.persist(w, r, h.saveJob(r, j.ID)) {
			return
		}
		writeJSON(w, http.StatusOK, j)
	}
}

// saveJob сохраняет текущее состояние работы из ядра, а не снимок, полученный
// обработчиком: при гонке двух правок в хранилище попадает последняя версия.
func (h *Handler) saveJob(r *http.Request, jobID string) func() error {
	return func() error {
		j, err := h.Book.Job(jobID)
		if apperror.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		return h.Store.SaveJob(r.Context(), j)
	}
}

// saveJobPlacement сохраняет работу вместе с категориями одной транзакцией.
func (h *Handler) saveJobPlacement(r *http.Request, jobID string, categoryIDs ...string) func() error {
	return func() error {
		j, err := h.Book.Job(jobID)
		if err != nil {
			return err
		}
		var categories []models.Category
		for _, cid := range categoryIDs {
			c, err := h.Book.Category(cid)
			if apperror.IsNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			categories = append(categories, c)
		}
		return h.Store.SaveJobPlacement(r.Context(), j, categories...)
	}
}

// deleteJob удаляет работу из хранилища вместе с изменёнными категорией и тендерами.
func (h *Handler) deleteJob(r *http.Request, removal estimate.Removal) error {
	var category *models.Category
	if c, err := h.Book.Category(removal.CategoryID); err == nil {
		category = &c
	}
	pruned := make([]models.Tender, 0, len(removal.TenderIDs))
	for _, tid := range removal.TenderIDs {
		t, err := h.Book.Tender(tid)
		if apperror.IsNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		pruned = append(pruned, t)
	}
	return h.Store.DeleteJob(r.Context(), removal.JobID, category, pruned)
}
