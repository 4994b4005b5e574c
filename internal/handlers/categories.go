package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type categoryRequest struct {
	Name string `json:"name"`
}

// GetCategoriesHandler возвращает дерево категорий с итогами. Параметр search
// оставляет только работы, чьё имя или jobId содержит подстроку.
func (h *Handler) GetCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	writeJSON(w, http.StatusOK, h.Book.Search(search))
}

func (h *Handler) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.Book.AddCategory(req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !h.persist(w, r, func() error { return h.Store.SaveCategory(r.Context(), c) }) {
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) RenameCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.Book.RenameCategory(chi.URLParam(r, "categoryId"), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !h.persist(w, r, func() error { return h.Store.SaveCategory(r.Context(), c) }) {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "categoryId")
	if err := h.Book.RemoveCategory(id); err != nil {
		h.writeError(w, r, err)
		return
	}
	if !h.persist(w, r, func() error { return h.Store.DeleteCategory(r.Context(), id) }) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CategoryTotalHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "categoryId")
	total, err := h.Book.CategoryTotal(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categoryId": id, "total": total})
}
