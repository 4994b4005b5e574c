package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"soq/internal/export"
	"soq/models"

	"github.com/go-chi/chi/v5"
)

// CreateBidHandler записывает предложение подрядчика по тендеру.
func (h *Handler) CreateBidHandler(w http.ResponseWriter, r *http.Request) {
	var in models.ProposalInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.Book.SubmitProposal(chi.URLParam(r, "tenderId"), in, currentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !h.persist(w, r, func() error { return h.Store.SaveProposal(r.Context(), p) }) {
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetBidsForTenderHandler(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Book.Proposals(chi.URLParam(r, "tenderId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

// EditBidHandler заменяет котировки подрядчика, пока тендер открыт.
func (h *Handler) EditBidHandler(w http.ResponseWriter, r *http.Request) {
	var in models.ProposalInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.Book.ReviseProposal(chi.URLParam(r, "tenderId"), chi.URLParam(r, "bidderName"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !h.persist(w, r, func() error { return h.Store.SaveProposal(r.Context(), p) }) {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetComparisonHandler ранжирует предложения относительно сметы заказчика.
func (h *Handler) GetComparisonHandler(w http.ResponseWriter, r *http.Request) {
	res, err := h.Book.CompareBids(chi.URLParam(r, "tenderId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) ExportComparisonXLSXHandler(w http.ResponseWriter, r *http.Request) {
	tenderID := chi.URLParam(r, "tenderId")
	res, err := h.Book.CompareBids(tenderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	f, err := export.Workbook(res)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="comparison-%s.xlsx"`, tenderID))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) ExportComparisonPDFHandler(w http.ResponseWriter, r *http.Request) {
	tenderID := chi.URLParam(r, "tenderId")
	res, err := h.Book.CompareBids(tenderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.SummaryPDF(res, &buf); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="comparison-%s.pdf"`, tenderID))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
