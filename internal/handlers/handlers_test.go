package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"soq/internal/apperror"
	"soq/internal/estimate"
	"soq/internal/handlers"
	"soq/internal/handlers/testutils"
	"soq/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	windowStart = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	windowEnd   = windowStart.Add(14 * 24 * time.Hour)
)

// MockStorage реализует StorageInterface и запоминает сохранённые сущности.
// Как и db.Storage, не принимает запись с версией не новее сохранённой.
type MockStorage struct {
	mu         sync.Mutex
	categories map[string]models.Category
	jobs       map[string]models.Job
	tenders    map[string]models.Tender
	history    map[string]models.Tender
	proposals  map[string]models.BidderProposal
	deleted    []string
	saveErr    error
	// gate, если задан, вызывается перед каждым SaveJob вне блокировки
	gate func(j models.Job)
}

func newMockStorage() *MockStorage {
	return &MockStorage{
		categories: map[string]models.Category{},
		jobs:       map[string]models.Job{},
		tenders:    map[string]models.Tender{},
		history:    map[string]models.Tender{},
		proposals:  map[string]models.BidderProposal{},
	}
}

func (m *MockStorage) SaveCategory(ctx context.Context, c models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.putCategory(c)
	return nil
}

func (m *MockStorage) putCategory(c models.Category) {
	if prev, ok := m.categories[c.ID]; !ok || prev.Version < c.Version {
		m.categories[c.ID] = c
	}
}

func (m *MockStorage) DeleteCategory(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.categories, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *MockStorage) SaveJob(ctx context.Context, j models.Job) error {
	if m.gate != nil {
		m.gate(j)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.putJob(j)
	return nil
}

func (m *MockStorage) putJob(j models.Job) {
	if prev, ok := m.jobs[j.ID]; !ok || prev.Version < j.Version {
		m.jobs[j.ID] = j
	}
}

func (m *MockStorage) SaveJobPlacement(ctx context.Context, j models.Job, categories ...models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	for _, c := range categories {
		m.putCategory(c)
	}
	m.putJob(j)
	return nil
}

func (m *MockStorage) DeleteJob(ctx context.Context, id string, category *models.Category, pruned []models.Tender) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if category != nil {
		m.putCategory(*category)
	}
	for _, t := range pruned {
		m.putTender(t)
	}
	delete(m.jobs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *MockStorage) SaveTender(ctx context.Context, t models.Tender) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.putTender(t)
	return nil
}

func (m *MockStorage) putTender(t models.Tender) {
	if prev, ok := m.tenders[t.ID]; !ok || prev.Version < t.Version {
		m.tenders[t.ID] = t
	}
	key := fmt.Sprintf("%s@%d", t.ID, t.Version)
	if _, ok := m.history[key]; !ok {
		m.history[key] = t
	}
}

func (m *MockStorage) DeleteTender(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tenders, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *MockStorage) GetTenderVersion(ctx context.Context, tenderID string, version int) (*models.Tender, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.history[fmt.Sprintf("%s@%d", tenderID, version)]
	if !ok {
		return nil, apperror.NotFound("tender version", tenderID)
	}
	return &t, nil
}

func (m *MockStorage) SaveProposal(ctx context.Context, p models.BidderProposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if prev, ok := m.proposals[p.ID]; !ok || prev.Version < p.Version {
		m.proposals[p.ID] = p
	}
	return nil
}

func newHandler(t *testing.T) (*handlers.Handler, *MockStorage) {
	t.Helper()
	seq := 0
	book := estimate.NewBook(
		estimate.WithClock(func() time.Time { return windowStart.Add(time.Hour) }),
		estimate.WithIDGenerator(func() string { seq++; return fmt.Sprintf("id-%d", seq) }),
	)
	store := newMockStorage()
	return handlers.NewHandler(book, store), store
}

func do(t *testing.T, fn http.HandlerFunc, method, target, body string, params map[string]string) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "owner")
	if params != nil {
		req = testutils.WithChiURLParams(req, params)
	}
	w := httptest.NewRecorder()
	fn(w, req)

	res := w.Result()
	t.Cleanup(func() { res.Body.Close() })
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(data)
}

func decimalOf(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

func decode[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

// seedJob создаёт категорию и работу с одной позицией: 10 шт по 5.
func seedJob(t *testing.T, h *handlers.Handler) (models.Category, models.Job, models.MaterialItem) {
	t.Helper()
	c, err := h.Book.AddCategory("Vendors")
	require.NoError(t, err)
	j, err := h.Book.CreateJob(c.ID, models.JobInput{JobID: "J1", Name: "Fence"})
	require.NoError(t, err)
	m, err := h.Book.AddMaterialItem(j.ID, models.MaterialInput{
		Description: "Post", Unit: "pcs",
		EstimatedQuantity: decimalOf(t, "10"), UnitRate: decimalOf(t, "5"),
	})
	require.NoError(t, err)
	j, err = h.Book.Job(j.ID)
	require.NoError(t, err)
	return c, j, m
}

func tenderBody(jobIDs ...string) string {
	ids, _ := json.Marshal(jobIDs)
	return fmt.Sprintf(`{"name":"Perimeter","startTime":%q,"endTime":%q,"jobIds":%s}`,
		windowStart.Format(time.RFC3339), windowEnd.Format(time.RFC3339), ids)
}

func TestPingHandler(t *testing.T) {
	h, _ := newHandler(t)
	res, body := do(t, h.PingHandler, http.MethodGet, "/api/ping", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "ok", body)
}

func TestCreateCategoryHandler(t *testing.T) {
	h, store := newHandler(t)

	res, body := do(t, h.CreateCategoryHandler, http.MethodPost, "/api/categories", `{"name":"Vendors"}`, nil)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	c := decode[models.Category](t, body)
	require.Equal(t, "Vendors", c.Name)
	require.Contains(t, store.categories, c.ID)

	res, body = do(t, h.CreateCategoryHandler, http.MethodPost, "/api/categories", `{"name":""}`, nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Contains(t, body, "VALIDATION_ERROR")

	res, _ = do(t, h.CreateCategoryHandler, http.MethodPost, "/api/categories", `{`, nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestDeleteNonEmptyCategoryHandler(t *testing.T) {
	h, _ := newHandler(t)
	c, _, _ := seedJob(t, h)

	res, body := do(t, h.DeleteCategoryHandler, http.MethodDelete, "/api/categories/"+c.ID, "", map[string]string{"categoryId": c.ID})
	require.Equal(t, http.StatusConflict, res.StatusCode)
	require.Contains(t, body, "CONFLICT")
}

func TestGetCategoriesHandlerFilters(t *testing.T) {
	h, _ := newHandler(t)
	c, _, _ := seedJob(t, h)
	_, err := h.Book.CreateJob(c.ID, models.JobInput{JobID: "J2", Name: "Gate"})
	require.NoError(t, err)

	res, body := do(t, h.GetCategoriesHandler, http.MethodGet, "/api/categories?search=gat", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	views := decode[[]models.CategoryView](t, body)
	require.Len(t, views, 1)
	require.Len(t, views[0].Jobs, 1)
	require.Equal(t, "Gate", views[0].Jobs[0].Name)

	res, body = do(t, h.GetCategoriesHandler, http.MethodGet, "/api/categories?search=nothing", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.JSONEq(t, `[]`, body)
}

func TestEditItemHandlerRecomputesAndPersists(t *testing.T) {
	h, store := newHandler(t)
	_, j, m := seedJob(t, h)

	res, body := do(t, h.EditItemHandler, http.MethodPatch, "/api/items/"+m.ID, `{"bidderQuantity":"12"}`, map[string]string{"itemId": m.ID})
	require.Equal(t, http.StatusOK, res.StatusCode)
	got := decode[models.Job](t, body)
	require.Equal(t, "60", got.TotalCost.String())
	require.Equal(t, "60", store.jobs[j.ID].TotalCost.String())

	res, body = do(t, h.EditItemHandler, http.MethodPatch, "/api/items/"+m.ID, `{"unitRate":"-1"}`, map[string]string{"itemId": m.ID})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Contains(t, body, "unitRate")

	after, err := h.Book.Job(j.ID)
	require.NoError(t, err)
	require.Equal(t, "60", after.TotalCost.String())
}

func TestAddMaterialHandlerPersistsJob(t *testing.T) {
	h, store := newHandler(t)
	_, j, _ := seedJob(t, h)

	res, _ := do(t, h.AddMaterialHandler, http.MethodPost, "/api/jobs/"+j.ID+"/materials",
		`{"description":"Rail","unit":"m","estimatedQuantity":"4","unitRate":"2.5"}`, map[string]string{"jobId": j.ID})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.Equal(t, "60", store.jobs[j.ID].TotalCost.String())
	require.Len(t, store.jobs[j.ID].Materials, 2)
}

func TestMoveJobHandler(t *testing.T) {
	h, store := newHandler(t)
	src, j, _ := seedJob(t, h)
	dst, err := h.Book.AddCategory("Civil")
	require.NoError(t, err)

	res, _ := do(t, h.MoveJobHandler, http.MethodPut, "/api/jobs/"+j.ID+"/move",
		fmt.Sprintf(`{"categoryId":%q}`, dst.ID), map[string]string{"jobId": j.ID})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Empty(t, store.categories[src.ID].JobIDs)
	require.Equal(t, []string{j.ID}, store.categories[dst.ID].JobIDs)
	require.Equal(t, dst.ID, store.jobs[j.ID].CategoryID)

	res, body := do(t, h.MoveJobHandler, http.MethodPut, "/api/jobs/"+j.ID+"/move",
		`{"categoryId":"missing"}`, map[string]string{"jobId": j.ID})
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	require.Contains(t, body, "NOT_FOUND")
}

func TestTenderLifecycleHandlers(t *testing.T) {
	h, store := newHandler(t)
	_, j, m := seedJob(t, h)

	res, body := do(t, h.CreateTenderHandler, http.MethodPost, "/api/tenders/new", tenderBody(j.ID), nil)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	tender := decode[models.Tender](t, body)
	require.Equal(t, models.TenderDraft, tender.Status)
	require.Equal(t, "owner", tender.CreatedBy)
	require.Contains(t, store.tenders, tender.ID)
	params := map[string]string{"tenderId": tender.ID}

	res, body = do(t, h.ChangeTenderStatusHandler, http.MethodPut, "/api/tenders/x/status", `{"event":"award","bidderName":"Acme"}`, params)
	require.Equal(t, http.StatusConflict, res.StatusCode)
	require.Contains(t, body, `"state":"draft"`)
	require.Contains(t, body, `"event":"award"`)

	res, _ = do(t, h.ChangeTenderStatusHandler, http.MethodPut, "/api/tenders/x/status", `{"event":"submit"}`, params)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, models.TenderSubmitted, store.tenders[tender.ID].Status)

	proposal := fmt.Sprintf(`{"bidderName":"Acme","estimatedCost":"60","estimatedDuration":5,
		"items":[{"itemId":%q,"kind":"material","quantity":"12","rate":"5"}]}`, m.ID)
	res, _ = do(t, h.CreateBidHandler, http.MethodPost, "/api/tenders/x/bids", proposal, params)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.Len(t, store.proposals, 1)

	res, body = do(t, h.GetComparisonHandler, http.MethodGet, "/api/tenders/x/comparison", "", params)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, `"costVariance":"10"`)
	require.Contains(t, body, `"costVariancePct":"0.2"`)

	res, _ = do(t, h.ChangeTenderStatusHandler, http.MethodPut, "/api/tenders/x/status", `{"event":"award","bidderName":"Acme"}`, params)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "Acme", store.tenders[tender.ID].AwardedTo)

	res, body = do(t, h.SetPrivacyHandler, http.MethodPut, "/api/tenders/x/privacy", `{"privacy":"private"}`, params)
	require.Equal(t, http.StatusLocked, res.StatusCode)
	require.Contains(t, body, "FROZEN_STATE")

	res, _ = do(t, h.ChangeTenderStatusHandler, http.MethodPut, "/api/tenders/x/status", `{"event":"reopen"}`, params)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestSubmitEmptyTenderHandler(t *testing.T) {
	h, _ := newHandler(t)

	res, body := do(t, h.CreateTenderHandler, http.MethodPost, "/api/tenders/new", tenderBody(), nil)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	tender := decode[models.Tender](t, body)

	res, body = do(t, h.ChangeTenderStatusHandler, http.MethodPut, "/api/tenders/x/status", `{"event":"submit"}`,
		map[string]string{"tenderId": tender.ID})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Contains(t, body, "VALIDATION_ERROR")
}

func TestCreateTenderUnknownJobHandler(t *testing.T) {
	h, store := newHandler(t)

	res, _ := do(t, h.CreateTenderHandler, http.MethodPost, "/api/tenders/new", tenderBody("missing"), nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	require.Empty(t, store.tenders)
}

func TestGetTendersHandlerHidesForeignPrivateTenders(t *testing.T) {
	h, _ := newHandler(t)
	_, j, _ := seedJob(t, h)

	_, err := h.Book.CreateTender(models.TenderInput{Name: "Open", StartTime: windowStart, EndTime: windowEnd}, []string{j.ID}, "someone")
	require.NoError(t, err)
	_, err = h.Book.CreateTender(models.TenderInput{
		Name: "Invite only", Privacy: models.PrivacyPrivate, StartTime: windowStart, EndTime: windowEnd,
	}, []string{j.ID}, "someone")
	require.NoError(t, err)
	_, err = h.Book.CreateTender(models.TenderInput{
		Name: "Mine", Privacy: models.PrivacyPrivate, StartTime: windowStart, EndTime: windowEnd,
	}, []string{j.ID}, "owner")
	require.NoError(t, err)

	res, body := do(t, h.GetTendersHandler, http.MethodGet, "/api/tenders", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	list := decode[[]models.Tender](t, body)
	require.Len(t, list, 2)
	require.Equal(t, "Open", list[0].Name)
	require.Equal(t, "Mine", list[1].Name)

	res, body = do(t, h.GetUserTendersHandler, http.MethodGet, "/api/tenders/my?limit=1", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, decode[[]models.Tender](t, body), 1)

	res, _ = do(t, h.GetTendersHandler, http.MethodGet, "/api/tenders?status=closed", "", nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestDeleteJobHandlerPrunesDraftTender(t *testing.T) {
	h, store := newHandler(t)
	_, j, _ := seedJob(t, h)
	tender, err := h.Book.CreateTender(models.TenderInput{Name: "T", StartTime: windowStart, EndTime: windowEnd}, []string{j.ID}, "owner")
	require.NoError(t, err)

	res, body := do(t, h.DeleteJobHandler, http.MethodDelete, "/api/jobs/"+j.ID, "", map[string]string{"jobId": j.ID})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, tender.ID)
	require.Contains(t, store.deleted, j.ID)

	after, err := h.Book.Tender(tender.ID)
	require.NoError(t, err)
	require.Empty(t, after.JobIDs)
	require.Equal(t, tender.Version+1, after.Version)
	require.Equal(t, after.Version, store.tenders[tender.ID].Version)
	require.Empty(t, store.categories[j.CategoryID].JobIDs)

	res, body = do(t, h.GetTenderVersionHandler, http.MethodGet, "/api/tenders/x/versions/2", "",
		map[string]string{"tenderId": tender.ID, "version": "2"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Empty(t, decode[models.Tender](t, body).JobIDs)
}

func TestPersistFailureIsDatabaseError(t *testing.T) {
	h, store := newHandler(t)
	store.saveErr = errors.New("connection refused")

	res, body := do(t, h.CreateCategoryHandler, http.MethodPost, "/api/categories", `{"name":"Vendors"}`, nil)
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
	require.Contains(t, body, "DATABASE_ERROR")
	require.Contains(t, body, "failed to persist change")
	require.NotContains(t, body, "connection refused")
}

func TestExportComparisonHandlers(t *testing.T) {
	h, _ := newHandler(t)
	_, j, m := seedJob(t, h)
	tender, err := h.Book.CreateTender(models.TenderInput{Name: "T", StartTime: windowStart, EndTime: windowEnd}, []string{j.ID}, "owner")
	require.NoError(t, err)
	params := map[string]string{"tenderId": tender.ID}

	res, _ := do(t, h.ExportComparisonPDFHandler, http.MethodGet, "/api/tenders/x/comparison.pdf", "", params)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	_, err = h.Book.Submit(tender.ID)
	require.NoError(t, err)
	_, err = h.Book.SubmitProposal(tender.ID, models.ProposalInput{
		BidderName: "Acme",
		Items: []models.ProposalItem{{
			ItemID: m.ID, Kind: models.KindMaterial, Quantity: decimalOf(t, "12"), Rate: decimalOf(t, "5"),
		}},
	}, "bidder")
	require.NoError(t, err)

	res, body := do(t, h.ExportComparisonPDFHandler, http.MethodGet, "/api/tenders/x/comparison.pdf", "", params)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "application/pdf", res.Header.Get("Content-Type"))
	require.True(t, strings.HasPrefix(body, "%PDF-"))

	res, body = do(t, h.ExportComparisonXLSXHandler, http.MethodGet, "/api/tenders/x/comparison.xlsx", "", params)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.True(t, strings.HasPrefix(body, "PK"))
}

func TestGetTenderVersionHandler(t *testing.T) {
	h, _ := newHandler(t)

	res, _ := do(t, h.GetTenderVersionHandler, http.MethodGet, "/api/tenders/x/versions/abc", "",
		map[string]string{"tenderId": "x", "version": "abc"})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestConcurrentItemEditsStoreLatestJob(t *testing.T) {
	h, store := newHandler(t)
	_, j, m1 := seedJob(t, h)
	m2, err := h.Book.AddMaterialItem(j.ID, models.MaterialInput{
		Description: "Rail", Unit: "m", EstimatedQuantity: decimalOf(t, "4"), UnitRate: decimalOf(t, "2"),
	})
	require.NoError(t, err)

	// первая запись в хранилище ждёт, пока вторая правка не сохранится
	first := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store.gate = func(models.Job) {
		blocked := false
		once.Do(func() {
			blocked = true
			close(first)
		})
		if blocked {
			<-release
		}
	}

	slow := make(chan int, 1)
	go func() {
		req := httptest.NewRequest(http.MethodPatch, "/api/items/"+m1.ID, strings.NewReader(`{"estimatedQuantity":"12"}`))
		req = testutils.WithChiURLParams(req, map[string]string{"itemId": m1.ID})
		w := httptest.NewRecorder()
		h.EditItemHandler(w, req)
		slow <- w.Code
	}()
	<-first

	res, _ := do(t, h.EditItemHandler, http.MethodPatch, "/api/items/"+m2.ID, `{"estimatedQuantity":"9"}`,
		map[string]string{"itemId": m2.ID})
	require.Equal(t, http.StatusOK, res.StatusCode)
	close(release)
	require.Equal(t, http.StatusOK, <-slow)

	got, err := h.Book.Job(j.ID)
	require.NoError(t, err)
	require.Equal(t, "78", got.TotalCost.String())
	require.Equal(t, got.Version, store.jobs[j.ID].Version)
	require.Equal(t, "78", store.jobs[j.ID].TotalCost.String())
}

func TestMoveJobHandlerPersistFailureKeepsStoredPlacement(t *testing.T) {
	h, store := newHandler(t)
	src, j, _ := seedJob(t, h)
	dst, err := h.Book.AddCategory("Civil")
	require.NoError(t, err)
	src, err = h.Book.Category(src.ID)
	require.NoError(t, err)
	require.NoError(t, store.SaveJobPlacement(context.Background(), j, src, dst))

	store.saveErr = errors.New("connection reset")
	res, body := do(t, h.MoveJobHandler, http.MethodPut, "/api/jobs/"+j.ID+"/move",
		fmt.Sprintf(`{"categoryId":%q}`, dst.ID), map[string]string{"jobId": j.ID})
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
	require.Contains(t, body, "DATABASE_ERROR")
	require.Equal(t, []string{j.ID}, store.categories[src.ID].JobIDs)
	require.Empty(t, store.categories[dst.ID].JobIDs)
	require.Equal(t, src.ID, store.jobs[j.ID].CategoryID)

	// следующее успешное сохранение догоняет ядро
	store.saveErr = nil
	res, _ = do(t, h.MoveJobHandler, http.MethodPut, "/api/jobs/"+j.ID+"/move",
		fmt.Sprintf(`{"categoryId":%q}`, src.ID), map[string]string{"jobId": j.ID})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, []string{j.ID}, store.categories[src.ID].JobIDs)
	require.Empty(t, store.categories[dst.ID].JobIDs)
	moved, err := h.Book.Job(j.ID)
	require.NoError(t, err)
	require.Equal(t, moved.Version, store.jobs[j.ID].Version)
}
