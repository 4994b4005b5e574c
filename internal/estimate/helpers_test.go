package estimate_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"soq/internal/estimate"
	"soq/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	windowStart = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	windowEnd   = windowStart.Add(14 * 24 * time.Hour)
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

type fixture struct {
	book  *estimate.Book
	clock *fakeClock
	sent  *recorder
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type recorder struct {
	mu    sync.Mutex
	items []models.Notification
}

func (r *recorder) Notify(n models.Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

func (r *recorder) Kinds() []models.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.NotificationKind, len(r.items))
	for i, n := range r.items {
		out[i] = n.Kind
	}
	return out
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	var seq atomic.Int64
	clock := &fakeClock{now: windowStart.Add(time.Hour)}
	sent := &recorder{}
	book := estimate.NewBook(
		estimate.WithClock(clock.Now),
		estimate.WithIDGenerator(func() string { return fmt.Sprintf("id-%d", seq.Add(1)) }),
		estimate.WithNotifier(sent),
	)
	return &fixture{book: book, clock: clock, sent: sent}
}

func (f *fixture) category(t *testing.T, name string) models.Category {
	t.Helper()
	c, err := f.book.AddCategory(name)
	require.NoError(t, err)
	return c
}

func (f *fixture) job(t *testing.T, categoryID, jobID, name string) models.Job {
	t.Helper()
	j, err := f.book.CreateJob(categoryID, models.JobInput{JobID: jobID, Name: name})
	require.NoError(t, err)
	return j
}

func (f *fixture) material(t *testing.T, jobID, qty, rate string) models.MaterialItem {
	t.Helper()
	m, err := f.book.AddMaterialItem(jobID, models.MaterialInput{
		Description: "Material " + qty, Unit: "pcs", EstimatedQuantity: d(qty), UnitRate: d(rate),
	})
	require.NoError(t, err)
	return m
}

func (f *fixture) tender(t *testing.T, jobIDs ...string) models.Tender {
	t.Helper()
	tender, err := f.book.CreateTender(models.TenderInput{
		Name: "Tender", StartTime: windowStart, EndTime: windowEnd,
	}, jobIDs, "owner")
	require.NoError(t, err)
	return tender
}

// requireTotals проверяет инвариант TotalCost == сумма итогов позиций.
func requireTotals(t *testing.T, j models.Job) {
	t.Helper()
	sum := decimal.Zero
	for _, m := range j.Materials {
		sum = sum.Add(m.TotalCost)
	}
	for _, l := range j.Labor {
		sum = sum.Add(l.TotalCost)
	}
	require.True(t, j.TotalCost.Equal(sum), "total %s != sum %s", j.TotalCost, sum)
}
