package scheduler_test

import (
	"testing"
	"time"

	"soq/internal/estimate"
	"soq/internal/scheduler"
	"soq/models"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	calls [][2]time.Time
}

func (f *fakeSource) WindowNotifications(from, to time.Time) []models.Notification {
	f.calls = append(f.calls, [2]time.Time{from, to})
	return []models.Notification{{Kind: models.NotifyTenderWindowOpened, TenderID: "t1"}}
}

func TestSweepCoversEachIntervalOnce(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	now := base
	src := &fakeSource{}
	var sent []models.Notification
	s := scheduler.NewWindowSweeper(src, estimate.NotifierFunc(func(n models.Notification) {
		sent = append(sent, n)
	}), func() time.Time { return now })

	require.Zero(t, s.Sweep())

	now = base.Add(time.Minute)
	require.Equal(t, 1, s.Sweep())
	now = base.Add(2 * time.Minute)
	require.Equal(t, 1, s.Sweep())

	require.Len(t, sent, 2)
	require.Equal(t, [2]time.Time{base, base.Add(time.Minute)}, src.calls[0])
	require.Equal(t, [2]time.Time{base.Add(time.Minute), base.Add(2 * time.Minute)}, src.calls[1])
}

func TestStartRejectsBadSpec(t *testing.T) {
	log, _ := test.NewNullLogger()
	s := scheduler.NewWindowSweeper(&fakeSource{}, estimate.NotifierFunc(func(models.Notification) {}), nil)

	_, err := scheduler.Start("not a spec", s, log)
	require.Error(t, err)

	c, err := scheduler.Start("@every 1h", s, log)
	require.NoError(t, err)
	<-c.Stop().Done()
}
