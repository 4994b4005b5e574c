// Package scheduler периодически проверяет окна приёма предложений и
// рассылает уведомления об их открытии и закрытии.
package scheduler

import (
	"sync"
	"time"

	"soq/internal/estimate"
	"soq/models"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type windowSource interface {
	WindowNotifications(from, to time.Time) []models.Notification
}

// WindowSweeper помнит момент прошлой проверки, поэтому каждая граница окна
// уведомляется один раз.
type WindowSweeper struct {
	mu       sync.Mutex
	source   windowSource
	notifier estimate.Notifier
	now      func() time.Time
	last     time.Time
}

func NewWindowSweeper(source windowSource, notifier estimate.Notifier, now func() time.Time) *WindowSweeper {
	if now == nil {
		now = time.Now
	}
	return &WindowSweeper{source: source, notifier: notifier, now: now, last: now()}
}

// Sweep отправляет уведомления за интервал с прошлой проверки и возвращает их число.
func (s *WindowSweeper) Sweep() int {
	s.mu.Lock()
	from, to := s.last, s.now()
	if !to.After(from) {
		s.mu.Unlock()
		return 0
	}
	s.last = to
	s.mu.Unlock()

	notices := s.source.WindowNotifications(from, to)
	for _, n := range notices {
		s.notifier.Notify(n)
	}
	return len(notices)
}

// Start запускает проверку по cron-расписанию, например "@every 1m".
func Start(spec string, sweeper *WindowSweeper, log *logrus.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(log)))
	_, err := c.AddFunc(spec, func() {
		if n := sweeper.Sweep(); n > 0 {
			log.WithField("notices", n).Info("tender window sweep")
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
