// Package notify доставляет описания событий ядра: в лог и подключённым
// WebSocket-клиентам.
package notify

import (
	"soq/internal/estimate"
	"soq/models"

	"github.com/sirupsen/logrus"
)

// LogDispatcher пишет каждое уведомление в структурированный лог.
type LogDispatcher struct {
	Log *logrus.Logger
}

func (d LogDispatcher) Notify(n models.Notification) {
	d.Log.WithFields(logrus.Fields{
		"kind":       n.Kind,
		"tender_id":  n.TenderID,
		"recipients": n.Recipients,
		"private":    n.Private,
	}).Info(n.Subject)
}

// Multi рассылает уведомление всем получателям по очереди.
type Multi []estimate.Notifier

func (m Multi) Notify(n models.Notification) {
	for _, target := range m {
		if target != nil {
			target.Notify(n)
		}
	}
}
