package estimate

import (
	"fmt"
	"time"

	"soq/models"
)

// WindowNotifications уведомления об открытии и закрытии окна приёма
// предложений для поданных тендеров, если граница окна попала в (from, to].
func (b *Book) WindowNotifications(from, to time.Time) []models.Notification {
	var out []models.Notification
	for _, t := range b.Tenders() {
		if t.Status != models.TenderSubmitted {
			continue
		}
		if t.StartTime.After(from) && !t.StartTime.After(to) {
			out = append(out, models.Notification{
				Kind:       models.NotifyTenderWindowOpened,
				TenderID:   t.ID,
				Private:    t.Privacy == models.PrivacyPrivate,
				Recipients: recipients(t.CreatedBy),
				Subject:    fmt.Sprintf("Bidding opened for %q", t.Name),
				Body:       fmt.Sprintf("Tender %q accepts proposals until %s.", t.Name, t.EndTime.Format(time.RFC3339)),
				At:         t.StartTime,
			})
		}
		if t.EndTime.After(from) && !t.EndTime.After(to) {
			out = append(out, models.Notification{
				Kind:       models.NotifyTenderWindowClosed,
				TenderID:   t.ID,
				Private:    t.Privacy == models.PrivacyPrivate,
				Recipients: recipients(t.CreatedBy),
				Subject:    fmt.Sprintf("Bidding closed for %q", t.Name),
				Body:       fmt.Sprintf("Tender %q no longer accepts proposals.", t.Name),
				At:         t.EndTime,
			})
		}
	}
	return out
}
