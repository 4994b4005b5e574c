package notify

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"soq/models"

	"github.com/olahol/melody"
	"github.com/sirupsen/logrus"
)

const sessionUserKey = "user_id"

// Broadcaster отправляет уведомления клиентам /ws. Уведомления по приватным
// тендерам получают только адресаты.
type Broadcaster struct {
	M   *melody.Melody
	log *logrus.Logger
}

func NewBroadcaster(log *logrus.Logger) *Broadcaster {
	m := melody.New()
	m.Config.MaxMessageSize = 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	b := &Broadcaster{M: m, log: log}
	m.HandleConnect(func(s *melody.Session) {
		user, _ := s.Get(sessionUserKey)
		log.WithField("user", user).Debug("notice client connected")
	})
	m.HandleDisconnect(func(s *melody.Session) {
		user, _ := s.Get(sessionUserKey)
		log.WithField("user", user).Debug("notice client disconnected")
	})
	m.HandleError(func(s *melody.Session, err error) {
		log.WithError(err).Warn("websocket error")
	})
	return b
}

// HandleWS принимает подключение. Пользователь берётся из X-User-ID или ?user=.
func (b *Broadcaster) HandleWS(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if user == "" {
		user = strings.TrimSpace(r.URL.Query().Get("user"))
	}
	keys := map[string]any{sessionUserKey: user}
	if err := b.M.HandleRequestWithKeys(w, r, keys); err != nil {
		b.log.WithError(err).Warn("failed to upgrade websocket")
	}
}

func (b *Broadcaster) Notify(n models.Notification) {
	msg, err := json.Marshal(n)
	if err != nil {
		b.log.WithError(err).Error("failed to encode notice")
		return
	}
	err = b.M.BroadcastFilter(msg, func(s *melody.Session) bool {
		user, _ := s.Get(sessionUserKey)
		id, _ := user.(string)
		return Visible(n, id)
	})
	if err != nil {
		b.log.WithError(err).WithField("tender_id", n.TenderID).Warn("failed to broadcast notice")
	}
}

func (b *Broadcaster) Close() error {
	return b.M.Close()
}

// Visible true, если пользователь должен получить уведомление.
func Visible(n models.Notification, user string) bool {
	if !n.Private {
		return true
	}
	for _, r := range n.Recipients {
		if r == user && user != "" {
			return true
		}
	}
	return false
}
