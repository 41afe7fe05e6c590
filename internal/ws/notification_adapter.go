package ws

import (
	"github.com/ignatzorin/delivery-backend/internal/logger"
	"github.com/ignatzorin/delivery-backend/internal/notify"
)

// NotificationSink пересылает уведомления очереди в хаб.
type NotificationSink struct {
	hub *Hub
}

var _ notify.Sink = (*NotificationSink)(nil)

// NewNotificationSink создаёт адаптер.
func NewNotificationSink(hub *Hub) *NotificationSink {
	return &NotificationSink{hub: hub}
}

// Publish реализует notify.Sink.
func (s *NotificationSink) Publish(n notify.Notification) {
	if err := s.hub.Broadcast(EventNotification, n); err != nil {
		logger.WithComponent("ws").WithError(err).Warn("не удалось разослать уведомление")
	}
}
