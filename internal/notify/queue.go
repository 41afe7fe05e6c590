// Package notify хранит короткоживущие уведомления для администраторов
// и снимает их по таймеру.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind тип уведомления.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// DefaultDuration время жизни уведомления по умолчанию.
const DefaultDuration = 3 * time.Second

// Notification одно уведомление.
type Notification struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Sink получает каждое новое уведомление, например для рассылки по websocket.
type Sink interface {
	Publish(n Notification)
}

// Queue очередь активных уведомлений.
type Queue struct {
	mu         sync.Mutex
	items      []Notification
	timers     map[string]*time.Timer
	sink       Sink
	defaultTTL time.Duration
	now        func() time.Time
}

// NewQueue создаёт очередь. sink может быть nil.
func NewQueue(defaultTTL time.Duration, sink Sink) *Queue {
	if defaultTTL <= 0 {
		defaultTTL = DefaultDuration
	}
	return &Queue{
		timers:     make(map[string]*time.Timer),
		sink:       sink,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// WithClock подменяет источник времени.
func (q *Queue) WithClock(now func() time.Time) *Queue {
	q.now = now
	return q
}

// Notify ставит уведомление в очередь и планирует его снятие через duration.
// Нулевая или отрицательная длительность заменяется значением по умолчанию.
func (q *Queue) Notify(kind Kind, message string, duration time.Duration) Notification {
	if duration <= 0 {
		duration = q.defaultTTL
	}

	q.mu.Lock()
	now := q.now()
	n := Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(duration),
	}
	q.items = append(q.items, n)
	q.timers[n.ID] = time.AfterFunc(duration, func() { q.Dismiss(n.ID) })
	sink := q.sink
	q.mu.Unlock()

	if sink != nil {
		sink.Publish(n)
	}
	return n
}

// Active возвращает неистёкшие уведомления, старые первыми.
func (q *Queue) Active() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	active := make([]Notification, 0, len(q.items))
	for _, n := range q.items {
		if n.ExpiresAt.After(now) {
			active = append(active, n)
		}
	}
	return active
}

// Dismiss убирает уведомление досрочно. Возвращает false, если его уже нет.
func (q *Queue) Dismiss(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if timer, ok := q.timers[id]; ok {
		timer.Stop()
		delete(q.timers, id)
	}

	for i, n := range q.items {
		if n.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Close останавливает все таймеры и очищает очередь.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
	q.items = nil
}
