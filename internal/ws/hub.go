package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/delivery-backend/internal/goroutine"
	"github.com/ignatzorin/delivery-backend/internal/logger"
)

// События, которые получают администраторы.
const (
	EventRequestsChanged = "requests.changed"
	EventNotification    = "notification"
)

// Hub управляет всеми WebSocket клиентами администраторов.
type Hub struct {
	mu         sync.RWMutex
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	ctx        context.Context
}

// NewHub создаёт новый хаб. Цикл хаба завершается вместе с ctx.
func NewHub(ctx context.Context) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 32),
		ctx:        ctx,
	}
}

// Run запускает главный цикл хаба.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case payload := <-h.broadcast:
			h.send(payload)
		}
	}
}

// Register добавляет клиента.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Broadcast отправляет событие всем подключённым администраторам.
// Формат сообщения: {"type": event, "data": data}. При переполненной очереди событие отбрасывается:
// это сигнал обновления, а не данные.
func (h *Hub) Broadcast(event string, data any) error {
	raw, err := json.Marshal(map[string]any{
		"type": event,
		"data": data,
	})
	if err != nil {
		return fmt.Errorf("ws: не удалось сериализовать сообщение: %w", err)
	}

	select {
	case h.broadcast <- raw:
	default:
		logger.WithComponent("ws").WithField("event", event).Warn("очередь рассылки переполнена, событие отброшено")
	}
	return nil
}

// ClientCount число активных подключений.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.adminID]; !ok {
		h.clients[client.adminID] = make(map[*Client]struct{})
	}
	h.clients[client.adminID][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.adminID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, client.adminID)
		}
	}
}

func (h *Hub) send(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for client := range clients {
			select {
			case client.send <- payload:
			default:
				// Медленный клиент: закрываем асинхронно, чтобы не держать цикл хаба
				goroutine.SafeGo(client.Close)
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for adminID, clients := range h.clients {
		for client := range clients {
			client.closeConn()
		}
		delete(h.clients, adminID)
	}
}
