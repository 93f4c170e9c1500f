package notify

import (
	"sync"

	"github.com/habitloop/chat-service/internal/models"
	"github.com/sirupsen/logrus"
)

const defaultBuffer = 64

// Hub fans room-scoped updates out to subscribed clients. Delivery is
// at-least-once and best-effort per subscriber: a subscriber that cannot
// keep up has updates dropped and is expected to recover by refetching.
type Hub struct {
	logger *logrus.Logger

	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		logger: logger,
		subs:   make(map[string]map[*Subscription]struct{}),
	}
}

// Subscription is a single client's interest in one room's updates. Close is
// idempotent and safe to call while the hub is publishing.
type Subscription struct {
	hub    *Hub
	roomId string
	ch     chan models.Update
	once   sync.Once
}

func (s *Subscription) Updates() <-chan models.Update {
	return s.ch
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.ch)
	})
}

func (h *Hub) Subscribe(roomId string) *Subscription {
	sub := &Subscription{
		hub:    h,
		roomId: roomId,
		ch:     make(chan models.Update, defaultBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[roomId] == nil {
		h.subs[roomId] = make(map[*Subscription]struct{})
	}
	h.subs[roomId][sub] = struct{}{}
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.subs[sub.roomId]
	delete(room, sub)
	if len(room) == 0 {
		delete(h.subs, sub.roomId)
	}
}

// Publish delivers an update to every subscriber of its room without
// blocking the caller.
func (h *Hub) Publish(update models.Update) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[update.RoomID] {
		select {
		case sub.ch <- update:
		default:
			h.logger.
				WithField("room_id", update.RoomID).
				WithField("kind", update.Kind).
				Debug("subscriber buffer full, update dropped")
		}
	}
}

// SubscriberCount reports the number of live subscriptions for a room.
func (h *Hub) SubscriberCount(roomId string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[roomId])
}
