package ws

import (
	"sync"

	"go.uber.org/zap"
)

// Subscriber is an opaque connection handle held by the hub. Send must
// not block: it reports false when the subscriber cannot accept the
// payload, which the hub treats as a dead or hopelessly slow peer.
type Subscriber interface {
	ID() string
	Send(payload []byte) bool
	Close()
}

// Hub is the subscription registry: it maps rooms to subscriber sets
// and subscribers to their rooms, and fans broadcasts out to a room's
// current members. All mutation goes through the internal mutex, so it
// is safe for concurrent use by every connection-handling goroutine.
//
// The hub holds no state beyond a connection's lifetime. After a
// disconnect the peer must subscribe again from scratch.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Subscriber]bool
	subs  map[Subscriber]map[string]bool

	logger *zap.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[Subscriber]bool),
		subs:   make(map[Subscriber]map[string]bool),
		logger: logger,
	}
}

// Subscribe adds sub to room. Subscribing twice is a no-op.
func (h *Hub) Subscribe(sub Subscriber, room string) {
	if sub == nil || room == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[Subscriber]bool)
	}
	if h.rooms[room][sub] {
		return
	}
	h.rooms[room][sub] = true

	if h.subs[sub] == nil {
		h.subs[sub] = make(map[string]bool)
	}
	h.subs[sub][room] = true

	h.logger.Debug("subscribed",
		zap.String("connID", sub.ID()),
		zap.String("room", room),
	)
}

// Unsubscribe removes sub from room. Unknown pairs are a no-op.
func (h *Hub) Unsubscribe(sub Subscriber, room string) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub, room)
}

// Disconnect removes every subscription held by sub, in
// O(rooms-of-sub). Safe to call more than once.
func (h *Hub) Disconnect(sub Subscriber) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range h.subs[sub] {
		h.removeLocked(sub, room)
	}
	delete(h.subs, sub)

	h.logger.Debug("disconnected", zap.String("connID", sub.ID()))
}

func (h *Hub) removeLocked(sub Subscriber, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, sub)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
	if subRooms, ok := h.subs[sub]; ok {
		delete(subRooms, room)
		if len(subRooms) == 0 {
			delete(h.subs, sub)
		}
	}
}

// IsSubscribed reports whether sub currently belongs to room.
func (h *Hub) IsSubscribed(sub Subscriber, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[room][sub]
}

// SubscribersOf returns the current members of room.
func (h *Hub) SubscribersOf(room string) []Subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := make([]Subscriber, 0, len(h.rooms[room]))
	for sub := range h.rooms[room] {
		members = append(members, sub)
	}
	return members
}

// ActiveRooms returns every room with at least one subscriber. Rooms
// without subscribers do not exist, which bounds broadcast cost to
// active interest.
func (h *Hub) ActiveRooms() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms := make([]string, 0, len(h.rooms))
	for room := range h.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// Broadcast delivers payload to every current member of room,
// best-effort. Subscribers that cannot accept the payload are
// disconnected and closed, mirroring how a dead peer is handled.
func (h *Hub) Broadcast(room string, payload []byte) {
	h.mu.RLock()
	members := make([]Subscriber, 0, len(h.rooms[room]))
	for sub := range h.rooms[room] {
		members = append(members, sub)
	}
	h.mu.RUnlock()

	var stalled []Subscriber
	for _, sub := range members {
		if !sub.Send(payload) {
			stalled = append(stalled, sub)
		}
	}

	for _, sub := range stalled {
		h.logger.Debug("dropping stalled subscriber",
			zap.String("connID", sub.ID()),
			zap.String("room", room),
		)
		h.Disconnect(sub)
		sub.Close()
	}
}

// Shutdown disconnects and closes every subscriber.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	subs := make([]Subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.rooms = make(map[string]map[Subscriber]bool)
	h.subs = make(map[Subscriber]map[string]bool)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}
