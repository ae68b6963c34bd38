// Package feed delivers realtime change notifications. Postgres row
// triggers NOTIFY a JSON payload on every committed write; a single
// Listener owns the LISTEN connection and a Hub fans events out to
// every subscribed dashboard stream.
package feed

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Event identifies a committed insert, update, or delete. Subscribers
// refetch their full query set on any event, so the payload carries
// no field data.
type Event struct {
	Table string `json:"table"`
	Op    string `json:"op"`
	ID    string `json:"id"`
}

const channelName = "record_changes"

// Hub fans events out to subscriber channels. Sends never block: a
// subscriber that falls behind loses events, which is harmless
// because every event triggers the same wholesale refetch.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new event channel. The caller must
// Unsubscribe when its stream ends or the channel leaks.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Listener holds one LISTEN connection against the pool and pushes
// every notification into the hub. Run blocks until ctx is cancelled,
// reconnecting after transient connection failures.
type Listener struct {
	pool *pgxpool.Pool
	hub  *Hub
}

func NewListener(pool *pgxpool.Pool, hub *Hub) *Listener {
	return &Listener{pool: pool, hub: hub}
}

func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("change feed: %v, reconnecting", err)
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+channelName); err != nil {
		return err
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		var ev Event
		if err := json.Unmarshal([]byte(notification.Payload), &ev); err != nil {
			log.Printf("change feed: bad payload %q: %v", notification.Payload, err)
			continue
		}
		l.hub.Broadcast(ev)
	}
}
