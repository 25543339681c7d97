package admin

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nrawrx3/uno"
	"github.com/nrawrx3/uno/internal/messages"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	// Time allowed to write one event to a subscriber.
	writeWait = 2 * time.Second

	// Subscribers only ever send close frames.
	maxMessageSize = 512
)

type subscriber struct {
	id   string
	conn *websocket.Conn
}

// eventHub fans every engine notification out to the websocket subscribers. It is
// registered as an engine listener, so broadcasts run on the commanding goroutine while
// the state lock is held.
type eventHub struct {
	mu          sync.Mutex
	subscribers map[string]*subscriber
	logger      *log.Logger
}

func newEventHub(logger *log.Logger) *eventHub {
	return &eventHub{
		subscribers: make(map[string]*subscriber),
		logger:      logger,
	}
}

// subscribe registers conn and sends it the current snapshot.
func (h *eventHub) subscribe(conn *websocket.Conn, snap uno.Snapshot) (*subscriber, error) {
	sub := &subscriber{id: uuid.NewString(), conn: conn}

	data, err := json.Marshal(messages.NewEventMessage(snap))
	if err != nil {
		return nil, errors.Wrap(err, "encoding snapshot")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := writeEvent(conn, data); err != nil {
		return nil, NewBroadcastFailedError(sub.id, snap.GameEventName(), err)
	}
	h.subscribers[sub.id] = sub
	h.logger.Printf("event subscriber %s connected from %s", sub.id, conn.RemoteAddr())
	return sub, nil
}

func (h *eventHub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[sub.id]; ok {
		delete(h.subscribers, sub.id)
		sub.conn.Close()
		h.logger.Printf("event subscriber %s disconnected", sub.id)
	}
}

// readPump discards everything the subscriber sends and unsubscribes it once the
// connection fails or closes.
func (h *eventHub) readPump(sub *subscriber) {
	defer h.unsubscribe(sub)

	// The server's ReadTimeout is still set on the hijacked connection.
	sub.conn.SetReadDeadline(time.Time{})
	sub.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Printf("event subscriber %s read error: %s", sub.id, err)
			}
			return
		}
	}
}

func (h *eventHub) subscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// broadcast writes the event to every subscriber concurrently. Subscribers whose write
// fails are dropped.
func (h *eventHub) broadcast(event uno.GameEvent) {
	data, err := json.Marshal(messages.NewEventMessage(event))
	if err != nil {
		h.logger.Printf("failed to encode %s: %s", event.GameEventName(), err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	subs := make([]*subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}

	failures := make([]error, len(subs))
	var g errgroup.Group
	for i, sub := range subs {
		i, sub := i, sub
		g.Go(func() error {
			if err := writeEvent(sub.conn, data); err != nil {
				failures[i] = NewBroadcastFailedError(sub.id, event.GameEventName(), err)
				return failures[i]
			}
			return nil
		})
	}
	if g.Wait() == nil {
		return
	}

	for i, err := range failures {
		if err == nil {
			continue
		}
		h.logger.Print(err)
		subs[i].conn.Close()
		delete(h.subscribers, subs[i].id)
	}
}

func (h *eventHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subscribers {
		sub.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		sub.conn.Close()
		delete(h.subscribers, id)
	}
}

func writeEvent(conn *websocket.Conn, data []byte) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *eventHub) HandleUpdate(snap uno.Snapshot) {
	h.broadcast(snap)
}

func (h *eventHub) HandleRoundEnd(event uno.RoundOverEvent) {
	h.broadcast(event)
}

func (h *eventHub) HandleGameEnd(event uno.GameOverEvent) {
	h.broadcast(event)
}

func (h *eventHub) PromptForWildColor(req uno.WildColorRequest) {
	h.broadcast(req)
}
