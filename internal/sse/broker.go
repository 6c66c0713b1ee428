// Package sse fans commune activity out to Server-Sent Events subscribers.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/models"
)

// Event types emitted by the broker.
const (
	EventMessageCreated = "message.created"
	EventEssenceCreated = "essence.created"
	EventCommunePulse   = "commune.pulse"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Pulse summarises chat activity since the previous pulse.
type Pulse struct {
	Messages int    `json:"messages"`
	Sender   string `json:"lastSender"`
}

// Broker manages SSE client connections and broadcasts events.
//
// A single internal event loop owns the client set and the pulse throttle.
// Public methods talk to it over channels.
type Broker struct {
	pulseMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	messageCh     chan models.Message
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits at most one commune.pulse per
// pulseThrottle.
func NewBroker(pulseThrottle time.Duration) *Broker {
	if pulseThrottle <= 0 {
		pulseThrottle = 2 * time.Second
	}

	b := &Broker{
		pulseMin:      pulseThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		messageCh:     make(chan models.Message, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastPulse time.Time
	var sincePulse int

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than block the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case msg := <-b.messageCh:
			broadcast(Event{Type: EventMessageCreated, Data: msg})
			sincePulse++

			now := time.Now()
			if now.Sub(lastPulse) >= b.pulseMin {
				lastPulse = now
				broadcast(Event{Type: EventCommunePulse, Data: Pulse{Messages: sincePulse, Sender: msg.Sender}})
				sincePulse = 0
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// MessageCreated publishes a stored chat message followed by a throttled
// commune.pulse.
func (b *Broker) MessageCreated(m models.Message) {
	if b.closed.Load() {
		return
	}
	select {
	case b.messageCh <- m:
	case <-b.stopped:
	}
}

// EssenceCreated publishes a new essence entry.
func (b *Broker) EssenceCreated(e models.EssenceEntry) {
	b.Publish(Event{Type: EventEssenceCreated, Data: e})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
