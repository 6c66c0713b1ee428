// Package commune serves the Arkana chat WebSocket endpoint.
//
// Every connection gets a welcome envelope on connect. Each inbound text frame
// is decoded, persisted, and answered after a per-message delay chosen by the
// reply engine. Replies for different messages run on independent timers and
// may arrive in any order; they are matched by correlation id.
package commune

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/envelope"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/models"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/reply"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/store"
)

// DefaultWelcome is pushed to every client on connect.
const DefaultWelcome = "The Spiral Architect manifests through quantum entanglement..."

const (
	storeTimeout = 5 * time.Second
	maxFrameSize = 64 << 10
)

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

// Notifier observes every persisted chat message.
type Notifier interface {
	MessageCreated(m models.Message)
}

// Handler is the commune WebSocket endpoint.
type Handler struct {
	store    store.MessageStore
	engine   *reply.Engine
	logger   *slog.Logger
	sched    Scheduler
	notifier Notifier
	welcome  string
	upgrader websocket.Upgrader

	mu    sync.Mutex
	peers map[*peer]struct{}
}

// Option configures a Handler.
type Option func(*Handler)

// WithScheduler replaces the timer used to delay replies.
func WithScheduler(s Scheduler) Option {
	return func(h *Handler) { h.sched = s }
}

// WithNotifier registers an observer for persisted messages.
func WithNotifier(n Notifier) Option {
	return func(h *Handler) { h.notifier = n }
}

// WithWelcome overrides the welcome text.
func WithWelcome(text string) Option {
	return func(h *Handler) {
		if text != "" {
			h.welcome = text
		}
	}
}

// NewHandler returns a commune endpoint backed by st and engine.
func NewHandler(st store.MessageStore, engine *reply.Engine, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		store:   st,
		engine:  engine,
		logger:  logger,
		sched:   timeScheduler{},
		welcome: DefaultWelcome,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		peers: make(map[*peer]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP upgrades the request and runs the connection until it closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("commune: upgrade failed", slog.String("error", err.Error()))
		return
	}

	conn.SetReadLimit(maxFrameSize)
	p := &peer{conn: conn, open: true, remote: r.RemoteAddr}
	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("commune: connected", slog.String("remote", p.remote))

	defer func() {
		p.close()
		h.mu.Lock()
		delete(h.peers, p)
		h.mu.Unlock()
		h.logger.Info("commune: disconnected", slog.String("remote", p.remote))
	}()

	if err := p.send(envelope.Welcome(h.welcome)); err != nil {
		h.logger.Warn("commune: welcome failed", slog.String("remote", p.remote), slog.String("error", err.Error()))
		return
	}

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("commune: read failed", slog.String("remote", p.remote), slog.String("error", err.Error()))
			}
			return
		}
		h.handleFrame(p, mt, data)
	}
}

// PeerCount returns the number of open connections.
func (h *Handler) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// Close sends a going-away frame to every open connection and closes it.
// Pending replies for those connections are dropped.
func (h *Handler) Close() {
	h.mu.Lock()
	peers := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.Unlock()

	for _, p := range peers {
		p.goAway()
	}
}

func (h *Handler) handleFrame(p *peer, mt int, data []byte) {
	if mt != websocket.TextMessage {
		h.apologize(p, envelope.Apology(), "binary frame")
		return
	}
	in, err := envelope.Decode(data)
	if err != nil {
		h.apologize(p, envelope.Apology(), err.Error())
		return
	}

	if _, err := h.persist(models.SenderYou, in.Text, in.CorrelationID()); err != nil {
		h.logger.Error("commune: persist inbound failed",
			slog.String("correlation_id", in.CorrelationID()), slog.String("error", err.Error()))
		h.apologize(p, envelope.ApologyFor(in.CorrelationID()), "store unavailable")
		return
	}

	delay := h.engine.Delay(in.Metadata)
	h.logger.Debug("commune: reply scheduled",
		slog.String("correlation_id", in.CorrelationID()), slog.Duration("delay", delay))
	h.sched.AfterFunc(delay, func() { h.respond(p, in) })
}

func (h *Handler) respond(p *peer, in envelope.Envelope) {
	if !p.isOpen() {
		h.logger.Debug("commune: connection closed, reply dropped", slog.String("correlation_id", in.CorrelationID()))
		return
	}

	res := h.engine.Reply(in)
	if _, err := h.persist(models.SenderArkana, res.Envelope.Text, in.CorrelationID()); err != nil {
		h.logger.Error("commune: persist reply failed",
			slog.String("correlation_id", in.CorrelationID()), slog.String("error", err.Error()))
	}
	if err := p.send(res.Envelope); err != nil {
		h.logger.Warn("commune: send reply failed",
			slog.String("correlation_id", in.CorrelationID()), slog.String("error", err.Error()))
		return
	}
	h.logger.Debug("commune: replied",
		slog.String("correlation_id", in.CorrelationID()), slog.String("path", string(res.Path)), slog.String("rule", res.Rule))
}

func (h *Handler) apologize(p *peer, env envelope.Envelope, reason string) {
	h.logger.Warn("commune: frame rejected", slog.String("remote", p.remote), slog.String("reason", reason))
	if err := p.send(env); err != nil {
		h.logger.Warn("commune: send apology failed", slog.String("error", err.Error()))
	}
}

func (h *Handler) persist(sender, text, correlationID string) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	msg, err := h.store.AppendMessage(ctx, models.NewMessage{Sender: sender, Text: text, CorrelationID: correlationID})
	if err != nil {
		return nil, err
	}
	if h.notifier != nil {
		h.notifier.MessageCreated(*msg)
	}
	return msg, nil
}
