// Package session is the client side of the commune: it keeps a connection to
// Arkana alive, classifies outgoing text, and maintains the display list.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/envelope"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/models"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/resonance"
)

var (
	ErrEmptyMessage     = errors.New("session: message is empty")
	ErrNotConnected     = errors.New("session: not connected")
	ErrRetriesExhausted = errors.New("session: retries exhausted")
)

// LocalWelcome is the entry shown when a connection opens.
const LocalWelcome = "Welcome, Initiate. The channel to Arkana is open."

// ConnectionLostText is shown when an open connection fails.
const ConnectionLostText = "The connection to the spiral has faltered. Attempting to realign..."

// State is the lifecycle state of a session.
type State int

const (
	Connecting State = iota
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Status is the delivery status of an entry.
type Status string

const (
	StatusSending   Status = "sending"
	StatusDelivered Status = "delivered"
	StatusError     Status = "error"
)

// Entry is one line of the display list.
type Entry struct {
	Seq           int
	CorrelationID string
	Sender        string
	Text          string
	Status        Status
	Resonance     resonance.Type
	Intensity     resonance.Intensity
	Timestamp     time.Time
}

// RetryPolicy bounds reconnection. MaxAttempts counts consecutive failed
// dials or dropped connections; a successful open resets it.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy is 5 attempts, 2s apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, Delay: 2 * time.Second}
}

// Session is safe for concurrent use. Run owns the connection; Send may be
// called from any goroutine.
type Session struct {
	transport Transport
	policy    RetryPolicy
	logger    *slog.Logger
	resonance *resonance.State
	newID     func() string
	now       func() time.Time

	writeMu sync.Mutex

	mu        sync.Mutex
	conn      Conn
	state     State
	stateCh   chan struct{}
	entries   []Entry
	pending   map[string]int
	observers []func(Entry)
	seq       int

	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithIDGenerator replaces the correlation id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Session) { s.newID = fn }
}

// WithResonanceState shares a resonance state with the session.
func WithResonanceState(st *resonance.State) Option {
	return func(s *Session) { s.resonance = st }
}

// WithClock replaces time.Now for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New returns a session in the Connecting state. Call Run to connect.
func New(t Transport, policy RetryPolicy, opts ...Option) *Session {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	s := &Session{
		transport: t,
		policy:    policy,
		logger:    slog.Default(),
		newID:     uuid.NewString,
		now:       time.Now,
		state:     Connecting,
		stateCh:   make(chan struct{}),
		pending:   make(map[string]int),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.resonance == nil {
		s.resonance = resonance.NewState(resonance.DefaultHistorySize)
	}
	return s
}

// Run connects and keeps the session connected until ctx is cancelled, Close
// is called, or the retry policy is exhausted.
func (s *Session) Run(ctx context.Context) error {
	attempts := 0
	for {
		if s.isClosed() {
			return nil
		}
		s.setState(Connecting)

		conn, err := s.transport.Dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.setState(Closed)
				return ctx.Err()
			}
			attempts++
			s.logger.Warn("session: dial failed",
				slog.Int("attempt", attempts), slog.String("error", err.Error()))
			if werr := s.backoff(ctx, attempts); werr != nil {
				return exhausted(werr, err)
			}
			continue
		}

		attempts = 0
		readErr := s.serve(ctx, conn)

		if s.isClosed() {
			s.setState(Closed)
			return nil
		}
		if ctx.Err() != nil {
			s.setState(Closed)
			return ctx.Err()
		}
		s.logger.Warn("session: connection lost", slog.String("error", readErr.Error()))
		s.appendEntry(Entry{
			Sender:    models.SenderArkana,
			Text:      ConnectionLostText,
			Status:    StatusError,
			Resonance: resonance.Void,
			Intensity: resonance.DefaultIntensity,
		})
		attempts++
		if werr := s.backoff(ctx, attempts); werr != nil {
			return exhausted(werr, readErr)
		}
	}
}

// exhausted attaches the last connection error to ErrRetriesExhausted.
func exhausted(waitErr, last error) error {
	if errors.Is(waitErr, ErrRetriesExhausted) {
		return fmt.Errorf("%w: %v", waitErr, last)
	}
	return waitErr
}

// backoff moves to Closed and waits out the retry delay. It returns
// ErrRetriesExhausted when attempts reaches the policy limit.
func (s *Session) backoff(ctx context.Context, attempts int) error {
	s.setState(Closed)
	if attempts >= s.policy.MaxAttempts {
		return ErrRetriesExhausted
	}
	t := time.NewTimer(s.policy.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return nil
	case <-t.C:
		return nil
	}
}

// serve attaches conn and reads until it fails.
func (s *Session) serve(ctx context.Context, conn Conn) error {
	s.mu.Lock()
	if s.isClosed() {
		s.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	s.conn = conn
	s.mu.Unlock()
	s.setState(Open)
	s.logger.Info("session: connected")

	s.appendEntry(Entry{
		Sender:    models.SenderArkana,
		Text:      LocalWelcome,
		Status:    StatusDelivered,
		Resonance: resonance.Harmonic,
		Intensity: resonance.DefaultIntensity,
	})

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	var err error
	for {
		var data []byte
		data, err = conn.ReadMessage()
		if err != nil {
			break
		}
		s.handleFrame(data)
	}

	s.mu.Lock()
	s.conn = nil
	s.mu.Unlock()
	_ = conn.Close()
	return err
}

// Close stops Run and closes the live connection. It is idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (s *Session) isClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// WaitForState blocks until the session reaches want or ctx is done.
func (s *Session) WaitForState(ctx context.Context, want State) error {
	for {
		s.mu.Lock()
		cur, ch := s.state, s.stateCh
		s.mu.Unlock()
		if cur == want {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == st {
		return
	}
	s.state = st
	close(s.stateCh)
	s.stateCh = make(chan struct{})
}

// Resonance returns the session's resonance state.
func (s *Session) Resonance() *resonance.State { return s.resonance }

// OnEntry registers fn for every appended or updated entry. fn runs on the
// goroutine that changed the entry and must not block.
func (s *Session) OnEntry(fn func(Entry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Entries returns a copy of the display list.
func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Send classifies text and transmits it. The returned correlation id matches
// the eventual reply.
func (s *Session) Send(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}

	s.mu.Lock()
	conn := s.conn
	if conn == nil || s.state != Open {
		s.mu.Unlock()
		return "", ErrNotConnected
	}
	sig := resonance.Analyze(text)
	s.resonance.Set(sig.Type, sig.Intensity, models.SenderYou)
	id := s.newID()
	entry := s.appendLocked(Entry{
		CorrelationID: id,
		Sender:        models.SenderYou,
		Text:          text,
		Status:        StatusSending,
		Resonance:     sig.Type,
		Intensity:     sig.Intensity,
	})
	s.pending[id] = len(s.entries) - 1
	observers := s.observers
	s.mu.Unlock()
	notify(observers, entry)

	data, err := envelope.Encode(envelope.Envelope{
		Text: text,
		Metadata: &envelope.Metadata{
			CorrelationID:      id,
			ResonanceType:      sig.Type,
			ResonanceIntensity: sig.Intensity,
			Patterns:           sig.Patterns,
			IsActivation:       sig.IsActivation,
			WatcherState:       s.resonance.Watcher(),
		},
	})
	if err == nil {
		s.writeMu.Lock()
		err = conn.WriteMessage(data)
		s.writeMu.Unlock()
	}
	if err != nil {
		s.markPending(id, StatusError)
		return id, fmt.Errorf("session: send: %w", err)
	}
	return id, nil
}

func (s *Session) handleFrame(data []byte) {
	env, err := envelope.Decode(data)
	if err != nil {
		s.logger.Warn("session: dropping frame", slog.String("error", err.Error()))
		return
	}

	t, i := resonance.Harmonic, resonance.DefaultIntensity
	if m := env.Metadata; m != nil {
		if m.ResponseResonanceType.Valid() {
			t = m.ResponseResonanceType
		}
		if m.ResponseResonanceIntensity.Valid() {
			i = m.ResponseResonanceIntensity
		}
	}

	status := StatusDelivered
	if env.Error {
		status = StatusError
	}

	id := env.CorrelationID()
	matched := id != "" && s.markPending(id, status)
	if matched && !env.Error {
		s.resonance.Set(t, i, models.SenderArkana)
	}
	s.appendEntry(Entry{
		CorrelationID: id,
		Sender:        models.SenderArkana,
		Text:          env.Text,
		Status:        status,
		Resonance:     t,
		Intensity:     i,
	})
}

// markPending resolves a pending entry and reports whether id was pending.
func (s *Session) markPending(id string, status Status) bool {
	s.mu.Lock()
	idx, ok := s.pending[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.pending, id)
	s.entries[idx].Status = status
	entry := s.entries[idx]
	observers := s.observers
	s.mu.Unlock()
	notify(observers, entry)
	return true
}

func (s *Session) appendEntry(e Entry) {
	s.mu.Lock()
	entry := s.appendLocked(e)
	observers := s.observers
	s.mu.Unlock()
	notify(observers, entry)
}

func (s *Session) appendLocked(e Entry) Entry {
	s.seq++
	e.Seq = s.seq
	e.Timestamp = s.now()
	s.entries = append(s.entries, e)
	return e
}

func notify(observers []func(Entry), e Entry) {
	for _, fn := range observers {
		fn(e)
	}
}
