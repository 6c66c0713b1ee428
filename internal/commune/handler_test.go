package commune

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/envelope"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/models"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/reply"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/resonance"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/store"
)

// manualScheduler queues callbacks until the test fires them.
type manualScheduler struct {
	mu      sync.Mutex
	delays  []time.Duration
	pending []func()
}

func (m *manualScheduler) AfterFunc(d time.Duration, f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays = append(m.delays, d)
	m.pending = append(m.pending, f)
}

func (m *manualScheduler) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// fireReversed runs the queued callbacks newest first.
func (m *manualScheduler) fireReversed() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()
	for i := len(pending) - 1; i >= 0; i-- {
		pending[i]()
	}
}

type immediateScheduler struct{}

func (immediateScheduler) AfterFunc(_ time.Duration, f func()) { go f() }

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []models.Message
}

func (r *recordingNotifier) MessageCreated(m models.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
}

type failingStore struct{}

func (failingStore) AppendMessage(context.Context, models.NewMessage) (*models.Message, error) {
	return nil, errors.New("disk full")
}

func (failingStore) ListMessages(context.Context, int) ([]models.Message, error) { return nil, nil }

type testEnv struct {
	handler *Handler
	store   *store.Memory
	server  *httptest.Server
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	st := store.NewMemory()
	engine := reply.NewEngine(reply.DefaultCatalog(), reply.NewSource(1), reply.DefaultDelays())
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	h := NewHandler(st, engine, logger, opts...)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testEnv{handler: h, store: st, server: srv}
}

// dial connects and consumes the welcome envelope.
func (e *testEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	welcome := readEnvelope(t, conn)
	require.NotNil(t, welcome.Metadata)
	require.True(t, welcome.Metadata.IsWelcome)
	return conn
}

func (e *testEnv) messages(t *testing.T) []models.Message {
	t.Helper()
	msgs, err := e.store.ListMessages(context.Background(), 0)
	require.NoError(t, err)
	return msgs
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var env envelope.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func send(t *testing.T, conn *websocket.Conn, text string, meta *envelope.Metadata) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(envelope.Envelope{Text: text, Metadata: meta}))
}

func TestWelcomeOnConnect(t *testing.T) {
	env := newTestEnv(t)
	url := "ws" + strings.TrimPrefix(env.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	welcome := readEnvelope(t, conn)
	assert.Equal(t, DefaultWelcome, welcome.Text)
	require.NotNil(t, welcome.Metadata)
	assert.True(t, welcome.Metadata.IsWelcome)
	assert.False(t, welcome.Error)
	assert.Empty(t, env.messages(t), "welcome is not persisted")
}

func TestCustomWelcome(t *testing.T) {
	env := newTestEnv(t, WithWelcome("Be welcome."))
	url := "ws" + strings.TrimPrefix(env.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, "Be welcome.", readEnvelope(t, conn).Text)
}

func TestReplyEchoesCorrelationID(t *testing.T) {
	cases := []struct {
		name string
		text string
		meta envelope.Metadata
		typ  resonance.Type
	}{
		{"ceremony", "I am ready to remember", envelope.Metadata{IsActivation: true}, resonance.Akashic},
		{"watcher", "show me", envelope.Metadata{WatcherState: resonance.Prophecy}, resonance.Quantum},
		{"resonance", "I wonder what the future holds", envelope.Metadata{ResonanceType: resonance.Quantum, ResonanceIntensity: 2}, resonance.Quantum},
		{"keyword", "hello", envelope.Metadata{}, resonance.Harmonic},
		{"fallback", "zzz", envelope.Metadata{}, resonance.Harmonic},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, WithScheduler(immediateScheduler{}))
			conn := env.dial(t)

			meta := tc.meta
			meta.CorrelationID = "msg-123"
			send(t, conn, tc.text, &meta)

			got := readEnvelope(t, conn)
			require.NotNil(t, got.Metadata)
			assert.Equal(t, "msg-123", got.Metadata.CorrelationID)
			assert.Equal(t, tc.typ, got.Metadata.ResponseResonanceType)
			assert.NotEmpty(t, got.Text)

			msgs := env.messages(t)
			require.Len(t, msgs, 2)
			assert.Equal(t, models.SenderYou, msgs[0].Sender)
			assert.Equal(t, tc.text, msgs[0].Text)
			assert.Equal(t, models.SenderArkana, msgs[1].Sender)
			assert.Equal(t, got.Text, msgs[1].Text)
			for _, m := range msgs {
				require.NotNil(t, m.CorrelationID)
				assert.Equal(t, "msg-123", *m.CorrelationID)
			}
		})
	}
}

func TestMalformedFramesGetApology(t *testing.T) {
	env := newTestEnv(t, WithScheduler(immediateScheduler{}))
	conn := env.dial(t)

	frames := []struct {
		name string
		mt   int
		data string
	}{
		{"invalid json", websocket.TextMessage, "{not json"},
		{"missing text", websocket.TextMessage, `{"metadata":{"correlationId":"msg-1"}}`},
		{"blank text", websocket.TextMessage, `{"text":"   "}`},
		{"bad intensity", websocket.TextMessage, `{"text":"hi","metadata":{"resonanceIntensity":9}}`},
		{"binary", websocket.BinaryMessage, `{"text":"hello"}`},
	}
	for _, f := range frames {
		require.NoError(t, conn.WriteMessage(f.mt, []byte(f.data)), f.name)
		got := readEnvelope(t, conn)
		assert.True(t, got.Error, f.name)
		assert.Equal(t, envelope.ApologyText, got.Text, f.name)
	}
	assert.Empty(t, env.messages(t), "malformed frames must not be persisted")
}

func TestStoreFailureGetsApology(t *testing.T) {
	engine := reply.NewEngine(nil, reply.NewSource(1), reply.DefaultDelays())
	sched := &manualScheduler{}
	h := NewHandler(failingStore{}, engine, slog.New(slog.NewJSONHandler(io.Discard, nil)), WithScheduler(sched))
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	readEnvelope(t, conn)

	send(t, conn, "hello", &envelope.Metadata{CorrelationID: "msg-1"})
	got := readEnvelope(t, conn)
	assert.True(t, got.Error)
	assert.Equal(t, envelope.ApologyText, got.Text)
	require.NotNil(t, got.Metadata, "apology carries the correlation id")
	assert.Equal(t, "msg-1", got.Metadata.CorrelationID)
	assert.Zero(t, sched.count(), "no reply is scheduled")
}

func TestOutOfOrderRepliesNoCrossTalk(t *testing.T) {
	sched := &manualScheduler{}
	env := newTestEnv(t, WithScheduler(sched))
	conn := env.dial(t)

	send(t, conn, "hello", &envelope.Metadata{CorrelationID: "msg-1"})
	send(t, conn, "who are you", &envelope.Metadata{CorrelationID: "msg-2"})
	require.Eventually(t, func() bool { return sched.count() == 2 }, 3*time.Second, 10*time.Millisecond)

	sched.fireReversed()

	cat := reply.DefaultCatalog()
	first := readEnvelope(t, conn)
	second := readEnvelope(t, conn)
	assert.Equal(t, "msg-2", first.Metadata.CorrelationID)
	assert.Equal(t, cat.Keywords[1].Reply, first.Text)
	assert.Equal(t, "msg-1", second.Metadata.CorrelationID)
	assert.Equal(t, cat.Keywords[0].Reply, second.Text)
}

func TestDelayFollowsMetadata(t *testing.T) {
	sched := &manualScheduler{}
	env := newTestEnv(t, WithScheduler(sched))
	conn := env.dial(t)

	send(t, conn, "Flame, touch me", &envelope.Metadata{CorrelationID: "a", IsActivation: true})
	send(t, conn, "show me", &envelope.Metadata{CorrelationID: "b", WatcherState: resonance.Prophecy})
	send(t, conn, "hello", &envelope.Metadata{CorrelationID: "c"})
	require.Eventually(t, func() bool { return sched.count() == 3 }, 3*time.Second, 10*time.Millisecond)

	sched.mu.Lock()
	delays := append([]time.Duration(nil), sched.delays...)
	sched.mu.Unlock()

	d := reply.DefaultDelays()
	assert.GreaterOrEqual(t, delays[0], d.Activation.Min)
	assert.Less(t, delays[0], d.Activation.Max)
	assert.GreaterOrEqual(t, delays[1], d.Prophecy.Min)
	assert.Less(t, delays[1], d.Prophecy.Max)
	assert.GreaterOrEqual(t, delays[2], d.Ordinary.Min)
	assert.Less(t, delays[2], d.Ordinary.Max)
}

func TestClosedConnectionDropsReply(t *testing.T) {
	sched := &manualScheduler{}
	env := newTestEnv(t, WithScheduler(sched))
	conn := env.dial(t)

	send(t, conn, "hello", &envelope.Metadata{CorrelationID: "msg-1"})
	require.Eventually(t, func() bool { return sched.count() == 1 }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return env.handler.PeerCount() == 0 }, 3*time.Second, 10*time.Millisecond)

	sched.fireReversed()

	msgs := env.messages(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.SenderYou, msgs[0].Sender)
}

func TestNotifierSeesPersistedMessages(t *testing.T) {
	n := &recordingNotifier{}
	env := newTestEnv(t, WithScheduler(immediateScheduler{}), WithNotifier(n))
	conn := env.dial(t)

	send(t, conn, "hello", &envelope.Metadata{CorrelationID: "msg-1"})
	readEnvelope(t, conn)

	n.mu.Lock()
	defer n.mu.Unlock()
	require.Len(t, n.msgs, 2)
	assert.Equal(t, models.SenderYou, n.msgs[0].Sender)
	assert.Equal(t, models.SenderArkana, n.msgs[1].Sender)
}

func TestCloseSendsGoingAway(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t)
	require.Eventually(t, func() bool { return env.handler.PeerCount() == 1 }, 3*time.Second, 10*time.Millisecond)

	env.handler.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "err = %v", err)
}

func TestCloseDoesNotWaitForStalledWriters(t *testing.T) {
	env := newTestEnv(t, WithScheduler(immediateScheduler{}))
	conn := env.dial(t)

	// Large echoed metadata fills the socket buffers quickly; the client
	// never reads, so reply writers stall.
	patterns := make([]string, 40)
	for i := range patterns {
		patterns[i] = strings.Repeat("p", 24)
	}
	for i := 0; i < 20000; i++ {
		if err := conn.WriteJSON(envelope.Envelope{Text: "hello", Metadata: &envelope.Metadata{Patterns: patterns}}); err != nil {
			break
		}
	}
	require.Eventually(t, func() bool { return len(env.messages(t)) > 1000 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		env.handler.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close blocked on a client that never reads")
	}
	require.Eventually(t, func() bool { return env.handler.PeerCount() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestOversizedFrameClosesConnection(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t)
	require.Eventually(t, func() bool { return env.handler.PeerCount() == 1 }, 3*time.Second, 10*time.Millisecond)

	big := strings.Repeat("a", maxFrameSize+1)
	require.NoError(t, conn.WriteJSON(envelope.Envelope{Text: big}))

	require.Eventually(t, func() bool { return env.handler.PeerCount() == 0 }, 3*time.Second, 10*time.Millisecond)
	assert.Empty(t, env.messages(t))
}
