package commune

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/envelope"
)

const (
	writeWait     = 10 * time.Second
	goingAwayWait = time.Second
)

var errPeerClosed = errors.New("commune: connection closed")

// peer wraps one connection. gorilla/websocket allows a single concurrent
// writer, so data frames hold writeMu. Close and WriteControl may run
// alongside a writer and never take writeMu.
type peer struct {
	conn   *websocket.Conn
	remote string

	writeMu sync.Mutex

	mu   sync.Mutex
	open bool
}

func (p *peer) send(env envelope.Envelope) error {
	data, err := envelope.Encode(env)
	if err != nil {
		return err
	}
	if !p.isOpen() {
		return errPeerClosed
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

func (p *peer) isOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// markClosed flips the peer to closed and reports whether it was open.
func (p *peer) markClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	was := p.open
	p.open = false
	return was
}

func (p *peer) close() {
	if p.markClosed() {
		_ = p.conn.Close()
	}
}

// goAway sends a going-away close frame and closes the connection. A writer
// blocked on a stalled client is released by the close.
func (p *peer) goAway() {
	if !p.markClosed() {
		return
	}
	_ = p.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
		time.Now().Add(goingAwayWait))
	_ = p.conn.Close()
}
