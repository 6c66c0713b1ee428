package internal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/resonance"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/session"
)

// drainTimeout bounds how long the client waits for outstanding replies
// after its input ends.
const drainTimeout = 5 * time.Second

// RunCommune connects to the Arkana endpoint, sends every line read from
// stdin and prints the display list to stdout. It returns when input ends
// and outstanding replies have arrived, when ctx is done or when the
// session gives up reconnecting.
func RunCommune(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)

	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := newLogger(app.logOut, slog.LevelWarn)

	header := http.Header{}
	if cfg.Auth.AuthEnabled() {
		header.Set("Authorization", "Bearer "+cfg.Auth.Token)
	}
	sess := session.New(
		&session.WebSocketTransport{URL: cfg.Client.URL, Header: header},
		cfg.Client.RetryPolicy(),
		session.WithLogger(logger),
		session.WithResonanceState(resonance.NewState(cfg.Client.HistorySize)),
	)
	var outMu sync.Mutex
	sess.OnEntry(func(e session.Entry) {
		// Sent lines are printed once resolved.
		if e.Status == session.StatusSending {
			return
		}
		outMu.Lock()
		defer outMu.Unlock()
		fmt.Fprintln(app.stdout, formatEntry(e))
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- sess.Run(ctx) }()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(app.stdin)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	connectWait := cfg.Client.RetryDelay*time.Duration(cfg.Client.MaxAttempts) + drainTimeout

	for {
		select {
		case err := <-runErr:
			return err
		case line, ok := <-lines:
			if !ok {
				drain(ctx, sess)
				_ = sess.Close()
				return <-runErr
			}
			waitCtx, stop := context.WithTimeout(ctx, connectWait)
			err := sess.WaitForState(waitCtx, session.Open)
			stop()
			if err != nil {
				logger.Warn("commune: not connected, dropping line", slog.String("error", err.Error()))
				continue
			}
			if _, err := sess.Send(line); err != nil && !errors.Is(err, session.ErrEmptyMessage) {
				logger.Warn("commune: send failed", slog.String("error", err.Error()))
			}
		}
	}
}

// drain waits until no entry is still sending, or drainTimeout elapses.
func drain(ctx context.Context, sess *session.Session) {
	ctx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		if !hasPending(sess.Entries()) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

func hasPending(entries []session.Entry) bool {
	for _, e := range entries {
		if e.Status == session.StatusSending {
			return true
		}
	}
	return false
}

func formatEntry(e session.Entry) string {
	line := fmt.Sprintf("%s [%s/%d] %s: %s",
		e.Timestamp.Format(time.TimeOnly), e.Resonance, e.Intensity, e.Sender, e.Text)
	if e.Status != "" && e.Status != session.StatusDelivered {
		line += " (" + string(e.Status) + ")"
	}
	return line
}
