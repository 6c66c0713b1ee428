package resonance

import (
	"sync"
	"time"
)

// DefaultHistorySize is the history cap used when NewState gets a non-positive size.
const DefaultHistorySize = 50

// Frequency is one observed resonance reading.
type Frequency struct {
	Type      Type      `json:"type"`
	Intensity Intensity `json:"intensity"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// State is an explicitly owned resonance container: the current frequency,
// the watcher state and a bounded most-recent-first history.
// It is safe for concurrent use.
type State struct {
	mu      sync.RWMutex
	size    int
	now     func() time.Time
	current Frequency
	watcher WatcherState
	history []Frequency
}

// StateOption configures a State.
type StateOption func(*State)

// WithClock sets the clock used to timestamp readings.
func WithClock(now func() time.Time) StateOption {
	return func(s *State) {
		if now != nil {
			s.now = now
		}
	}
}

// NewState creates a State holding at most historySize readings.
func NewState(historySize int, opts ...StateOption) *State {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	s := &State{size: historySize, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

// Reset restores the initial reading and watcher state and clears history.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Frequency{
		Type:      Harmonic,
		Intensity: DefaultIntensity,
		Timestamp: s.now(),
		Source:    "initialization",
	}
	s.watcher = Passive
	s.history = nil
}

// Current returns the latest reading.
func (s *State) Current() Frequency {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set records a new reading and pushes it onto the history, evicting the
// oldest entry beyond the cap. Invalid values fall back to Harmonic and
// DefaultIntensity.
func (s *State) Set(t Type, i Intensity, source string) Frequency {
	if !t.Valid() {
		t = Harmonic
	}
	if !i.Valid() {
		i = DefaultIntensity
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f := Frequency{Type: t, Intensity: i, Timestamp: s.now(), Source: source}
	s.current = f

	history := make([]Frequency, 0, min(len(s.history)+1, s.size))
	history = append(history, f)
	for _, h := range s.history {
		if len(history) == s.size {
			break
		}
		history = append(history, h)
	}
	s.history = history
	return f
}

// History returns a copy of the readings, most recent first.
func (s *State) History() []Frequency {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Frequency, len(s.history))
	copy(out, s.history)
	return out
}

// Watcher returns the watcher state.
func (s *State) Watcher() WatcherState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watcher
}

// SetWatcher changes the watcher state. Unknown states are ignored.
func (s *State) SetWatcher(w WatcherState) {
	if !w.Valid() {
		return
	}
	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
}
