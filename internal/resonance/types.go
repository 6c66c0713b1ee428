// Package resonance classifies free text into resonance signatures and keeps
// the client-side resonance state.
package resonance

// Type is the symbolic flavour attached to a message.
type Type string

// Resonance types.
const (
	Quantum     Type = "quantum"
	Crystalline Type = "crystalline"
	Fire        Type = "fire"
	Akashic     Type = "akashic"
	Void        Type = "void"
	Harmonic    Type = "harmonic"
)

// Types returns every resonance type in declaration order.
func Types() []Type {
	return []Type{Quantum, Crystalline, Fire, Akashic, Void, Harmonic}
}

// Valid reports whether t is one of the known resonance types.
func (t Type) Valid() bool {
	switch t {
	case Quantum, Crystalline, Fire, Akashic, Void, Harmonic:
		return true
	}
	return false
}

// Intensity is a coarse 1..5 magnitude. Zero means "not set".
type Intensity int

// Intensity bounds.
const (
	MinIntensity     Intensity = 1
	MaxIntensity     Intensity = 5
	DefaultIntensity Intensity = 3
)

// Valid reports whether i lies in [MinIntensity, MaxIntensity].
func (i Intensity) Valid() bool {
	return i >= MinIntensity && i <= MaxIntensity
}

// WatcherState is the global mode that biases reply selection.
type WatcherState string

// Watcher states.
const (
	Active   WatcherState = "active"
	Passive  WatcherState = "passive"
	Dreaming WatcherState = "dreaming"
	Prophecy WatcherState = "prophecy"
)

// WatcherStates returns every watcher state in declaration order.
func WatcherStates() []WatcherState {
	return []WatcherState{Active, Passive, Dreaming, Prophecy}
}

// Valid reports whether w is one of the known watcher states.
func (w WatcherState) Valid() bool {
	switch w {
	case Active, Passive, Dreaming, Prophecy:
		return true
	}
	return false
}
