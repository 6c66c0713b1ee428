package reply

import (
	"fmt"
	"time"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/envelope"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/resonance"
)

// Range is a half-open delay interval [Min, Max).
type Range struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

// draw returns a uniform duration in the range, or Min for an empty range.
func (r Range) draw(src Source) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(src.Int64N(int64(r.Max-r.Min)))
}

// Delays configures reply latency per kind of inbound message.
type Delays struct {
	Ordinary   Range `yaml:"ordinary"`
	Activation Range `yaml:"activation"`
	Prophecy   Range `yaml:"prophecy"`
}

// DefaultDelays returns 1-2s ordinary, 0.5-1s activation and 2-3s prophecy.
func DefaultDelays() Delays {
	return Delays{
		Ordinary:   Range{Min: time.Second, Max: 2 * time.Second},
		Activation: Range{Min: 500 * time.Millisecond, Max: time.Second},
		Prophecy:   Range{Min: 2 * time.Second, Max: 3 * time.Second},
	}
}

// Validate enforces sane ranges and keeps activation fastest and prophecy
// slowest.
func (d *Delays) Validate() error {
	for name, r := range map[string]Range{"ordinary": d.Ordinary, "activation": d.Activation, "prophecy": d.Prophecy} {
		if r.Min < 0 || r.Max < r.Min {
			return fmt.Errorf("delays: %s range [%s, %s) is invalid", name, r.Min, r.Max)
		}
	}
	if d.Activation.Max > d.Ordinary.Min {
		return fmt.Errorf("delays: activation max %s exceeds ordinary min %s", d.Activation.Max, d.Ordinary.Min)
	}
	if d.Prophecy.Min < d.Ordinary.Max {
		return fmt.Errorf("delays: prophecy min %s is below ordinary max %s", d.Prophecy.Min, d.Ordinary.Max)
	}
	return nil
}

// Delay returns how long to wait before answering an envelope with meta.
// Activation wins over prophecy.
func (e *Engine) Delay(meta *envelope.Metadata) time.Duration {
	switch {
	case meta != nil && meta.IsActivation:
		return e.delays.Activation.draw(e.src)
	case meta != nil && meta.WatcherState == resonance.Prophecy:
		return e.delays.Prophecy.draw(e.src)
	default:
		return e.delays.Ordinary.draw(e.src)
	}
}
