// Package sensory is the narrow one-way interface to sound and haptic
// feedback. The engine only ever fires effects into it; nothing flows back.
package sensory

import (
	"fmt"
	"io"
)

type Effect string

const (
	EffectAdd      Effect = "add"
	EffectComplete Effect = "complete"
	EffectWarning  Effect = "warning"
)

type Haptic string

const (
	HapticLight  Haptic = "light"
	HapticMedium Haptic = "medium"
	HapticPulse  Haptic = "pulse"
)

// Player receives fire-and-forget feedback cues.
type Player interface {
	Play(Effect)
	Vibrate(Haptic)
}

// Null swallows every cue. Used by tests and headless runs.
type Null struct{}

func (Null) Play(Effect)    {}
func (Null) Vibrate(Haptic) {}

// Console renders cues as terminal glyphs, honoring the user's sound and
// haptics preferences via the enabled callback.
type Console struct {
	Out     io.Writer
	Enabled func() (sound bool, haptics bool)
}

func (c Console) Play(e Effect) {
	if c.Out == nil {
		return
	}
	if c.Enabled != nil {
		if sound, _ := c.Enabled(); !sound {
			return
		}
	}
	switch e {
	case EffectAdd:
		fmt.Fprintln(c.Out, "♪ plink")
	case EffectComplete:
		fmt.Fprintln(c.Out, "♪ ding")
	case EffectWarning:
		fmt.Fprintln(c.Out, "♪ buzz")
	}
}

func (c Console) Vibrate(h Haptic) {
	if c.Out == nil {
		return
	}
	if c.Enabled != nil {
		if _, haptics := c.Enabled(); !haptics {
			return
		}
	}
	switch h {
	case HapticPulse:
		fmt.Fprintln(c.Out, "~ pulse ~")
	default:
		// Light and medium taps stay silent on a terminal.
	}
}
