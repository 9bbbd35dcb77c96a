// Package speech wraps the platform speech synthesizer behind an at-most-one
// utterance controller with a persisted on/off preference.
package speech

import (
	"sync"

	"guidechat/internal/infrastructure/logger"
	"guidechat/internal/utils/markup"
)

// Preferences persists the voice on/off flag.
type Preferences interface {
	SpeechEnabled() bool
	SetSpeechEnabled(enabled bool) error
}

// utterance is one in-flight synthesis.
type utterance interface {
	stop()
	wait() error
}

// Synthesizer starts speaking text and returns a handle to it.
type Synthesizer interface {
	speak(text string) (utterance, error)
}

// Controller enforces at-most-one active utterance system-wide. When the
// platform lacks a synthesizer the controller stays usable and every Speak
// is a silent no-op.
type Controller struct {
	prefs Preferences
	synth Synthesizer

	mu      sync.Mutex
	enabled bool
	current utterance
	gen     int
}

// NewController restores the persisted preference. synth may be nil when the
// platform has no synthesizer.
func NewController(prefs Preferences, synth Synthesizer) *Controller {
	if synth == nil {
		log := logger.GetLogger()
		log.Info().Msg("no speech synthesizer available, voice playback disabled")
	}
	return &Controller{
		prefs:   prefs,
		synth:   synth,
		enabled: prefs.SpeechEnabled(),
	}
}

// Available reports whether the platform can synthesize speech at all.
func (c *Controller) Available() bool {
	return c.synth != nil
}

// Enabled reports the current voice preference.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Toggle flips the voice preference, persists it, and cancels any in-flight
// utterance when turning off. Returns the new state.
func (c *Controller) Toggle() bool {
	c.mu.Lock()
	c.enabled = !c.enabled
	enabled := c.enabled
	var stopped utterance
	if !enabled && c.current != nil {
		stopped = c.current
		c.current = nil
		c.gen++
	}
	c.mu.Unlock()

	if stopped != nil {
		stopped.stop()
	}
	if err := c.prefs.SetSpeechEnabled(enabled); err != nil {
		log := logger.GetLogger()
		log.Warn().Err(err).Msg("persist speech preference")
	}
	return enabled
}

// Speak reads text aloud with the configured voice. No-op when disabled or
// the platform lacks a synthesizer. Any utterance still playing is cancelled
// first. The text is cleaned of markdown markers and markup tags before
// synthesis.
func (c *Controller) Speak(text string) {
	c.mu.Lock()
	if !c.enabled || c.synth == nil {
		c.mu.Unlock()
		return
	}
	if c.current != nil {
		c.current.stop()
		c.current = nil
	}

	clean := markup.Strip(text)
	if clean == "" {
		c.mu.Unlock()
		return
	}

	u, err := c.synth.speak(clean)
	if err != nil {
		c.mu.Unlock()
		log := logger.GetLogger()
		log.Warn().Err(err).Msg("start speech synthesis")
		return
	}

	c.current = u
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	go func() {
		_ = u.wait()
		c.mu.Lock()
		if c.gen == gen {
			c.current = nil
		}
		c.mu.Unlock()
	}()
}

// Stop cancels any in-flight utterance unconditionally. Called on
// conversation switch and on explicit user stop.
func (c *Controller) Stop() {
	c.mu.Lock()
	stopped := c.current
	c.current = nil
	if stopped != nil {
		c.gen++
	}
	c.mu.Unlock()

	if stopped != nil {
		stopped.stop()
	}
}
