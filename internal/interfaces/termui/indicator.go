package termui

import (
	"strings"
	"time"
)

const thinkingText = "Thinking"

// StartThinking shows the thinking indicator, cycling one to three dots on a
// fixed interval for the duration of a backend call. The indicator timer is
// singular: starting it again cancels the previous instance first.
func (r *Renderer) StartThinking() {
	t := newTask()
	r.taskMu.Lock()
	if r.indicator != nil {
		prev := r.indicator
		r.taskMu.Unlock()
		prev.cancel()
		r.taskMu.Lock()
	}
	r.indicator = t
	r.taskMu.Unlock()

	go func() {
		defer close(t.done)

		ticker := time.NewTicker(r.thinkInterval)
		defer ticker.Stop()

		dots := 1
		r.write("\n" + r.dim(thinkingText+"."))
		for {
			select {
			case <-t.stop:
				r.write(clearLineSeq)
				return
			case <-ticker.C:
				dots = dots%3 + 1
				r.write(clearLineSeq + r.dim(thinkingText+strings.Repeat(".", dots)))
			}
		}
	}()
}

// StopThinking hides the indicator and stops its animation.
func (r *Renderer) StopThinking() {
	r.taskMu.Lock()
	t := r.indicator
	r.indicator = nil
	r.taskMu.Unlock()
	if t != nil {
		t.cancel()
	}
}
