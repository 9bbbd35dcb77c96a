package termui

import (
	"strings"
	"time"

	"guidechat/internal/domain/conversation"
	"guidechat/internal/utils/markup"
)

// RenderWithReveal renders a freshly received assistant answer with the
// typewriter effect: markup tags are emitted atomically while plain
// characters appear one at a time. The reveal is purely cosmetic — the
// persisted message is already complete — and only one reveal runs at a
// time: starting a new one cancels the previous instance.
func (r *Renderer) RenderWithReveal(msg conversation.Message) {
	formatted := markup.Format(msg.Content)
	tokens := markup.Tokens(formatted)

	t := newTask()
	r.taskMu.Lock()
	if r.reveal != nil {
		prev := r.reveal
		r.taskMu.Unlock()
		prev.cancel()
		r.taskMu.Lock()
	}
	r.reveal = t
	r.taskMu.Unlock()

	var header strings.Builder
	r.header(&header, msg)
	r.write(header.String())

	go func() {
		defer close(t.done)

		select {
		case <-time.After(r.revealDelay):
		case <-t.stop:
			r.write("\n")
			return
		}

		for _, tok := range tokens {
			if t.cancelled() {
				// Leave the line terminated; the full message lives in the
				// store and repaints instantly on the next activation.
				r.write("\n")
				return
			}
			out := renderToken(tok, r.color)
			if out != "" {
				r.write(out)
			}
			if !strings.HasPrefix(tok, "<") && r.revealInterval > 0 {
				select {
				case <-time.After(r.revealInterval):
				case <-t.stop:
					r.write("\n")
					return
				}
			}
		}

		var tail strings.Builder
		tail.WriteString("\n")
		r.playbackHint(&tail)
		r.write(tail.String())

		if r.speech.Enabled() {
			r.speech.Speak(msg.Content)
		}
	}()
}

// CancelReveal stops any in-progress reveal and waits for it to finish
// writing.
func (r *Renderer) CancelReveal() {
	r.taskMu.Lock()
	t := r.reveal
	r.reveal = nil
	r.taskMu.Unlock()
	if t != nil {
		t.cancel()
	}
}

// WaitForReveal blocks until the current reveal, if any, completes. Used by
// tests and by shutdown.
func (r *Renderer) WaitForReveal() {
	r.taskMu.Lock()
	t := r.reveal
	r.taskMu.Unlock()
	if t != nil {
		<-t.done
	}
}
