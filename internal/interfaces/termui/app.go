package termui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"guidechat/internal/config"
	"guidechat/internal/domain/conversation"
	"guidechat/internal/infrastructure/backend"
	"guidechat/internal/infrastructure/speech"
)

// Asker is the slice of the backend client the app needs.
type Asker interface {
	Ask(ctx context.Context, query string) (*backend.Answer, error)
}

// App wires the conversation store, backend client, renderer and speech
// controller together and reacts to the user's input events.
type App struct {
	store    *conversation.Store
	client   Asker
	renderer *Renderer
	speech   *speech.Controller
	profile  *config.Profile
	log      zerolog.Logger

	lines chan string
	ctx   context.Context

	mu             sync.Mutex
	listIndex      []string
	sidebarState   string
	examplesHidden bool
	pending        sync.WaitGroup
}

// NewApp builds the application shell. SetStore must be called before Run;
// the store needs the app as its listener, so construction happens in two
// steps.
func NewApp(client Asker, renderer *Renderer, speechCtl *speech.Controller, profile *config.Profile, log zerolog.Logger) *App {
	return &App{
		client:   client,
		renderer: renderer,
		speech:   speechCtl,
		profile:  profile,
		log:      log,
		lines:    make(chan string),
	}
}

// SetStore attaches the conversation store the app drives.
func (a *App) SetStore(store *conversation.Store) {
	a.store = store
}

// Confirm asks a yes/no question on the terminal and reads the reply from
// the input stream. Destructive actions (delete, clear) always pass through
// here.
func (a *App) Confirm(prompt string) bool {
	a.renderer.write(prompt + " [y/N] ")
	select {
	case line := <-a.lines:
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	case <-a.done():
		return false
	}
}

func (a *App) done() <-chan struct{} {
	return a.context().Done()
}

func (a *App) context() context.Context {
	if a.ctx != nil {
		return a.ctx
	}
	return context.Background()
}

// Send appends the user's message to the active conversation, shows it
// immediately, and asks the backend in the background. The request is tagged
// with the originating conversation so a late answer cannot land in a
// different thread.
func (a *App) Send(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	now := time.Now().UnixMilli()
	convID := a.store.ActiveID()
	a.renderer.RenderInstant(conversation.Message{Role: conversation.RoleUser, Content: text, Time: now})
	a.store.Append(conversation.RoleUser, text, now)

	a.renderer.StartThinking()
	a.pending.Add(1)
	go func() {
		defer a.pending.Done()
		a.ask(convID, text)
	}()
}

func (a *App) ask(convID, text string) {
	answer, err := a.client.Ask(a.context(), text)
	a.renderer.StopThinking()

	now := time.Now().UnixMilli()
	if err != nil {
		content := errorReply(err)
		a.log.Error().Err(err).Str("conversation", convID).Msg("backend request failed")
		a.deliver(convID, content, now, false)
		return
	}

	a.deliver(convID, answer.Answer, now, true)
}

// deliver appends an assistant message to its originating conversation and
// renders it when that conversation is still the active one. Answers for
// conversations deleted in the meantime are dropped with a log line.
func (a *App) deliver(convID, content string, timestamp int64, reveal bool) {
	msg := conversation.Message{Role: conversation.RoleAssistant, Content: content, Time: timestamp}
	if err := a.store.AppendTo(convID, msg.Role, msg.Content, msg.Time); err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			a.log.Info().Str("conversation", convID).Msg("dropping answer for deleted conversation")
			return
		}
		a.log.Warn().Err(err).Msg("append assistant message")
		return
	}

	if a.store.ActiveID() != convID {
		// Stored silently; the next activation repaints it instantly.
		return
	}
	if reveal {
		a.renderer.RenderWithReveal(msg)
	} else {
		a.renderer.RenderInstant(msg)
	}
}

func errorReply(err error) string {
	if errors.Is(err, backend.ErrMissingAnswer) {
		return "Sorry, I received a response in an unexpected format."
	}
	return fmt.Sprintf("Sorry, there was an error: %v", err)
}

// Dispatch handles one line of user input: either a /command or a message
// to send.
func (a *App) Dispatch(line string) (quit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		a.Send(line)
		return false
	}

	fields := strings.Fields(line)
	command, args := fields[0], fields[1:]

	switch command {
	case "/new":
		a.speech.Stop()
		a.store.Create()
	case "/list":
		a.renderer.RenderSidebar(a.store.Sorted(), a.store.ActiveID())
	case "/open":
		if id, ok := a.conversationArg(args); ok {
			a.store.SetActive(id)
		}
	case "/delete":
		if id, ok := a.conversationArg(args); ok {
			a.store.Delete(id)
		}
	case "/clear":
		a.store.ClearAll()
	case "/voice":
		if !a.speech.Available() {
			a.renderer.RenderNotice("Voice playback is not available on this system.")
			break
		}
		if a.speech.Toggle() {
			a.renderer.RenderNotice("Voice on.")
		} else {
			a.renderer.RenderNotice("Voice off.")
		}
	case "/stop":
		a.speech.Stop()
	case "/play":
		a.playLastAnswer()
	case "/ask":
		a.sendExample(args)
	case "/examples":
		a.renderer.RenderExamples(a.profile.Examples)
	case "/help":
		a.renderer.RenderNotice(helpText)
	case "/quit", "/exit":
		return true
	default:
		a.renderer.RenderNotice(fmt.Sprintf("Unknown command %s. Try /help.", command))
	}
	return false
}

const helpText = `Commands:
  /new          start a new conversation
  /list         list conversations
  /open <n>     switch to conversation n from /list
  /delete <n>   delete conversation n from /list
  /clear        clear all conversation history
  /examples     show example questions
  /ask <n>      send example question n
  /voice        toggle voice playback
  /play         read the last answer aloud
  /stop         stop voice playback
  /quit         exit`

// conversationArg resolves a 1-based sidebar position into a conversation
// id.
func (a *App) conversationArg(args []string) (string, bool) {
	a.mu.Lock()
	index := append([]string(nil), a.listIndex...)
	a.mu.Unlock()

	if len(args) != 1 {
		a.renderer.RenderNotice("Give a conversation number from /list.")
		return "", false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(index) {
		a.renderer.RenderNotice("No such conversation. Run /list to see numbers.")
		return "", false
	}
	return index[n-1], true
}

func (a *App) sendExample(args []string) {
	a.mu.Lock()
	hidden := a.examplesHidden
	a.mu.Unlock()
	if hidden {
		a.renderer.RenderNotice("Example prompts are hidden for this conversation.")
		return
	}
	if len(args) != 1 {
		a.renderer.RenderNotice("Give an example number from /examples.")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(a.profile.Examples) {
		a.renderer.RenderNotice("No such example. Run /examples to see them.")
		return
	}
	a.Send(a.profile.Examples[n-1])
}

func (a *App) playLastAnswer() {
	active := a.store.Active()
	if active == nil {
		return
	}
	for i := len(active.Messages) - 1; i >= 0; i-- {
		if active.Messages[i].Role == conversation.RoleAssistant {
			a.speech.Speak(active.Messages[i].Content)
			return
		}
	}
}

// WaitPending blocks until in-flight backend requests have delivered. Used
// by tests.
func (a *App) WaitPending() {
	a.pending.Wait()
}
