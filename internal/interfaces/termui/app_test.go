package termui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guidechat/internal/config"
	"guidechat/internal/domain/conversation"
	"guidechat/internal/infrastructure/backend"
	"guidechat/internal/infrastructure/speech"
)

type memoryRepo struct {
	mu  sync.Mutex
	set map[string]*conversation.Conversation
}

func (r *memoryRepo) Load() (map[string]*conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.set == nil {
		return map[string]*conversation.Conversation{}, nil
	}
	return r.set, nil
}

func (r *memoryRepo) Save(set map[string]*conversation.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set = set
	return nil
}

type fakeAsker struct {
	mu      sync.Mutex
	answer  *backend.Answer
	err     error
	release chan struct{}
	queries []string
}

func (c *fakeAsker) Ask(ctx context.Context, query string) (*backend.Answer, error) {
	c.mu.Lock()
	c.queries = append(c.queries, query)
	release := c.release
	answer, err := c.answer, c.err
	c.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return answer, err
}

func newTestApp(t *testing.T, client Asker) (*App, *conversation.Store, *syncBuffer) {
	t.Helper()

	out := &syncBuffer{}
	speechCtl := speech.NewController(&stubPrefs{}, nil)
	renderer := NewRenderer(out, speechCtl, 0, 0, 10*time.Millisecond)
	profile := config.DefaultProfile()

	app := NewApp(client, renderer, speechCtl, profile, zerolog.Nop())
	store := conversation.NewStore(&memoryRepo{}, profile.Greeting, app.Confirm, app)
	app.SetStore(store)
	require.NoError(t, store.Open())
	return app, store, out
}

func TestSend_AppendsUserMessageAndAnswer(t *testing.T) {
	client := &fakeAsker{answer: &backend.Answer{Answer: "take it slowly"}}
	app, store, _ := newTestApp(t, client)

	app.Send("how do I start?")
	app.WaitPending()
	app.renderer.WaitForReveal()

	active := store.Active()
	require.Len(t, active.Messages, 3) // greeting, question, answer
	assert.Equal(t, conversation.RoleUser, active.Messages[1].Role)
	assert.Equal(t, "how do I start?", active.Messages[1].Content)
	assert.Equal(t, conversation.RoleAssistant, active.Messages[2].Role)
	assert.Equal(t, "take it slowly", active.Messages[2].Content)
	assert.Equal(t, []string{"how do I start?"}, client.queries)
}

func TestSend_BackendFailureAppendsSingleErrorMessage(t *testing.T) {
	client := &fakeAsker{err: errors.New("connection refused")}
	app, store, _ := newTestApp(t, client)
	before := store.ActiveID()

	app.Send("anybody there?")
	app.WaitPending()

	active := store.Active()
	require.Len(t, active.Messages, 3)
	last := active.Messages[2]
	assert.Equal(t, conversation.RoleAssistant, last.Role)
	assert.Contains(t, last.Content, "Sorry, there was an error:")
	assert.Contains(t, last.Content, "connection refused")
	assert.Equal(t, before, store.ActiveID(), "a failed request must not move focus")
}

func TestSend_MissingAnswerUsesFormatMessage(t *testing.T) {
	client := &fakeAsker{err: backend.ErrMissingAnswer}
	app, store, _ := newTestApp(t, client)

	app.Send("hello")
	app.WaitPending()

	active := store.Active()
	require.Len(t, active.Messages, 3)
	assert.Equal(t, "Sorry, I received a response in an unexpected format.", active.Messages[2].Content)
}

func TestSend_LateAnswerLandsInOriginatingConversation(t *testing.T) {
	client := &fakeAsker{
		answer:  &backend.Answer{Answer: "late but correct"},
		release: make(chan struct{}),
	}
	app, store, _ := newTestApp(t, client)
	first := store.ActiveID()

	app.Send("slow question")
	second := store.Create().ID
	close(client.release)
	app.WaitPending()

	assert.Equal(t, second, store.ActiveID(), "a late answer must not steal focus")

	origin, ok := store.Get(first)
	require.True(t, ok)
	require.Len(t, origin.Messages, 3)
	assert.Equal(t, "late but correct", origin.Messages[2].Content)

	current, ok := store.Get(second)
	require.True(t, ok)
	require.Len(t, current.Messages, 1, "the new conversation only has its greeting")
}

func TestSend_AnswerForDeletedConversationIsDropped(t *testing.T) {
	client := &fakeAsker{
		answer:  &backend.Answer{Answer: "nobody is listening"},
		release: make(chan struct{}),
	}
	app, store, _ := newTestApp(t, client)
	first := store.ActiveID()

	app.Send("question into the void")
	store.Create()

	go func() { app.lines <- "y" }()
	store.Delete(first)

	close(client.release)
	app.WaitPending()

	_, ok := store.Get(first)
	assert.False(t, ok)
	for _, conv := range store.Sorted() {
		for _, msg := range conv.Messages {
			assert.NotEqual(t, "nobody is listening", msg.Content)
		}
	}
}

func TestDispatch_SendsPlainText(t *testing.T) {
	client := &fakeAsker{answer: &backend.Answer{Answer: "ok"}}
	app, _, _ := newTestApp(t, client)

	quit := app.Dispatch("just a message")
	app.WaitPending()
	app.renderer.WaitForReveal()

	assert.False(t, quit)
	assert.Equal(t, []string{"just a message"}, client.queries)
}

func TestDispatch_QuitAndUnknown(t *testing.T) {
	app, _, out := newTestApp(t, &fakeAsker{})

	assert.True(t, app.Dispatch("/quit"))
	assert.True(t, app.Dispatch("/exit"))
	assert.False(t, app.Dispatch(""))
	assert.False(t, app.Dispatch("/bogus"))
	assert.Contains(t, out.String(), "Unknown command /bogus")
}

func TestDispatch_NewCreatesConversation(t *testing.T) {
	app, store, _ := newTestApp(t, &fakeAsker{})

	app.Dispatch("/new")
	assert.Len(t, store.Sorted(), 2)
}

func TestDispatch_OpenByListNumber(t *testing.T) {
	app, store, _ := newTestApp(t, &fakeAsker{})
	first := store.ActiveID()
	store.Create()

	// The sidebar lists most-recently-updated first, so the original
	// conversation is number 2.
	app.Dispatch("/open 2")
	assert.Equal(t, first, store.ActiveID())
}

func TestDispatch_OpenRejectsBadNumbers(t *testing.T) {
	app, store, out := newTestApp(t, &fakeAsker{})
	active := store.ActiveID()

	app.Dispatch("/open 7")
	app.Dispatch("/open zero")
	app.Dispatch("/open")

	assert.Equal(t, active, store.ActiveID())
	assert.Contains(t, out.String(), "No such conversation")
}

func TestDispatch_DeleteDeclinedKeepsConversation(t *testing.T) {
	app, store, _ := newTestApp(t, &fakeAsker{})
	store.Create()

	go func() { app.lines <- "n" }()
	app.Dispatch("/delete 1")

	assert.Len(t, store.Sorted(), 2)
}

func TestDispatch_ClearConfirmedStartsFresh(t *testing.T) {
	app, store, _ := newTestApp(t, &fakeAsker{})
	store.Create()
	store.Create()

	go func() { app.lines <- "yes" }()
	app.Dispatch("/clear")

	list := store.Sorted()
	require.Len(t, list, 1)
	assert.Equal(t, conversation.DefaultTitle, list[0].Title)
}

func TestDispatch_AskSendsExampleQuestion(t *testing.T) {
	client := &fakeAsker{answer: &backend.Answer{Answer: "ok"}}
	app, _, _ := newTestApp(t, client)

	app.Dispatch("/ask 1")
	app.WaitPending()
	app.renderer.WaitForReveal()

	require.Len(t, client.queries, 1)
	assert.Equal(t, app.profile.Examples[0], client.queries[0])
}

func TestDispatch_AskBlockedAfterFirstUserMessage(t *testing.T) {
	client := &fakeAsker{answer: &backend.Answer{Answer: "ok"}}
	app, _, out := newTestApp(t, client)

	app.Send("my own question")
	app.WaitPending()
	app.renderer.WaitForReveal()

	app.Dispatch("/ask 1")
	app.WaitPending()

	assert.Len(t, client.queries, 1, "examples are hidden once the user has asked something")
	assert.Contains(t, out.String(), "hidden for this conversation")
}

func TestDispatch_VoiceUnavailableNotice(t *testing.T) {
	app, _, out := newTestApp(t, &fakeAsker{})

	app.Dispatch("/voice")
	assert.Contains(t, out.String(), "not available")
}

func TestConfirm_ReadsAnswerFromInput(t *testing.T) {
	app, _, _ := newTestApp(t, &fakeAsker{})

	for line, want := range map[string]bool{
		"y":   true,
		"Y":   true,
		"yes": true,
		"n":   false,
		"":    false,
		"ok":  false,
	} {
		go func(l string) { app.lines <- l }(line)
		assert.Equal(t, want, app.Confirm("sure?"), "answer %q", line)
	}
}

func TestConversationsChanged_RepaintsOnlyOnVisibleChange(t *testing.T) {
	app, _, out := newTestApp(t, &fakeAsker{})

	list := []*conversation.Conversation{
		{ID: "conv_a", Title: "first", LastUpdated: 2},
		{ID: "conv_b", Title: "second", LastUpdated: 1},
	}
	app.ConversationsChanged(list, "conv_a")
	first := out.String()

	// Same list again: nothing visible changed, no repaint.
	app.ConversationsChanged(list, "conv_a")
	assert.Equal(t, first, out.String())

	app.ConversationsChanged(list, "conv_b")
	assert.NotEqual(t, first, out.String())
}

func TestRun_QuitCommandStopsLoop(t *testing.T) {
	app, _, _ := newTestApp(t, &fakeAsker{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx, strings.NewReader("/quit\n")) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run loop did not exit on /quit")
	}
}
