package bot

import (
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/surveybot/core/telegram/state"
)

type sentMessage struct {
	what interface{}
	opts []interface{}
}

// fakeTeleCtx implements the slice of tele.Context the feedback handlers
// touch; everything else panics via the nil embedded interface.
type fakeTeleCtx struct {
	tele.Context
	kv       map[string]interface{}
	sender   *tele.User
	callback *tele.Callback
	sent     []sentMessage
}

func newFakeTeleCtx(userID int64, cb *tele.Callback) *fakeTeleCtx {
	return &fakeTeleCtx{
		kv:       make(map[string]interface{}),
		sender:   &tele.User{ID: userID},
		callback: cb,
	}
}

func (c *fakeTeleCtx) Sender() *tele.User       { return c.sender }
func (c *fakeTeleCtx) Chat() *tele.Chat         { return &tele.Chat{ID: c.sender.ID} }
func (c *fakeTeleCtx) Update() tele.Update      { return tele.Update{ID: 1} }
func (c *fakeTeleCtx) Callback() *tele.Callback { return c.callback }

func (c *fakeTeleCtx) Get(key string) interface{} { return c.kv[key] }
func (c *fakeTeleCtx) Set(key string, val interface{}) {
	c.kv[key] = val
}

func (c *fakeTeleCtx) Send(what interface{}, opts ...interface{}) error {
	c.sent = append(c.sent, sentMessage{what: what, opts: opts})
	return nil
}

func sentOptions(t *testing.T, msg sentMessage) *tele.SendOptions {
	t.Helper()
	if len(msg.opts) != 1 {
		t.Fatalf("send options = %d, want 1", len(msg.opts))
	}
	opts, ok := msg.opts[0].(*tele.SendOptions)
	if !ok {
		t.Fatalf("unexpected option type %T", msg.opts[0])
	}
	return opts
}

func TestFeedbackStartCallbackPrompt(t *testing.T) {
	states := state.NewMemoryManager()
	h := &Handlers{states: states}
	c := newFakeTeleCtx(testUserID, &tele.Callback{})

	if err := h.handleFeedbackStart(c); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := states.GetState(testUserID); got != StateAwaitingFeedback {
		t.Fatalf("state = %s, want %s", got, StateAwaitingFeedback)
	}
	if len(c.sent) != 1 || c.sent[0].what != msgFeedbackPrompt {
		t.Fatalf("sent = %+v, want the support prompt", c.sent)
	}
}

func TestFeedbackStartQuickButtonPrompt(t *testing.T) {
	states := state.NewMemoryManager()
	h := &Handlers{states: states}
	c := newFakeTeleCtx(testUserID, nil)

	if err := h.handleFeedbackStart(c); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := states.GetState(testUserID); got != StateAwaitingFeedback {
		t.Fatalf("state = %s, want %s", got, StateAwaitingFeedback)
	}
	if len(c.sent) != 1 || c.sent[0].what != msgFeedbackPromptShort {
		t.Fatalf("sent = %+v, want the short prompt", c.sent)
	}
	opts := sentOptions(t, c.sent[0])
	if opts.ReplyMarkup == nil || !opts.ReplyMarkup.RemoveKeyboard {
		t.Fatal("quick-button prompt must drop the reply keyboard")
	}
}

const testUserID int64 = 42
