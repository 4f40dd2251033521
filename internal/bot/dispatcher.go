package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/surveybot/core/telegram/commands"
	tghelpers "github.com/m3rciful/surveybot/core/telegram/helpers"
	"github.com/m3rciful/surveybot/core/telegram/state"
	"github.com/m3rciful/surveybot/internal/feedback"
	"github.com/m3rciful/surveybot/internal/survey"
)

type commandLookup interface {
	LookupCommand(name string) (string, commands.Command, bool)
}

// TextDispatcher decides what a plain text message means. Priority order:
// a pending moderator reply, a free-text survey answer, an awaited feedback
// message, then the quick reply-keyboard buttons. It plugs into the text
// router as its conversation manager.
type TextDispatcher struct {
	surveys  *survey.Engine
	feedback *feedback.Router
	states   state.Manager
	lookup   commandLookup
}

// NewTextDispatcher builds the dispatcher over the domain services and the
// command registry used for quick-button resolution.
func NewTextDispatcher(surveys *survey.Engine, fb *feedback.Router, states state.Manager, lookup commandLookup) *TextDispatcher {
	return &TextDispatcher{surveys: surveys, feedback: fb, states: states, lookup: lookup}
}

// InProgress reports whether the user has any open conversation that claims
// incoming text.
func (d *TextDispatcher) InProgress(userID int64) bool {
	return d.feedback.HasPendingReply(userID) ||
		d.surveys.HasSession(userID) ||
		d.states.HasState(userID)
}

// ManagerHandler routes one text message. Quick buttons stay usable even
// mid-survey: when the current question is closed-choice the text falls
// through to command lookup.
func (d *TextDispatcher) ManagerHandler(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID
	text := c.Text()

	if handled, err := d.feedback.CompleteReply(ctx, userID, text); handled || err != nil {
		return err
	}
	if handled, err := d.surveys.SubmitText(ctx, userID, text); handled || err != nil {
		return err
	}
	if d.states.HasState(userID) {
		return d.states.ManagerHandler(c)
	}
	if _, cmd, ok := d.lookup.LookupCommand(text); ok && cmd.Handler != nil {
		return cmd.Handler(c)
	}
	return nil
}
