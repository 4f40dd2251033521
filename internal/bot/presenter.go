package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/surveybot/core/telegram/format"
	tghelpers "github.com/m3rciful/surveybot/core/telegram/helpers"
	"github.com/m3rciful/surveybot/core/telegram/keyboard"
	"github.com/m3rciful/surveybot/core/telegram/sender"
	"github.com/m3rciful/surveybot/internal/catalog"
	"github.com/m3rciful/surveybot/internal/feedback"
	"github.com/m3rciful/surveybot/internal/storage"
)

// UserDirectory resolves Telegram ids to stored user rows for display
// purposes.
type UserDirectory interface {
	GetUserByTelegramID(ctx context.Context, userID int64) (storage.User, error)
}

// Presenter renders survey and feedback interactions as Telegram messages.
// Outbound calls go through the async dispatcher; when the queue is
// saturated the send falls back to the calling goroutine.
type Presenter struct {
	bot        atomic.Pointer[tele.Bot]
	dispatcher *sender.Dispatcher
	users      UserDirectory
}

// NewPresenter builds a Presenter. The bot instance is attached later via
// Bind, once the runtime has built it.
func NewPresenter(dispatcher *sender.Dispatcher, users UserDirectory) *Presenter {
	return &Presenter{dispatcher: dispatcher, users: users}
}

// Bind attaches the running bot instance.
func (p *Presenter) Bind(bot *tele.Bot) {
	p.bot.Store(bot)
}

func (p *Presenter) send(ctx context.Context, userID int64, action, endpoint string, what interface{}, opts ...interface{}) error {
	bot := p.bot.Load()
	if bot == nil {
		return errors.New("presenter: bot not bound")
	}
	run := func() error {
		_, err := bot.Send(&tele.User{ID: userID}, what, opts...)
		return err
	}
	if p.dispatcher == nil {
		return run()
	}
	if err := p.dispatcher.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			return run()
		}
		return err
	}
	return nil
}

// PresentQuestion renders one question: photo with caption, inline option
// buttons for closed-choice questions, a text-reply hint for free-text ones.
func (p *Presenter) PresentQuestion(ctx context.Context, userID int64, surveyNum, questionNum int, q catalog.Question) error {
	caption := q.Text
	var opts []interface{}
	if q.FreeText() {
		caption = caption + "\n\n" + msgFreeTextHint
	} else {
		buttons := make([]keyboard.InlineBtn, 0, len(q.Options))
		for i, opt := range q.Options {
			buttons = append(buttons, keyboard.InlineBtn{
				Text:   opt,
				Unique: actAnswer,
				Data:   answerPayload(surveyNum, questionNum, i),
			})
		}
		opts = append(opts, keyboard.InlineButtons(buttons))
	}

	if q.Image != "" {
		photo := &tele.Photo{File: tele.FromURL(q.Image), Caption: caption}
		return p.send(ctx, userID, "send.question", "sendPhoto", photo, opts...)
	}
	return p.send(ctx, userID, "send.question", "sendMessage", caption, opts...)
}

// PresentCompleted thanks the user and offers the next survey when one
// remains, plus a way back to the menu.
func (p *Presenter) PresentCompleted(ctx context.Context, userID int64, surveyNum int, hasNext bool) error {
	var rows [][]keyboard.InlineBtn
	if hasNext {
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   btnNextSurvey,
			Unique: actSurvey,
			Data:   strconv.Itoa(surveyNum + 1),
		}})
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: btnBackToMenu, Unique: actMenu}})

	text := msgAllSurveysThanks
	if hasNext {
		text = fmt.Sprintf(msgSurveyThanksFmt, surveyNum)
	}
	return p.send(ctx, userID, "send.survey_done", "sendMessage", text, keyboard.InlineButtonsRows(rows...))
}

// NotifyModerator forwards a fresh feedback item to the moderator with a
// reply action tagged by the item id.
func (p *Presenter) NotifyModerator(ctx context.Context, moderatorID int64, item feedback.Item) error {
	return p.sendModeratorItem(ctx, moderatorID, item, msgModeratorNewFmt, "send.feedback_notify")
}

// PresentDigestItem re-shows a backlog item without the new-submission
// framing, keeping the reply action.
func (p *Presenter) PresentDigestItem(ctx context.Context, moderatorID int64, item feedback.Item) error {
	return p.sendModeratorItem(ctx, moderatorID, item, msgDigestItemFmt, "send.feedback_digest")
}

func (p *Presenter) sendModeratorItem(ctx context.Context, moderatorID int64, item feedback.Item, layout, action string) error {
	markup := keyboard.InlineButtons([]keyboard.InlineBtn{{
		Text:   btnReply,
		Unique: actFeedbackReply,
		Data:   strconv.FormatInt(item.ID, 10),
	}})
	text := fmt.Sprintf(layout, item.ID, p.displayName(ctx, item.UserID), escapeMD(item.Message))
	return p.send(ctx, moderatorID, action, "sendMessage", text,
		&tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: markup})
}

// PromptReply asks the moderator to type the reply text.
func (p *Presenter) PromptReply(ctx context.Context, moderatorID, feedbackID int64) error {
	return p.send(ctx, moderatorID, "send.reply_prompt", "sendMessage", fmt.Sprintf(msgReplyPromptFmt, feedbackID))
}

// DeliverReply sends the moderator's reply to the feedback submitter.
func (p *Presenter) DeliverReply(ctx context.Context, userID int64, text string) error {
	return p.send(ctx, userID, "send.reply", "sendMessage", fmt.Sprintf(msgModeratorReplyFmt, text))
}

// AckReply confirms to the moderator that the reply went out.
func (p *Presenter) AckReply(ctx context.Context, moderatorID int64) error {
	return p.send(ctx, moderatorID, "send.reply_ack", "sendMessage", msgReplySentAck)
}

// displayName prefers the stored full name, falling back to the bare id.
func (p *Presenter) displayName(ctx context.Context, userID int64) string {
	id := strconv.FormatInt(userID, 10)
	u, err := tghelpers.CurrentUser[storage.User](ctx, p.users, userID)
	if err != nil {
		return id
	}
	name := format.DerefString(u.FullName, "")
	if name == "" {
		return id
	}
	return fmt.Sprintf("%s (%s)", escapeMD(name), id)
}

func escapeMD(text string) string {
	escaped, err := format.EscapeMarkdown(text, format.MarkdownV1, "")
	if err != nil {
		return text
	}
	return escaped
}
