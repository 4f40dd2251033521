// Package bot wires the survey engine and the feedback router to Telegram:
// commands, callback actions, text dispatch, and message rendering.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/surveybot/core/logger"
	"github.com/m3rciful/surveybot/core/telegram/callbacks"
	"github.com/m3rciful/surveybot/core/telegram/commands"
	tghelpers "github.com/m3rciful/surveybot/core/telegram/helpers"
	"github.com/m3rciful/surveybot/core/telegram/keyboard"
	"github.com/m3rciful/surveybot/core/telegram/state"
	"github.com/m3rciful/surveybot/internal/catalog"
	"github.com/m3rciful/surveybot/internal/feedback"
	"github.com/m3rciful/surveybot/internal/survey"
)

// StateAwaitingFeedback marks a user whose next text message is a feedback
// submission.
const StateAwaitingFeedback state.State = "awaiting_feedback"

// UserService registers users on first contact.
type UserService interface {
	EnsureUser(ctx context.Context, userID int64, username, fullName string) error
}

// Registry is the subset of the command/callback registry the handlers
// register themselves into.
type Registry interface {
	RegisterCommand(name string, cmd commands.Command)
	RegisterCallback(key string, handler tele.HandlerFunc) error
	SetCallbackNotFound(h tele.HandlerFunc)
}

// Handlers binds inbound Telegram updates to the domain services.
type Handlers struct {
	users    UserService
	surveys  *survey.Engine
	feedback *feedback.Router
	states   state.Manager
}

// NewHandlers builds the handler set.
func NewHandlers(users UserService, surveys *survey.Engine, fb *feedback.Router, states state.Manager) *Handlers {
	return &Handlers{users: users, surveys: surveys, feedback: fb, states: states}
}

// Register wires commands, callback actions, and the awaiting-feedback state
// handler.
func (h *Handlers) Register(reg Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.handleStart,
		Description: "Начать работу с ботом",
	})
	reg.RegisterCommand("/menu", commands.Command{
		Handler:     h.handleMenu,
		Description: "Показать главное меню",
		Aliases:     []string{quickMenu, quickMenuAlt},
	})
	reg.RegisterCommand("/my_result", commands.Command{
		Handler:     h.handleResults,
		Description: "Показать мои ответы",
		Aliases:     []string{quickResults, btnMyResults},
	})
	reg.RegisterCommand("/check_feedback", commands.Command{
		Handler:     h.handleCheckFeedback,
		Description: "Непрочитанные обращения",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/feedback", commands.Command{
		Handler:     h.handleFeedbackStart,
		Description: "Обратная связь",
		Hidden:      true,
		Aliases:     []string{quickFeedback},
	})

	_ = reg.RegisterCallback(actMenu, h.handleMenu)
	_ = reg.RegisterCallback(actResults, h.handleResults)
	_ = reg.RegisterCallback(actSurvey, h.handleSurveyStart)
	_ = reg.RegisterCallback(actRepeat, h.handleSurveyRepeat)
	_ = reg.RegisterCallback(actAnswer, h.handleAnswer)
	_ = reg.RegisterCallback(actFeedback, h.handleFeedbackStart)
	_ = reg.RegisterCallback(actFeedbackReply, h.handleFeedbackReply)
	reg.SetCallbackNotFound(h.UnknownCallback())

	state.RegisterHandler(StateAwaitingFeedback, h.handleFeedbackText)
}

// AdminReject is shown when a non-moderator invokes a moderator command.
func (h *Handlers) AdminReject() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, msgNoRights)
	}
}

func quickKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{quickMenu, quickResults},
		[]string{quickFeedback},
	)
}

func (h *Handlers) handleStart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user := c.Sender()
	fullName := strings.TrimSpace(strings.TrimSpace(user.FirstName) + " " + strings.TrimSpace(user.LastName))
	if err := h.users.EnsureUser(ctx, user.ID, user.Username, fullName); err != nil {
		logger.Error(ctx, "service.users", "user.ensure.fail",
			slog.String("status", "fail"),
			slog.Int64("user_id", user.ID),
			slog.String("err", err.Error()),
		)
	}
	return tghelpers.SendText(c, msgGreeting, &tele.SendOptions{ReplyMarkup: quickKeyboard()})
}

func (h *Handlers) handleMenu(c tele.Context) error {
	rows := make([][]keyboard.InlineBtn, 0, catalog.SurveyCount+2)
	for _, s := range catalog.All() {
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   fmt.Sprintf(btnSurveyFmt, s.Number),
			Unique: actSurvey,
			Data:   fmt.Sprintf("%d", s.Number),
		}})
	}
	rows = append(rows,
		[]keyboard.InlineBtn{{Text: btnFeedback, Unique: actFeedback}},
		[]keyboard.InlineBtn{{Text: btnMyResults, Unique: actResults}},
	)
	return tghelpers.EditOrSendMD(c, msgMainMenu, keyboard.InlineButtonsRows(rows...))
}

func (h *Handlers) handleResults(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID

	groups, err := h.surveys.Results(ctx, userID)
	if err != nil {
		logger.Error(ctx, "service.surveys", "results.list.fail",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
	if len(groups) == 0 {
		return tghelpers.SendText(c, msgNoResults, &tele.SendOptions{ReplyMarkup: quickKeyboard()})
	}

	var lines []string
	for _, g := range groups {
		lines = append(lines, fmt.Sprintf(msgResultsSurveyFmt, g.Survey))
		for _, a := range g.Answers {
			lines = append(lines, fmt.Sprintf(msgResultsAnswerFmt, a.Question, a.Text))
		}
	}
	return tghelpers.SendText(c, strings.Join(lines, "\n"), &tele.SendOptions{ReplyMarkup: quickKeyboard()})
}

func (h *Handlers) handleCheckFeedback(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)

	count, err := h.feedback.Digest(ctx, c.Sender().ID)
	if errors.Is(err, feedback.ErrUnauthorized) {
		return tghelpers.SendText(c, msgNoRights)
	}
	if err != nil {
		return err
	}
	if count == 0 {
		return tghelpers.SendText(c, msgNoNewFeedback)
	}
	return tghelpers.SendText(c, fmt.Sprintf(msgDigestSentFmt, count))
}

func (h *Handlers) handleSurveyStart(c tele.Context) error {
	return h.startSurvey(c, false)
}

func (h *Handlers) handleSurveyRepeat(c tele.Context) error {
	return h.startSurvey(c, true)
}

func (h *Handlers) startSurvey(c tele.Context, reset bool) error {
	surveyNum, err := callbacks.PayloadInt(c)
	if err != nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)

	switch err := h.surveys.Start(ctx, c.Sender().ID, surveyNum, reset); {
	case err == nil:
		return nil
	case errors.Is(err, survey.ErrOrderingViolation):
		return tghelpers.SendText(c, msgOrderingDenied)
	case errors.Is(err, survey.ErrAlreadyCompleted):
		markup := keyboard.InlineButtonsRows(
			[]keyboard.InlineBtn{{Text: btnRepeatSurvey, Unique: actRepeat, Data: fmt.Sprintf("%d", surveyNum)}},
			[]keyboard.InlineBtn{{Text: btnBackToMenu, Unique: actMenu}},
		)
		return tghelpers.SendText(c, msgAlreadyCompleted, &tele.SendOptions{ReplyMarkup: markup})
	case errors.Is(err, survey.ErrUnknownSurvey):
		return nil
	default:
		return err
	}
}

func (h *Handlers) handleAnswer(c tele.Context) error {
	surveyNum, questionNum, optionIdx, err := parseAnswerPayload(callbacks.CallbackPayload(c))
	if err != nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)

	submitErr := h.surveys.SubmitOption(ctx, c.Sender().ID, surveyNum, questionNum, optionIdx)
	if errors.Is(submitErr, survey.ErrNoActiveSession) {
		// Stale keyboard from a previous attempt.
		return nil
	}
	var invalid *survey.InvalidOptionError
	if errors.As(submitErr, &invalid) {
		logger.Warn(ctx, "service.surveys", "answer.invalid_option",
			slog.Int64("user_id", c.Sender().ID),
			slog.Int("survey", invalid.Survey),
			slog.Int("question", invalid.Question),
			slog.Int("option", invalid.Option),
		)
		return nil
	}
	return submitErr
}

func (h *Handlers) handleFeedbackStart(c tele.Context) error {
	h.states.SetState(c.Sender().ID, StateAwaitingFeedback)
	if c.Callback() != nil {
		return tghelpers.SendText(c, msgFeedbackPrompt)
	}
	// Quick-button path: shorter prompt, drop the reply keyboard while typing.
	return tghelpers.SendText(c, msgFeedbackPromptShort, &tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()})
}

// handleFeedbackText consumes the awaiting-feedback state and records the
// submission. The user is thanked even when the write failed; the loss is
// already logged by the router.
func (h *Handlers) handleFeedbackText(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID
	h.states.ClearState(userID)

	_, _ = h.feedback.Submit(ctx, userID, strings.TrimSpace(c.Text()))
	return tghelpers.SendText(c, msgFeedbackThanks, &tele.SendOptions{ReplyMarkup: quickKeyboard()})
}

func (h *Handlers) handleFeedbackReply(c tele.Context) error {
	feedbackID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)

	beginErr := h.feedback.BeginReply(ctx, c.Sender().ID, feedbackID)
	if errors.Is(beginErr, feedback.ErrUnauthorized) {
		// Silent denial: the reply action is only ever shown to the moderator.
		return nil
	}
	return beginErr
}

// UnknownText ignores stray text that matched nothing.
func (h *Handlers) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error { return nil }
}

// UnknownDocument ignores unexpected documents.
func (h *Handlers) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error { return nil }
}

// UnknownCallback acknowledges callbacks whose action is not registered.
func (h *Handlers) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{})
	}
}
