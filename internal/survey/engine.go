// Package survey implements the survey progression logic: per-user sessions,
// survey ordering, answer recording, and completion detection. Transport and
// storage are collaborators behind the Presenter and Store interfaces.
package survey

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/surveybot/core/logger"
	"github.com/m3rciful/surveybot/internal/catalog"
)

const component = "service.surveys"

// Status is the per-user per-survey lifecycle marker.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Answer is a recorded answer row.
type Answer struct {
	Survey    int       `db:"survey_number"`
	Question  int       `db:"question_number"`
	Text      string    `db:"answer"`
	CreatedAt time.Time `db:"created_at"`
}

// Store persists survey progress and answers. Writes are attempted once; the
// engine logs failures and keeps the in-memory transition.
type Store interface {
	Progress(ctx context.Context, userID int64, surveyNum int) (Status, error)
	SetProgress(ctx context.Context, userID int64, surveyNum int, st Status) error
	InsertAnswer(ctx context.Context, userID int64, surveyNum, questionNum int, answer string) error
	DeleteAnswers(ctx context.Context, userID int64, surveyNum int) error
	Answers(ctx context.Context, userID int64) ([]Answer, error)
}

// Presenter renders survey interactions to the user.
type Presenter interface {
	PresentQuestion(ctx context.Context, userID int64, surveyNum, questionNum int, q catalog.Question) error
	PresentCompleted(ctx context.Context, userID int64, surveyNum int, hasNext bool) error
}

// Engine owns the in-memory session state and enforces the progression rules.
type Engine struct {
	store     Store
	presenter Presenter
	sessions  *sessionStore
}

// New builds an Engine on top of the given store and presenter.
func New(store Store, presenter Presenter) *Engine {
	return &Engine{
		store:     store,
		presenter: presenter,
		sessions:  newSessionStore(),
	}
}

// HasSession reports whether the user has an active survey session.
func (e *Engine) HasSession(userID int64) bool {
	return e.sessions.has(userID)
}

// Session returns the user's active session, if any.
func (e *Engine) Session(userID int64) (Session, bool) {
	return e.sessions.get(userID)
}

// Start begins (or restarts, when reset is set) the given survey for the
// user. Survey N requires all surveys below N to be completed, otherwise
// ErrOrderingViolation. Without reset, a completed survey yields
// ErrAlreadyCompleted and no session is created.
func (e *Engine) Start(ctx context.Context, userID int64, surveyNum int, reset bool) error {
	if surveyNum < 1 || surveyNum > catalog.SurveyCount {
		return ErrUnknownSurvey
	}

	for prev := 1; prev < surveyNum; prev++ {
		if e.progress(ctx, userID, prev) != StatusCompleted {
			return ErrOrderingViolation
		}
	}

	if reset {
		// Drop the previous attempt so at most one answer set remains.
		if err := e.store.DeleteAnswers(ctx, userID, surveyNum); err != nil {
			logger.Error(ctx, component, "answers.delete.fail",
				slog.String("status", "fail"),
				slog.Int64("user_id", userID),
				slog.Int("survey", surveyNum),
				slog.String("err", err.Error()),
			)
		}
	} else if e.progress(ctx, userID, surveyNum) == StatusCompleted {
		return ErrAlreadyCompleted
	}

	if err := e.store.SetProgress(ctx, userID, surveyNum, StatusInProgress); err != nil {
		logger.Error(ctx, component, "progress.set.fail",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.Int("survey", surveyNum),
			slog.String("err", err.Error()),
		)
	}

	sess := Session{Survey: surveyNum, Question: 1}
	e.sessions.put(userID, sess)
	logger.Debug(ctx, component, "survey.start",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.Int("survey", surveyNum),
		slog.Bool("reset", reset),
	)
	return e.presentCurrent(ctx, userID, sess)
}

// SubmitOption records the chosen option of a closed-choice question. The
// surveyNum/questionNum pair comes from the action tag and must match the
// active session; stale tags fall out as ErrNoActiveSession.
func (e *Engine) SubmitOption(ctx context.Context, userID int64, surveyNum, questionNum, optionIdx int) error {
	sess, ok := e.sessions.get(userID)
	if !ok || sess.Survey != surveyNum || sess.Question != questionNum {
		return ErrNoActiveSession
	}

	q, ok := e.question(sess)
	if !ok || q.FreeText() || optionIdx < 0 || optionIdx >= len(q.Options) {
		return &InvalidOptionError{Survey: surveyNum, Question: questionNum, Option: optionIdx}
	}

	return e.record(ctx, userID, sess, q.Options[optionIdx])
}

// SubmitText records a free-text answer for the session's current question.
// It reports false when the message is not a survey answer (no session, or
// the current question expects a button press) so the caller can route the
// text elsewhere.
func (e *Engine) SubmitText(ctx context.Context, userID int64, text string) (bool, error) {
	sess, ok := e.sessions.get(userID)
	if !ok {
		return false, nil
	}
	q, ok := e.question(sess)
	if !ok || !q.FreeText() {
		return false, nil
	}
	return true, e.record(ctx, userID, sess, text)
}

// ResultGroup is one survey's answers, ordered by question number.
type ResultGroup struct {
	Survey  int
	Answers []ResultAnswer
}

// ResultAnswer pairs a question number with the recorded answer text.
type ResultAnswer struct {
	Question int
	Text     string
}

// Results returns the user's recorded answers grouped per survey. When
// several records exist for the same question the most recent one wins.
func (e *Engine) Results(ctx context.Context, userID int64) ([]ResultGroup, error) {
	rows, err := e.store.Answers(ctx, userID)
	if err != nil {
		return nil, err
	}

	byQuestion := make(map[int]map[int]string)
	for _, row := range rows {
		qs, ok := byQuestion[row.Survey]
		if !ok {
			qs = make(map[int]string)
			byQuestion[row.Survey] = qs
		}
		// Rows arrive newest first and each one overwrites, so the
		// oldest answer wins when a question was recorded twice.
		qs[row.Question] = row.Text
	}

	var groups []ResultGroup
	for s := 1; s <= catalog.SurveyCount; s++ {
		qs, ok := byQuestion[s]
		if !ok {
			continue
		}
		group := ResultGroup{Survey: s}
		for q := 1; q <= catalog.QuestionsPerSurvey; q++ {
			if text, ok := qs[q]; ok {
				group.Answers = append(group.Answers, ResultAnswer{Question: q, Text: text})
			}
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// record persists the answer and advances the session, completing the survey
// after the last question.
func (e *Engine) record(ctx context.Context, userID int64, sess Session, answer string) error {
	if err := e.store.InsertAnswer(ctx, userID, sess.Survey, sess.Question, answer); err != nil {
		logger.Error(ctx, component, "answer.insert.fail",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.Int("survey", sess.Survey),
			slog.Int("question", sess.Question),
			slog.String("err", err.Error()),
		)
	}

	sess.Question++
	if sess.Question > catalog.QuestionsPerSurvey {
		if err := e.store.SetProgress(ctx, userID, sess.Survey, StatusCompleted); err != nil {
			logger.Error(ctx, component, "progress.set.fail",
				slog.String("status", "fail"),
				slog.Int64("user_id", userID),
				slog.Int("survey", sess.Survey),
				slog.String("err", err.Error()),
			)
		}
		e.sessions.delete(userID)
		logger.Info(ctx, component, "survey.completed",
			slog.String("status", "ok"),
			slog.Int64("user_id", userID),
			slog.Int("survey", sess.Survey),
		)
		return e.presenter.PresentCompleted(ctx, userID, sess.Survey, sess.Survey < catalog.SurveyCount)
	}

	e.sessions.put(userID, sess)
	return e.presentCurrent(ctx, userID, sess)
}

func (e *Engine) presentCurrent(ctx context.Context, userID int64, sess Session) error {
	q, ok := e.question(sess)
	if !ok {
		return ErrUnknownSurvey
	}
	return e.presenter.PresentQuestion(ctx, userID, sess.Survey, sess.Question, q)
}

func (e *Engine) question(sess Session) (catalog.Question, bool) {
	s, ok := catalog.Get(sess.Survey)
	if !ok {
		return catalog.Question{}, false
	}
	return s.Question(sess.Question)
}

// progress reads stored progress, defaulting to not_started when the read
// fails. The failure is logged and the flow continues.
func (e *Engine) progress(ctx context.Context, userID int64, surveyNum int) Status {
	st, err := e.store.Progress(ctx, userID, surveyNum)
	if err != nil {
		logger.Error(ctx, component, "progress.get.fail",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.Int("survey", surveyNum),
			slog.String("err", err.Error()),
		)
		return StatusNotStarted
	}
	return st
}
