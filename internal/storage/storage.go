// Package storage implements the persistence interfaces of the survey engine
// and the feedback router on top of PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/surveybot/internal/catalog"
	"github.com/m3rciful/surveybot/internal/feedback"
	"github.com/m3rciful/surveybot/internal/survey"
)

// User is a registered bot user. Username and FullName come from Telegram and
// may be absent.
type User struct {
	UserID    int64     `db:"user_id"`
	Username  *string   `db:"username"`
	FullName  *string   `db:"full_name"`
	CreatedAt time.Time `db:"created_at"`
}

// Store groups all repositories over a single connection pool.
type Store struct {
	db *sqlx.DB
}

// New builds a Store over the given pool.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// EnsureUser registers the user on first contact and lazily creates the
// default not_started progress row for every survey.
func (s *Store) EnsureUser(ctx context.Context, userID int64, username, fullName string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, username, full_name)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''))
		ON CONFLICT (user_id) DO NOTHING`,
		userID, username, fullName,
	)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	for n := 1; n <= catalog.SurveyCount; n++ {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO survey_progress (user_id, survey_number, status)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, survey_number) DO NOTHING`,
			userID, n, survey.StatusNotStarted,
		)
		if err != nil {
			return fmt.Errorf("ensure progress: %w", err)
		}
	}
	return nil
}

// GetUserByTelegramID returns the stored user row.
func (s *Store) GetUserByTelegramID(ctx context.Context, userID int64) (User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, `
		SELECT user_id, username, full_name, created_at
		FROM users WHERE user_id = $1`, userID)
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Progress returns the stored survey status, defaulting to not_started when
// no row exists yet.
func (s *Store) Progress(ctx context.Context, userID int64, surveyNum int) (survey.Status, error) {
	var st survey.Status
	err := s.db.GetContext(ctx, &st, `
		SELECT status FROM survey_progress
		WHERE user_id = $1 AND survey_number = $2`,
		userID, surveyNum,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return survey.StatusNotStarted, nil
	}
	if err != nil {
		return survey.StatusNotStarted, fmt.Errorf("get progress: %w", err)
	}
	return st, nil
}

// SetProgress upserts the survey status for the user.
func (s *Store) SetProgress(ctx context.Context, userID int64, surveyNum int, st survey.Status) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO survey_progress (user_id, survey_number, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, survey_number) DO UPDATE SET status = EXCLUDED.status`,
		userID, surveyNum, st,
	)
	if err != nil {
		return fmt.Errorf("set progress: %w", err)
	}
	return nil
}

// InsertAnswer records one answer row.
func (s *Store) InsertAnswer(ctx context.Context, userID int64, surveyNum, questionNum int, answer string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO survey_results (user_id, survey_number, question_number, answer)
		VALUES ($1, $2, $3, $4)`,
		userID, surveyNum, questionNum, answer,
	)
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

// DeleteAnswers removes every answer of one survey attempt.
func (s *Store) DeleteAnswers(ctx context.Context, userID int64, surveyNum int) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM survey_results
		WHERE user_id = $1 AND survey_number = $2`,
		userID, surveyNum,
	)
	if err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	return nil
}

// Answers returns the user's answers ordered by recency.
func (s *Store) Answers(ctx context.Context, userID int64) ([]survey.Answer, error) {
	var rows []survey.Answer
	err := s.db.SelectContext(ctx, &rows, `
		SELECT survey_number, question_number, answer, created_at
		FROM survey_results
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return rows, nil
}

// InsertFeedback stores a new feedback item and returns its id.
func (s *Store) InsertFeedback(ctx context.Context, userID int64, text string) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, `
		INSERT INTO feedback (user_id, message, status)
		VALUES ($1, $2, $3)
		RETURNING id`,
		userID, text, feedback.StatusNew,
	)
	if err != nil {
		return 0, fmt.Errorf("insert feedback: %w", err)
	}
	return id, nil
}

// ListFeedback returns feedback items with the given status, oldest first.
func (s *Store) ListFeedback(ctx context.Context, st feedback.Status) ([]feedback.Item, error) {
	var items []feedback.Item
	err := s.db.SelectContext(ctx, &items, `
		SELECT id, user_id, message, status, created_at
		FROM feedback
		WHERE status = $1
		ORDER BY created_at`,
		st,
	)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return items, nil
}

// UpdateFeedbackStatus moves a feedback item through its lifecycle.
func (s *Store) UpdateFeedbackStatus(ctx context.Context, id int64, st feedback.Status) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE feedback SET status = $2 WHERE id = $1`,
		id, st,
	)
	if err != nil {
		return fmt.Errorf("update feedback status: %w", err)
	}
	return nil
}

// InsertReply records a moderator reply to a feedback item.
func (s *Store) InsertReply(ctx context.Context, feedbackID, moderatorID int64, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO moderator_replies (feedback_id, moderator_id, reply_message)
		VALUES ($1, $2, $3)`,
		feedbackID, moderatorID, text,
	)
	if err != nil {
		return fmt.Errorf("insert reply: %w", err)
	}
	return nil
}

// FeedbackOwner returns the user who submitted the feedback item.
func (s *Store) FeedbackOwner(ctx context.Context, feedbackID int64) (int64, error) {
	var userID int64
	err := s.db.GetContext(ctx, &userID, `
		SELECT user_id FROM feedback WHERE id = $1`,
		feedbackID,
	)
	if err != nil {
		return 0, fmt.Errorf("get feedback owner: %w", err)
	}
	return userID, nil
}
