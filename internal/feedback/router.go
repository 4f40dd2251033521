// Package feedback routes free-text feedback from users to the moderator and
// moderator replies back to the submitting user.
package feedback

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/m3rciful/surveybot/core/logger"
)

const component = "service.feedback"

// ErrUnauthorized is returned when a non-moderator identity attempts a
// moderator-only operation.
var ErrUnauthorized = errors.New("feedback: unauthorized")

// Status is the feedback item lifecycle marker.
type Status string

const (
	StatusNew      Status = "new"
	StatusAnswered Status = "answered"
)

// Item is a single feedback submission.
type Item struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Message   string    `db:"message"`
	Status    Status    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

// Store persists feedback items and moderator replies.
type Store interface {
	InsertFeedback(ctx context.Context, userID int64, text string) (int64, error)
	ListFeedback(ctx context.Context, st Status) ([]Item, error)
	UpdateFeedbackStatus(ctx context.Context, id int64, st Status) error
	InsertReply(ctx context.Context, feedbackID, moderatorID int64, text string) error
	FeedbackOwner(ctx context.Context, feedbackID int64) (int64, error)
}

// Presenter delivers feedback notifications and replies over the transport.
// NotifyModerator announces a fresh submission; PresentDigestItem re-shows a
// backlog item without the new-submission framing.
type Presenter interface {
	NotifyModerator(ctx context.Context, moderatorID int64, item Item) error
	PresentDigestItem(ctx context.Context, moderatorID int64, item Item) error
	PromptReply(ctx context.Context, moderatorID, feedbackID int64) error
	DeliverReply(ctx context.Context, userID int64, text string) error
	AckReply(ctx context.Context, moderatorID int64) error
}

// Router owns the moderator reply links and the feedback workflow.
type Router struct {
	store       Store
	presenter   Presenter
	moderatorID int64
	links       *linkStore
}

// NewRouter builds a Router; moderatorID is the single identity allowed to
// answer feedback.
func NewRouter(store Store, presenter Presenter, moderatorID int64) *Router {
	return &Router{
		store:       store,
		presenter:   presenter,
		moderatorID: moderatorID,
		links:       newLinkStore(),
	}
}

// Submit records a feedback item and notifies the moderator. When the insert
// fails the item id is lost and no notification is sent; the caller still
// acknowledges the user.
func (r *Router) Submit(ctx context.Context, userID int64, text string) (int64, error) {
	id, err := r.store.InsertFeedback(ctx, userID, text)
	if err != nil {
		logger.Error(ctx, component, "feedback.insert.fail",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return 0, err
	}

	logger.Info(ctx, component, "feedback.submitted",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.Int64("feedback_id", id),
	)

	item := Item{ID: id, UserID: userID, Message: text, Status: StatusNew}
	if err := r.presenter.NotifyModerator(ctx, r.moderatorID, item); err != nil {
		logger.Error(ctx, component, "feedback.notify.fail",
			slog.String("status", "fail"),
			slog.Int64("feedback_id", id),
			slog.String("err", err.Error()),
		)
	}
	return id, nil
}

// BeginReply binds the moderator's next text message to the feedback item.
// Starting a second reply silently replaces the first target; the overwrite
// is surfaced in the log.
func (r *Router) BeginReply(ctx context.Context, moderatorID, feedbackID int64) error {
	if moderatorID != r.moderatorID {
		return ErrUnauthorized
	}

	if prev, overwrote := r.links.put(moderatorID, feedbackID); overwrote {
		logger.Warn(ctx, component, "reply.link.overwrite",
			slog.Int64("user_id", moderatorID),
			slog.Int64("feedback_id", feedbackID),
			slog.Int64("displaced_feedback_id", prev),
		)
	}
	return r.presenter.PromptReply(ctx, moderatorID, feedbackID)
}

// HasPendingReply reports whether the moderator has a reply target bound.
func (r *Router) HasPendingReply(moderatorID int64) bool {
	return r.links.has(moderatorID)
}

// CompleteReply consumes the moderator's pending reply link and delivers the
// reply text to the submitting user. It reports false when there is nothing
// pending, in which case the message is not a feedback reply and nothing
// happens.
func (r *Router) CompleteReply(ctx context.Context, moderatorID int64, text string) (bool, error) {
	if moderatorID != r.moderatorID {
		return false, nil
	}
	feedbackID, ok := r.links.take(moderatorID)
	if !ok {
		return false, nil
	}

	if err := r.store.InsertReply(ctx, feedbackID, moderatorID, text); err != nil {
		logger.Error(ctx, component, "reply.insert.fail",
			slog.String("status", "fail"),
			slog.Int64("feedback_id", feedbackID),
			slog.String("err", err.Error()),
		)
	}
	if err := r.store.UpdateFeedbackStatus(ctx, feedbackID, StatusAnswered); err != nil {
		logger.Error(ctx, component, "feedback.status.fail",
			slog.String("status", "fail"),
			slog.Int64("feedback_id", feedbackID),
			slog.String("err", err.Error()),
		)
	}

	owner, err := r.store.FeedbackOwner(ctx, feedbackID)
	if err != nil {
		logger.Error(ctx, component, "feedback.owner.fail",
			slog.String("status", "fail"),
			slog.Int64("feedback_id", feedbackID),
			slog.String("err", err.Error()),
		)
	} else if owner != 0 {
		if err := r.presenter.DeliverReply(ctx, owner, text); err != nil {
			logger.Error(ctx, component, "reply.deliver.fail",
				slog.String("status", "fail"),
				slog.Int64("feedback_id", feedbackID),
				slog.String("err", err.Error()),
			)
		}
	}

	logger.Info(ctx, component, "reply.completed",
		slog.String("status", "ok"),
		slog.Int64("feedback_id", feedbackID),
	)
	return true, r.presenter.AckReply(ctx, moderatorID)
}

// Digest re-sends every unanswered feedback item to the moderator, each with
// its reply action, and returns how many were sent.
func (r *Router) Digest(ctx context.Context, moderatorID int64) (int, error) {
	if moderatorID != r.moderatorID {
		return 0, ErrUnauthorized
	}

	items, err := r.store.ListFeedback(ctx, StatusNew)
	if err != nil {
		return 0, err
	}
	for _, item := range items {
		if err := r.presenter.PresentDigestItem(ctx, moderatorID, item); err != nil {
			logger.Error(ctx, component, "feedback.notify.fail",
				slog.String("status", "fail"),
				slog.Int64("feedback_id", item.ID),
				slog.String("err", err.Error()),
			)
		}
	}
	logger.Debug(ctx, component, "feedback.digest",
		slog.String("status", "ok"),
		slog.Int("pending_count", len(items)),
	)
	return len(items), nil
}
