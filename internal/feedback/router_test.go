package feedback

import (
	"context"
	"errors"
	"testing"
)

const (
	moderatorID int64 = 100
	userID      int64 = 42
)

type memStore struct {
	nextID   int64
	items    map[int64]*Item
	replies  []struct {
		feedbackID  int64
		moderatorID int64
		text        string
	}
	insertErr error
	listErr   error
}

func newFeedbackStore() *memStore {
	return &memStore{items: make(map[int64]*Item)}
}

func (s *memStore) InsertFeedback(_ context.Context, userID int64, text string) (int64, error) {
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	s.nextID++
	s.items[s.nextID] = &Item{ID: s.nextID, UserID: userID, Message: text, Status: StatusNew}
	return s.nextID, nil
}

func (s *memStore) ListFeedback(_ context.Context, st Status) ([]Item, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []Item
	for id := int64(1); id <= s.nextID; id++ {
		if item, ok := s.items[id]; ok && item.Status == st {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *memStore) UpdateFeedbackStatus(_ context.Context, id int64, st Status) error {
	if item, ok := s.items[id]; ok {
		item.Status = st
	}
	return nil
}

func (s *memStore) InsertReply(_ context.Context, feedbackID, moderatorID int64, text string) error {
	s.replies = append(s.replies, struct {
		feedbackID  int64
		moderatorID int64
		text        string
	}{feedbackID, moderatorID, text})
	return nil
}

func (s *memStore) FeedbackOwner(_ context.Context, feedbackID int64) (int64, error) {
	item, ok := s.items[feedbackID]
	if !ok {
		return 0, errors.New("no such feedback")
	}
	return item.UserID, nil
}

type memPresenter struct {
	notified  []Item
	digested  []Item
	prompted  []int64
	delivered []struct {
		userID int64
		text   string
	}
	acks int
}

func (p *memPresenter) NotifyModerator(_ context.Context, _ int64, item Item) error {
	p.notified = append(p.notified, item)
	return nil
}

func (p *memPresenter) PresentDigestItem(_ context.Context, _ int64, item Item) error {
	p.digested = append(p.digested, item)
	return nil
}

func (p *memPresenter) PromptReply(_ context.Context, _ int64, feedbackID int64) error {
	p.prompted = append(p.prompted, feedbackID)
	return nil
}

func (p *memPresenter) DeliverReply(_ context.Context, userID int64, text string) error {
	p.delivered = append(p.delivered, struct {
		userID int64
		text   string
	}{userID, text})
	return nil
}

func (p *memPresenter) AckReply(_ context.Context, _ int64) error {
	p.acks++
	return nil
}

func newTestRouter() (*Router, *memStore, *memPresenter) {
	store := newFeedbackStore()
	presenter := &memPresenter{}
	return NewRouter(store, presenter, moderatorID), store, presenter
}

func TestSubmitNotifiesModerator(t *testing.T) {
	r, store, presenter := newTestRouter()

	id, err := r.Submit(context.Background(), userID, "жалоба")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if id != 1 {
		t.Fatalf("id = %d, want 1", id)
	}
	if store.items[id].Status != StatusNew {
		t.Fatalf("status = %s, want %s", store.items[id].Status, StatusNew)
	}
	if len(presenter.notified) != 1 || presenter.notified[0].Message != "жалоба" {
		t.Fatalf("unexpected notifications: %+v", presenter.notified)
	}
}

func TestSubmitInsertFailure(t *testing.T) {
	r, store, presenter := newTestRouter()
	store.insertErr = errors.New("connection refused")

	if _, err := r.Submit(context.Background(), userID, "жалоба"); err == nil {
		t.Fatal("expected insert error")
	}
	if len(presenter.notified) != 0 {
		t.Fatal("failed submit must not notify the moderator")
	}
}

func TestBeginReplyUnauthorized(t *testing.T) {
	r, _, presenter := newTestRouter()

	if err := r.BeginReply(context.Background(), userID, 1); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("begin = %v, want ErrUnauthorized", err)
	}
	if r.HasPendingReply(userID) {
		t.Fatal("unauthorized begin must not bind a link")
	}
	if len(presenter.prompted) != 0 {
		t.Fatal("unauthorized begin must not prompt")
	}
}

func TestCompleteReplyWithoutLink(t *testing.T) {
	r, store, _ := newTestRouter()

	handled, err := r.CompleteReply(context.Background(), moderatorID, "текст")
	if handled || err != nil {
		t.Fatalf("complete = (%v, %v), want (false, nil)", handled, err)
	}
	if len(store.replies) != 0 {
		t.Fatal("nothing pending, nothing must be stored")
	}
}

func TestCompleteReplyIgnoresNonModerator(t *testing.T) {
	r, _, _ := newTestRouter()

	handled, err := r.CompleteReply(context.Background(), userID, "текст")
	if handled || err != nil {
		t.Fatalf("complete = (%v, %v), want (false, nil)", handled, err)
	}
}

func TestReplyWorkflow(t *testing.T) {
	r, store, presenter := newTestRouter()
	ctx := context.Background()

	id, err := r.Submit(ctx, userID, "как дела?")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := r.BeginReply(ctx, moderatorID, id); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if !r.HasPendingReply(moderatorID) {
		t.Fatal("expected a pending reply link")
	}

	handled, err := r.CompleteReply(ctx, moderatorID, "всё хорошо")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !handled {
		t.Fatal("reply text was not claimed")
	}

	if store.items[id].Status != StatusAnswered {
		t.Fatalf("status = %s, want %s", store.items[id].Status, StatusAnswered)
	}
	if len(store.replies) != 1 || store.replies[0].feedbackID != id {
		t.Fatalf("unexpected stored replies: %+v", store.replies)
	}
	if len(presenter.delivered) != 1 || presenter.delivered[0].userID != userID || presenter.delivered[0].text != "всё хорошо" {
		t.Fatalf("unexpected deliveries: %+v", presenter.delivered)
	}
	if presenter.acks != 1 {
		t.Fatalf("acks = %d, want 1", presenter.acks)
	}
	if r.HasPendingReply(moderatorID) {
		t.Fatal("link must be consumed")
	}
}

func TestBeginReplyOverwritesPendingLink(t *testing.T) {
	r, _, presenter := newTestRouter()
	ctx := context.Background()

	first, _ := r.Submit(ctx, userID, "первое")
	second, _ := r.Submit(ctx, userID, "второе")

	if err := r.BeginReply(ctx, moderatorID, first); err != nil {
		t.Fatalf("begin first: %v", err)
	}
	if err := r.BeginReply(ctx, moderatorID, second); err != nil {
		t.Fatalf("begin second: %v", err)
	}

	handled, err := r.CompleteReply(ctx, moderatorID, "ответ")
	if !handled || err != nil {
		t.Fatalf("complete = (%v, %v)", handled, err)
	}
	if len(presenter.prompted) != 2 {
		t.Fatalf("prompts = %d, want 2", len(presenter.prompted))
	}
	if got := presenter.prompted[1]; got != second {
		t.Fatalf("second prompt for %d, want %d", got, second)
	}
	if r.HasPendingReply(moderatorID) {
		t.Fatal("link must be consumed")
	}
}

func TestDigestSendsOnlyNewItems(t *testing.T) {
	r, store, presenter := newTestRouter()
	ctx := context.Background()

	first, _ := r.Submit(ctx, userID, "первое")
	_, _ = r.Submit(ctx, userID, "второе")
	store.items[first].Status = StatusAnswered
	presenter.notified = nil

	count, err := r.Digest(ctx, moderatorID)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	if len(presenter.digested) != 1 || presenter.digested[0].Message != "второе" {
		t.Fatalf("unexpected digest items: %+v", presenter.digested)
	}
	// Backlog items are re-shown, not announced as new submissions.
	if len(presenter.notified) != 0 {
		t.Fatalf("digest must not use the new-submission notification: %+v", presenter.notified)
	}
}

func TestDigestUnauthorized(t *testing.T) {
	r, _, _ := newTestRouter()

	if _, err := r.Digest(context.Background(), userID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("digest = %v, want ErrUnauthorized", err)
	}
}
