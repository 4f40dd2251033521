package survey

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m3rciful/surveybot/internal/catalog"
)

type storedAnswer struct {
	survey   int
	question int
	text     string
}

type memStore struct {
	progress    map[int]Status
	answers     []storedAnswer
	deleted     []int
	progressErr error
	insertErr   error
}

func newMemStore() *memStore {
	return &memStore{progress: make(map[int]Status)}
}

func (s *memStore) Progress(_ context.Context, _ int64, surveyNum int) (Status, error) {
	if s.progressErr != nil {
		return StatusNotStarted, s.progressErr
	}
	st, ok := s.progress[surveyNum]
	if !ok {
		return StatusNotStarted, nil
	}
	return st, nil
}

func (s *memStore) SetProgress(_ context.Context, _ int64, surveyNum int, st Status) error {
	s.progress[surveyNum] = st
	return nil
}

func (s *memStore) InsertAnswer(_ context.Context, _ int64, surveyNum, questionNum int, answer string) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.answers = append(s.answers, storedAnswer{survey: surveyNum, question: questionNum, text: answer})
	return nil
}

func (s *memStore) DeleteAnswers(_ context.Context, _ int64, surveyNum int) error {
	s.deleted = append(s.deleted, surveyNum)
	kept := s.answers[:0]
	for _, a := range s.answers {
		if a.survey != surveyNum {
			kept = append(kept, a)
		}
	}
	s.answers = kept
	return nil
}

func (s *memStore) Answers(_ context.Context, _ int64) ([]Answer, error) {
	// Newest first, the way the SQL query orders them.
	base := time.Now()
	out := make([]Answer, 0, len(s.answers))
	for i := len(s.answers) - 1; i >= 0; i-- {
		a := s.answers[i]
		out = append(out, Answer{
			Survey:    a.survey,
			Question:  a.question,
			Text:      a.text,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}
	return out, nil
}

type shownQuestion struct {
	survey   int
	question int
	freeText bool
}

type memPresenter struct {
	questions []shownQuestion
	completed []struct {
		survey  int
		hasNext bool
	}
}

func (p *memPresenter) PresentQuestion(_ context.Context, _ int64, surveyNum, questionNum int, q catalog.Question) error {
	p.questions = append(p.questions, shownQuestion{survey: surveyNum, question: questionNum, freeText: q.FreeText()})
	return nil
}

func (p *memPresenter) PresentCompleted(_ context.Context, _ int64, surveyNum int, hasNext bool) error {
	p.completed = append(p.completed, struct {
		survey  int
		hasNext bool
	}{surveyNum, hasNext})
	return nil
}

const testUser int64 = 42

func newTestEngine() (*Engine, *memStore, *memPresenter) {
	store := newMemStore()
	presenter := &memPresenter{}
	return New(store, presenter), store, presenter
}

// completeSurvey answers every question of one survey: two button presses and
// one free-text message.
func completeSurvey(t *testing.T, e *Engine, surveyNum int) {
	t.Helper()
	ctx := context.Background()
	for q := 1; q <= 2; q++ {
		if err := e.SubmitOption(ctx, testUser, surveyNum, q, 0); err != nil {
			t.Fatalf("submit option q%d: %v", q, err)
		}
	}
	handled, err := e.SubmitText(ctx, testUser, "свободный ответ")
	if err != nil {
		t.Fatalf("submit text: %v", err)
	}
	if !handled {
		t.Fatal("free-text answer was not claimed by the session")
	}
}

func TestStartPresentsFirstQuestion(t *testing.T) {
	e, store, presenter := newTestEngine()

	if err := e.Start(context.Background(), testUser, 1, false); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !e.HasSession(testUser) {
		t.Fatal("expected an active session")
	}
	if store.progress[1] != StatusInProgress {
		t.Fatalf("progress = %s, want %s", store.progress[1], StatusInProgress)
	}
	if len(presenter.questions) != 1 || presenter.questions[0] != (shownQuestion{survey: 1, question: 1}) {
		t.Fatalf("unexpected presented questions: %+v", presenter.questions)
	}
}

func TestStartUnknownSurvey(t *testing.T) {
	e, _, _ := newTestEngine()
	for _, n := range []int{0, -1, catalog.SurveyCount + 1} {
		if err := e.Start(context.Background(), testUser, n, false); !errors.Is(err, ErrUnknownSurvey) {
			t.Fatalf("start(%d) = %v, want ErrUnknownSurvey", n, err)
		}
	}
}

func TestStartEnforcesOrdering(t *testing.T) {
	e, store, _ := newTestEngine()
	ctx := context.Background()

	if err := e.Start(ctx, testUser, 2, false); !errors.Is(err, ErrOrderingViolation) {
		t.Fatalf("start(2) = %v, want ErrOrderingViolation", err)
	}
	if e.HasSession(testUser) {
		t.Fatal("denied start must not leave a session")
	}

	store.progress[1] = StatusCompleted
	if err := e.Start(ctx, testUser, 2, false); err != nil {
		t.Fatalf("start(2) after survey 1: %v", err)
	}

	// Survey 3 still needs survey 2 completed.
	e.sessions.delete(testUser)
	if err := e.Start(ctx, testUser, 3, false); !errors.Is(err, ErrOrderingViolation) {
		t.Fatalf("start(3) = %v, want ErrOrderingViolation", err)
	}
}

func TestStartCompletedWithoutReset(t *testing.T) {
	e, store, _ := newTestEngine()
	store.progress[1] = StatusCompleted

	if err := e.Start(context.Background(), testUser, 1, false); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("start = %v, want ErrAlreadyCompleted", err)
	}
	if e.HasSession(testUser) {
		t.Fatal("rejected start must not create a session")
	}
}

func TestCompleteSurveyFlow(t *testing.T) {
	e, store, presenter := newTestEngine()
	ctx := context.Background()

	if err := e.Start(ctx, testUser, 1, false); err != nil {
		t.Fatalf("start: %v", err)
	}
	completeSurvey(t, e, 1)

	if e.HasSession(testUser) {
		t.Fatal("session must be cleared after the last answer")
	}
	if store.progress[1] != StatusCompleted {
		t.Fatalf("progress = %s, want %s", store.progress[1], StatusCompleted)
	}
	if len(store.answers) != catalog.QuestionsPerSurvey {
		t.Fatalf("stored answers = %d, want %d", len(store.answers), catalog.QuestionsPerSurvey)
	}
	if len(presenter.completed) != 1 {
		t.Fatalf("completed notices = %d, want 1", len(presenter.completed))
	}
	if got := presenter.completed[0]; got.survey != 1 || !got.hasNext {
		t.Fatalf("completed notice = %+v, want survey 1 with next offer", got)
	}
}

func TestLastSurveyHasNoNextOffer(t *testing.T) {
	e, store, presenter := newTestEngine()
	ctx := context.Background()
	store.progress[1] = StatusCompleted
	store.progress[2] = StatusCompleted

	if err := e.Start(ctx, testUser, 3, false); err != nil {
		t.Fatalf("start: %v", err)
	}
	completeSurvey(t, e, 3)

	if got := presenter.completed[len(presenter.completed)-1]; got.hasNext {
		t.Fatalf("survey %d offered a next survey", got.survey)
	}
}

func TestRepeatDropsPreviousAnswers(t *testing.T) {
	e, store, _ := newTestEngine()
	ctx := context.Background()

	if err := e.Start(ctx, testUser, 1, false); err != nil {
		t.Fatalf("start: %v", err)
	}
	completeSurvey(t, e, 1)

	if err := e.Start(ctx, testUser, 1, true); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != 1 {
		t.Fatalf("deleted surveys = %v, want [1]", store.deleted)
	}
	completeSurvey(t, e, 1)

	if len(store.answers) != catalog.QuestionsPerSurvey {
		t.Fatalf("stored answers after repeat = %d, want %d", len(store.answers), catalog.QuestionsPerSurvey)
	}
}

func TestSubmitOptionStaleTag(t *testing.T) {
	e, _, _ := newTestEngine()
	ctx := context.Background()

	if err := e.SubmitOption(ctx, testUser, 1, 1, 0); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("no session: %v, want ErrNoActiveSession", err)
	}

	if err := e.Start(ctx, testUser, 1, false); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Tag from a question that is no longer current.
	if err := e.SubmitOption(ctx, testUser, 1, 2, 0); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("mismatched tag: %v, want ErrNoActiveSession", err)
	}
}

func TestSubmitOptionInvalidIndex(t *testing.T) {
	e, _, _ := newTestEngine()
	ctx := context.Background()

	if err := e.Start(ctx, testUser, 1, false); err != nil {
		t.Fatalf("start: %v", err)
	}

	err := e.SubmitOption(ctx, testUser, 1, 1, 99)
	var invalid *InvalidOptionError
	if !errors.As(err, &invalid) {
		t.Fatalf("submit = %v, want InvalidOptionError", err)
	}
	if invalid.Option != 99 {
		t.Fatalf("invalid.Option = %d, want 99", invalid.Option)
	}
}

func TestSubmitTextIgnoredOutsideFreeTextQuestion(t *testing.T) {
	e, _, _ := newTestEngine()
	ctx := context.Background()

	handled, err := e.SubmitText(ctx, testUser, "привет")
	if handled || err != nil {
		t.Fatalf("no session: handled=%v err=%v", handled, err)
	}

	if err := e.Start(ctx, testUser, 1, false); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Question 1 is closed-choice; text must fall through.
	handled, err = e.SubmitText(ctx, testUser, "привет")
	if handled || err != nil {
		t.Fatalf("closed question: handled=%v err=%v", handled, err)
	}
}

func TestResultsOldestAnswerWinsOnDuplicates(t *testing.T) {
	e, store, _ := newTestEngine()
	ctx := context.Background()

	// Duplicates happen without a reset: abandon a survey after question 1
	// via the menu, restart it, and answer question 1 again.
	store.answers = []storedAnswer{
		{survey: 1, question: 1, text: "старый"},
		{survey: 1, question: 2, text: "второй"},
		{survey: 1, question: 1, text: "новый"},
		{survey: 2, question: 1, text: "другой опрос"},
	}

	groups, err := e.Results(ctx, testUser)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	first := groups[0]
	if first.Survey != 1 || len(first.Answers) != 2 {
		t.Fatalf("unexpected first group: %+v", first)
	}
	if first.Answers[0].Question != 1 || first.Answers[0].Text != "старый" {
		t.Fatalf("question 1 answer = %+v, want the oldest record", first.Answers[0])
	}
	if groups[1].Survey != 2 {
		t.Fatalf("second group survey = %d, want 2", groups[1].Survey)
	}
}

func TestProgressReadFailureDefaultsToNotStarted(t *testing.T) {
	e, store, _ := newTestEngine()
	store.progressErr = errors.New("connection refused")

	// The ordering check treats unreadable progress as not_started, so
	// survey 2 stays locked rather than the whole flow failing.
	if err := e.Start(context.Background(), testUser, 2, false); !errors.Is(err, ErrOrderingViolation) {
		t.Fatalf("start = %v, want ErrOrderingViolation", err)
	}
}

func TestInsertFailureKeepsSessionMoving(t *testing.T) {
	e, store, presenter := newTestEngine()
	ctx := context.Background()

	if err := e.Start(ctx, testUser, 1, false); err != nil {
		t.Fatalf("start: %v", err)
	}
	store.insertErr = errors.New("disk full")

	if err := e.SubmitOption(ctx, testUser, 1, 1, 0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	sess, ok := e.Session(testUser)
	if !ok || sess.Question != 2 {
		t.Fatalf("session = %+v (ok=%v), want question 2", sess, ok)
	}
	if len(presenter.questions) != 2 {
		t.Fatalf("presented questions = %d, want 2", len(presenter.questions))
	}
}
