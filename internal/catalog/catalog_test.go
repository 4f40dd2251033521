package catalog

import "testing"

func TestCatalogShape(t *testing.T) {
	all := All()
	if len(all) != SurveyCount {
		t.Fatalf("surveys = %d, want %d", len(all), SurveyCount)
	}
	for i, s := range all {
		if s.Number != i+1 {
			t.Fatalf("survey %d has number %d", i, s.Number)
		}
		for qn := 1; qn <= QuestionsPerSurvey; qn++ {
			q, ok := s.Question(qn)
			if !ok {
				t.Fatalf("survey %d question %d missing", s.Number, qn)
			}
			if q.Text == "" {
				t.Fatalf("survey %d question %d has empty text", s.Number, qn)
			}
			if q.Image == "" {
				t.Fatalf("survey %d question %d has no image", s.Number, qn)
			}
		}
	}
}

func TestLastQuestionIsFreeText(t *testing.T) {
	for _, s := range All() {
		for qn := 1; qn <= QuestionsPerSurvey; qn++ {
			q, _ := s.Question(qn)
			if qn == QuestionsPerSurvey {
				if !q.FreeText() {
					t.Fatalf("survey %d question %d must be free-text", s.Number, qn)
				}
				continue
			}
			if q.FreeText() {
				t.Fatalf("survey %d question %d must be closed-choice", s.Number, qn)
			}
			if len(q.Options) < 2 {
				t.Fatalf("survey %d question %d has %d options", s.Number, qn, len(q.Options))
			}
		}
	}
}

func TestGetBounds(t *testing.T) {
	for _, n := range []int{0, -1, SurveyCount + 1} {
		if _, ok := Get(n); ok {
			t.Fatalf("Get(%d) must fail", n)
		}
	}
	s, ok := Get(1)
	if !ok || s.Number != 1 {
		t.Fatalf("Get(1) = (%+v, %v)", s, ok)
	}
	if _, ok := s.Question(QuestionsPerSurvey + 1); ok {
		t.Fatal("out-of-range question lookup must fail")
	}
}
