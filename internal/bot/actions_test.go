package bot

import "testing"

func TestAnswerPayloadRoundTrip(t *testing.T) {
	payload := answerPayload(2, 3, 1)
	if payload != "2|3|1" {
		t.Fatalf("payload = %q", payload)
	}
	s, q, o, err := parseAnswerPayload(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s != 2 || q != 3 || o != 1 {
		t.Fatalf("parsed = (%d, %d, %d)", s, q, o)
	}
}

func TestParseAnswerPayloadMalformed(t *testing.T) {
	for _, payload := range []string{"", "1", "1|2", "1|2|3|4", "a|2|3", "1|b|3", "1|2|c"} {
		if _, _, _, err := parseAnswerPayload(payload); err == nil {
			t.Fatalf("parse(%q) must fail", payload)
		}
	}
}
