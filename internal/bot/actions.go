package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// Callback action keys. Buttons carry them as telebot uniques; payloads
// follow after '|' and are echoed back verbatim.
const (
	actMenu          = "menu"
	actResults       = "results"
	actSurvey        = "survey"
	actRepeat        = "repeat"
	actAnswer        = "answer"
	actFeedback      = "fb"
	actFeedbackReply = "fbreply"
)

const answerSep = "|"

// answerPayload encodes the (survey, question, option) tag of an answer
// button.
func answerPayload(surveyNum, questionNum, optionIdx int) string {
	return fmt.Sprintf("%d%s%d%s%d", surveyNum, answerSep, questionNum, answerSep, optionIdx)
}

// parseAnswerPayload decodes an answer tag. Malformed tags return an error
// and are ignored by the caller.
func parseAnswerPayload(payload string) (surveyNum, questionNum, optionIdx int, err error) {
	parts := strings.Split(payload, answerSep)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("malformed answer payload: %q", payload)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, convErr := strconv.Atoi(p)
		if convErr != nil {
			return 0, 0, 0, fmt.Errorf("malformed answer payload: %q", payload)
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], nil
}
