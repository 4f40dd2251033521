package survey

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderingViolation means a previous survey has not been completed yet.
	ErrOrderingViolation = errors.New("survey: previous surveys not completed")
	// ErrAlreadyCompleted means the survey was already completed and no reset
	// was requested. The caller should offer a restart or a return to menu.
	ErrAlreadyCompleted = errors.New("survey: already completed")
	// ErrNoActiveSession means the user has no active survey session, or the
	// submitted action tag no longer matches it.
	ErrNoActiveSession = errors.New("survey: no active session")
	// ErrUnknownSurvey means the survey number is outside the catalog.
	ErrUnknownSurvey = errors.New("survey: unknown survey number")
)

// InvalidOptionError reports an option index outside the question's option
// set. A well-formed keyboard never produces it.
type InvalidOptionError struct {
	Survey   int
	Question int
	Option   int
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("survey: invalid option %d for survey %d question %d", e.Option, e.Survey, e.Question)
}

// Code returns a stable error code for log summaries.
func (e *InvalidOptionError) Code() string {
	return "invalid_option"
}
