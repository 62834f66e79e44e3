package domain

// NumOptions is the number of answer options every question carries.
// Malformed source records are padded to this length with empty strings.
const NumOptions = 4

// Question models a single multiple-choice question. Identity fields
// (ID, Text, Options, CorrectAnswer) are fixed once loaded; UserAnswer
// is the only per-session mutable field and is set at most once.
type Question struct {
	ID            int64    `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`

	// UserAnswer is nil until the question leaves the current position.
	// A nil answer on a history entry marks a timed-out or
	// force-submitted question.
	UserAnswer *string `json:"userAnswer,omitempty"`
}

// Answered reports whether a real answer was recorded, as opposed to
// the no-answer marker left by a timeout or force submit.
func (q Question) Answered() bool {
	return q.UserAnswer != nil
}

// IsCorrect compares the recorded answer against the correct one using
// exact string equality. Unanswered questions are never correct.
func (q Question) IsCorrect() bool {
	return q.UserAnswer != nil && *q.UserAnswer == q.CorrectAnswer
}
