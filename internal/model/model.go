package model

import (
	"time"
)

// SchemaVersion is the only question-set file version this build understands.
const SchemaVersion = 1

// NoAnswer marks a question the examinee skipped or timed out on.
const NoAnswer = -1

// SessionStatus represents the status of an exam session.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
)

// Question is a single multiple-choice question.
type Question struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	// AnswerIndex is the zero-based index of the correct option.
	AnswerIndex int `json:"answer_index"`
	// AnswerIndexes lists all correct options for multi-answer questions.
	// When present it supersedes AnswerIndex.
	AnswerIndexes []int  `json:"answer_indexes,omitempty"`
	Explanation   string `json:"explanation,omitempty"`
}

// CorrectIndexes returns the correct option indexes for the question.
func (q Question) CorrectIndexes() []int {
	if len(q.AnswerIndexes) > 0 {
		return q.AnswerIndexes
	}
	return []int{q.AnswerIndex}
}

// IsCorrect reports whether the given option index is a correct answer.
func (q Question) IsCorrect(choice int) bool {
	for _, i := range q.CorrectIndexes() {
		if choice == i {
			return true
		}
	}
	return false
}

// QuestionSet is a named collection of questions loaded from one JSON file.
// The slug (the file's base name) is its unique key within a data directory.
type QuestionSet struct {
	Version            int        `json:"version"`
	Slug               string     `json:"slug"`
	Mode               string     `json:"mode"`
	Category           string     `json:"category"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	TimePerQuestionSec int        `json:"time_per_question_sec"`
	Questions          []Question `json:"questions"`
}

// SetSummary is the listing view of a question set, without the questions
// themselves (and therefore without answer keys).
type SetSummary struct {
	Slug               string `json:"slug"`
	Mode               string `json:"mode"`
	Category           string `json:"category"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	NumQuestions       int    `json:"num_questions"`
	TimePerQuestionSec int    `json:"time_per_question_sec"`
}

// Summary returns the listing view of the set.
func (qs *QuestionSet) Summary() SetSummary {
	return SetSummary{
		Slug:               qs.Slug,
		Mode:               qs.Mode,
		Category:           qs.Category,
		Title:              qs.Title,
		Description:        qs.Description,
		NumQuestions:       len(qs.Questions),
		TimePerQuestionSec: qs.TimePerQuestionSec,
	}
}

// Session tracks one examinee's progress through a question set.
// Sessions live in memory and are owned by a single caller via cookie token.
type Session struct {
	Token        string        `json:"-"`
	Slug         string        `json:"question_set_id"`
	CurrentIndex int           `json:"current_index"`
	Answers      []int         `json:"answers"`
	Status       SessionStatus `json:"status"`
	StartedAt    time.Time     `json:"started_at"`
	ExpiresAt    time.Time     `json:"-"`
}

// QuestionResult is the per-question correctness breakdown of a finished exam.
type QuestionResult struct {
	Index       int    `json:"index"`
	Selected    int    `json:"selected"`
	Correct     bool   `json:"correct"`
	AnswerIndex int    `json:"answer_index"`
	Explanation string `json:"explanation,omitempty"`
}

// ExamResult is a finalized exam outcome, persisted once a session completes.
type ExamResult struct {
	ID        int64            `json:"id"`
	Slug      string           `json:"question_set_id"`
	Title     string           `json:"title"`
	Score     int              `json:"score"`
	Total     int              `json:"total"`
	Breakdown []QuestionResult `json:"breakdown"`
	TakenAt   time.Time        `json:"taken_at"`
}

// User is an admin account for the reload and results endpoints.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// AppConfig holds runtime parameters set via CLI flags.
type AppConfig struct {
	DataDir       string // explicit data directory override (empty = search candidates)
	BasePath      string // URL prefix for sub-path deployments (e.g. "/spi")
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
	SessionTTL    time.Duration
}
