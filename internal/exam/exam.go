// Package exam implements the session flow: mode selection starts a
// session, answer submissions advance it, and reaching the last question
// completes it. Sessions are in-memory, keyed by an opaque token carried
// in a cookie, and expire after a TTL.
package exam

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/spilabs/spiexam/internal/model"
)

// DefaultSessionTTL matches the original one-hour exam session lifetime.
const DefaultSessionTTL = time.Hour

// Manager owns all active exam sessions for the process.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
	ttl      time.Duration
	now      func() time.Time
}

// NewManager creates a session manager. A non-positive ttl falls back to
// DefaultSessionTTL.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Manager{
		sessions: map[string]*model.Session{},
		ttl:      ttl,
		now:      time.Now,
	}
}

// Start creates a session for the given question set and returns it.
// The caller is responsible for having resolved the set from the catalog.
func (m *Manager) Start(qs *model.QuestionSet) (*model.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	now := m.now()
	sess := &model.Session{
		Token:     token,
		Slug:      qs.Slug,
		Answers:   make([]int, 0, len(qs.Questions)),
		Status:    model.StatusInProgress,
		StartedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[token] = sess
	out := snapshot(sess)
	m.mu.Unlock()

	return out, nil
}

// Get returns the session for the given token. Expired sessions are
// dropped on access, the way an expired auth token would be. The copy is
// taken under the read lock; Answer mutates the stored session under the
// write lock, so a snapshot must never outlive its lock.
func (m *Manager) Get(token string) (*model.Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[token]
	if ok && !m.now().After(sess.ExpiresAt) {
		out := snapshot(sess)
		m.mu.RUnlock()
		return out, nil
	}
	m.mu.RUnlock()

	if ok {
		m.expire(token)
	}
	return nil, model.ErrNoSession
}

// expire re-checks the deadline under the write lock before dropping the
// session.
func (m *Manager) expire(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[token]; ok && m.now().After(sess.ExpiresAt) {
		delete(m.sessions, token)
	}
}

// Answer records a choice for the session's current question and advances
// it. choice is the option index, or model.NoAnswer for a skip/timeout.
// An out-of-range choice leaves the session untouched. Answering the last
// question transitions the session to completed.
func (m *Manager) Answer(token string, qs *model.QuestionSet, choice int) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[token]
	if !ok {
		return nil, model.ErrNoSession
	}
	if m.now().After(sess.ExpiresAt) {
		delete(m.sessions, token)
		return nil, model.ErrNoSession
	}
	if sess.Status != model.StatusInProgress {
		return nil, model.ErrExamCompleted
	}

	// A reload may have replaced the set with fewer questions than the
	// session has already advanced past. No question remains to answer.
	if sess.CurrentIndex >= len(qs.Questions) {
		sess.Status = model.StatusCompleted
		return snapshot(sess), nil
	}

	q := qs.Questions[sess.CurrentIndex]
	if choice != model.NoAnswer && (choice < 0 || choice >= len(q.Options)) {
		return nil, fmt.Errorf("choice %d for %d options: %w", choice, len(q.Options), model.ErrInvalidChoice)
	}

	sess.Answers = append(sess.Answers, choice)
	sess.CurrentIndex++
	if sess.CurrentIndex >= len(qs.Questions) {
		sess.Status = model.StatusCompleted
	}

	return snapshot(sess), nil
}

// Finish scores a completed session, removes it, and returns the result.
// It fails with model.ErrExamInProgress while questions remain.
func (m *Manager) Finish(token string, qs *model.QuestionSet) (*model.ExamResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[token]
	if !ok {
		return nil, model.ErrNoSession
	}
	if sess.Status != model.StatusCompleted {
		// A shrunk set leaves nothing to answer; treat that as completed.
		if sess.CurrentIndex < len(qs.Questions) {
			return nil, model.ErrExamInProgress
		}
		sess.Status = model.StatusCompleted
	}

	score, breakdown := Score(qs, sess.Answers)
	delete(m.sessions, token)

	return &model.ExamResult{
		Slug:      qs.Slug,
		Title:     qs.Title,
		Score:     score,
		Total:     len(qs.Questions),
		Breakdown: breakdown,
		TakenAt:   m.now(),
	}, nil
}

// Delete drops a session, if present.
func (m *Manager) Delete(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Sweep removes all expired sessions and returns how many were dropped.
func (m *Manager) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	dropped := 0
	for token, sess := range m.sessions {
		if now.After(sess.ExpiresAt) {
			delete(m.sessions, token)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of active sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Score counts correct answers and builds the per-question breakdown.
// Missing or skipped answers count as incorrect.
func Score(qs *model.QuestionSet, answers []int) (int, []model.QuestionResult) {
	score := 0
	breakdown := make([]model.QuestionResult, len(qs.Questions))
	for i, q := range qs.Questions {
		selected := model.NoAnswer
		if i < len(answers) {
			selected = answers[i]
		}
		correct := selected != model.NoAnswer && q.IsCorrect(selected)
		if correct {
			score++
		}
		breakdown[i] = model.QuestionResult{
			Index:       i,
			Selected:    selected,
			Correct:     correct,
			AnswerIndex: q.CorrectIndexes()[0],
			Explanation: q.Explanation,
		}
	}
	return score, breakdown
}

// snapshot copies a session so callers never hold a pointer into the
// manager's map.
func snapshot(sess *model.Session) *model.Session {
	out := *sess
	out.Answers = append([]int(nil), sess.Answers...)
	return &out
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
