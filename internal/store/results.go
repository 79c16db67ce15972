package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/spilabs/spiexam/internal/model"
)

// SaveResult persists a finalized exam result. The per-question breakdown
// is stored as a JSON column; the row itself is the queryable summary.
func (s *Store) SaveResult(r model.ExamResult) (int64, error) {
	breakdown, err := json.Marshal(r.Breakdown)
	if err != nil {
		return 0, fmt.Errorf("marshal breakdown: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO exam_results (slug, title, score, total, breakdown, taken_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.Slug, r.Title, r.Score, r.Total, string(breakdown), r.TakenAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetResult returns one result by ID, with its breakdown decoded.
func (s *Store) GetResult(id int64) (*model.ExamResult, error) {
	var r model.ExamResult
	var breakdown string
	err := s.db.QueryRow(
		`SELECT id, slug, title, score, total, breakdown, taken_at
		 FROM exam_results WHERE id = ?`, id,
	).Scan(&r.ID, &r.Slug, &r.Title, &r.Score, &r.Total, &breakdown, &r.TakenAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(breakdown), &r.Breakdown); err != nil {
		return nil, fmt.Errorf("decode breakdown for result %d: %w", id, err)
	}
	return &r, nil
}

// ListResults returns results newest first, without breakdowns.
func (s *Store) ListResults(limit int) ([]model.ExamResult, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT id, slug, title, score, total, taken_at
		 FROM exam_results ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.ExamResult
	for rows.Next() {
		var r model.ExamResult
		if err := rows.Scan(&r.ID, &r.Slug, &r.Title, &r.Score, &r.Total, &r.TakenAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ResultCount returns the total number of stored results.
func (s *Store) ResultCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM exam_results`).Scan(&count)
	return count, err
}
