package assess

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutAssessment(ctx context.Context, a Assessment) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO assessments (id,title,kind,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, kind=EXCLUDED.kind, questions_json=EXCLUDED.questions_json`,
		a.ID, a.Title, a.Kind, string(a.Questions), time.Now().Unix())
	return err
}

func (s *SQLStore) GetAssessment(ctx context.Context, id string) (Assessment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,kind,questions_json,created_at FROM assessments WHERE id=$1`, id)
	var a Assessment
	var qjson string
	if err := row.Scan(&a.ID, &a.Title, &a.Kind, &qjson, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Assessment{}, fmt.Errorf("assessment %s: %w", id, ErrNotFound)
		}
		return Assessment{}, err
	}
	a.Questions = []byte(qjson)
	return a, nil
}

func (s *SQLStore) ListAssessments(ctx context.Context, limit, offset int) ([]Assessment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,title,kind,questions_json,created_at FROM assessments
		ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Assessment{}
	for rows.Next() {
		var a Assessment
		var qjson string
		if err := rows.Scan(&a.ID, &a.Title, &a.Kind, &qjson, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Questions = []byte(qjson)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutSubmission(ctx context.Context, sub Submission) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO submissions (id,assessment_id,user_id,score,total_weight,percent,report_json,submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		sub.ID, sub.AssessmentID, sub.UserID, sub.Score, sub.TotalWeight, sub.Percent, string(sub.Report), sub.SubmittedAt)
	return err
}

func (s *SQLStore) GetSubmission(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,assessment_id,user_id,score,total_weight,percent,report_json,submitted_at
		FROM submissions WHERE id=$1`, id)
	var sub Submission
	var rjson string
	if err := row.Scan(&sub.ID, &sub.AssessmentID, &sub.UserID, &sub.Score, &sub.TotalWeight, &sub.Percent, &rjson, &sub.SubmittedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, fmt.Errorf("submission %s: %w", id, ErrNotFound)
		}
		return Submission{}, err
	}
	sub.Report = []byte(rjson)
	return sub, nil
}

func (s *SQLStore) ListSubmissions(ctx context.Context, opts ListOpts) ([]Submission, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	q := `SELECT id,assessment_id,user_id,score,total_weight,percent,report_json,submitted_at FROM submissions WHERE 1=1`
	args := []interface{}{}
	n := 0
	add := func(clause string, v interface{}) {
		n++
		q += clause + placeholder(n)
		args = append(args, v)
	}
	if opts.AssessmentID != "" {
		add(` AND assessment_id=`, opts.AssessmentID)
	}
	if opts.UserID != "" {
		add(` AND user_id=`, opts.UserID)
	}
	n++
	q += ` ORDER BY submitted_at DESC, id LIMIT ` + placeholder(n)
	args = append(args, limit)
	n++
	q += ` OFFSET ` + placeholder(n)
	args = append(args, offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Submission{}
	for rows.Next() {
		var sub Submission
		var rjson string
		if err := rows.Scan(&sub.ID, &sub.AssessmentID, &sub.UserID, &sub.Score, &sub.TotalWeight, &sub.Percent, &rjson, &sub.SubmittedAt); err != nil {
			return nil, err
		}
		sub.Report = []byte(rjson)
		out = append(out, sub)
	}
	return out, rows.Err()
}

func placeholder(n int) string {
	// sqlite accepts $n too, so both drivers share the postgres style
	return "$" + strconv.Itoa(n)
}
