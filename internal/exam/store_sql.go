package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
)

// SQLStore persists tests and variants through database/sql. Question
// lists and permutations are stored as JSON blobs, same columns under
// sqlite and postgres.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutTest(ctx context.Context, t Test) error {
	qj, err := json.Marshal(t.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO tests (id,title,questions_json,created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, questions_json=EXCLUDED.questions_json`,
		t.ID, t.Title, string(qj), t.CreatedAt)
	return err
}

func (s *SQLStore) GetTest(ctx context.Context, id string) (Test, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,questions_json,created_at FROM tests WHERE id=$1`, id)
	var t Test
	var qjson string
	if err := row.Scan(&t.ID, &t.Title, &qjson, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Test{}, ErrTestNotFound
		}
		return Test{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &t.Questions); err != nil {
		return Test{}, err
	}
	return t, nil
}

func (s *SQLStore) ListTests(ctx context.Context) ([]TestSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,title,questions_json,created_at FROM tests ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TestSummary
	for rows.Next() {
		var ts TestSummary
		var qjson string
		if err := rows.Scan(&ts.ID, &ts.Title, &qjson, &ts.CreatedAt); err != nil {
			return nil, err
		}
		var qs []Question
		if err := json.Unmarshal([]byte(qjson), &qs); err == nil {
			ts.Questions = len(qs)
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutVariant(ctx context.Context, v Variant) error {
	qj, err := json.Marshal(v.Questions)
	if err != nil {
		return err
	}
	pj, err := json.Marshal(v.QuestionPerm)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO variants (id,test_id,recipient_id,code,question_perm_json,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		v.ID, v.TestID, v.RecipientID, v.Code, string(pj), string(qj), v.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateCode
	}
	return err
}

func (s *SQLStore) GetVariantByCode(ctx context.Context, code string) (Variant, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,test_id,recipient_id,code,question_perm_json,questions_json,created_at
		FROM variants WHERE code=$1`, code)
	return scanVariant(row)
}

func (s *SQLStore) ListVariants(ctx context.Context, testID string) ([]Variant, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,test_id,recipient_id,code,question_perm_json,questions_json,created_at
		FROM variants WHERE test_id=$1 ORDER BY created_at, id`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Variant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteVariantsByTest(ctx context.Context, testID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM variants WHERE test_id=$1`, testID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVariant(row rowScanner) (Variant, error) {
	var v Variant
	var pj, qj string
	if err := row.Scan(&v.ID, &v.TestID, &v.RecipientID, &v.Code, &pj, &qj, &v.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Variant{}, ErrVariantNotFound
		}
		return Variant{}, err
	}
	if err := json.Unmarshal([]byte(pj), &v.QuestionPerm); err != nil {
		return Variant{}, err
	}
	if err := json.Unmarshal([]byte(qj), &v.Questions); err != nil {
		return Variant{}, err
	}
	return v, nil
}

// isUniqueViolation matches the duplicate-key wording of both drivers
// (sqlite: "UNIQUE constraint failed", postgres: SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "23505")
}
