package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/parisxmas/OxiForms/internal/models"
)

type SubmissionRepo struct {
	db *sql.DB
}

func NewSubmissionRepo(db *sql.DB) *SubmissionRepo {
	return &SubmissionRepo{db: db}
}

const submissionColumns = `id, form_id, data, user_agent, ip, created_at`

func (r *SubmissionRepo) Create(ctx context.Context, s *models.Submission) error {
	data := s.Data
	if data == nil {
		data = map[string]any{}
	}
	encoded, err := toJSON(data)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO submissions (`+submissionColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.FormID, encoded, s.Metadata.UserAgent, s.Metadata.IP, formatTime(s.CreatedAt))
	return err
}

func (r *SubmissionRepo) FindByID(ctx context.Context, formID, id string) (*models.Submission, error) {
	return scanSubmission(r.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = ? AND form_id = ?`, id, formID))
}

// FindByForm returns one page of a form's submissions, newest first, plus
// the total number matching. A non-empty query filters on the stored
// answers.
func (r *SubmissionRepo) FindByForm(ctx context.Context, formID, query string, skip, limit int) ([]models.Submission, int, error) {
	where := `WHERE form_id = ?`
	args := []any{formID}
	if query != "" {
		where += ` AND data LIKE ? ESCAPE '\'`
		args = append(args, likePattern(query))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	subs, err := r.query(ctx,
		`SELECT `+submissionColumns+` FROM submissions `+where+` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		append(args, limit, skip)...)
	if err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

// FindAllByForm returns every submission of a form, newest first.
func (r *SubmissionRepo) FindAllByForm(ctx context.Context, formID string) ([]models.Submission, error) {
	return r.query(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE form_id = ? ORDER BY created_at DESC, id`, formID)
}

// FindSince returns a form's submissions created at or after since, oldest
// first.
func (r *SubmissionRepo) FindSince(ctx context.Context, formID string, since time.Time) ([]models.Submission, error) {
	return r.query(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE form_id = ? AND created_at >= ? ORDER BY created_at, id`,
		formID, formatTime(since))
}

func (r *SubmissionRepo) Delete(ctx context.Context, formID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = ? AND form_id = ?`, id, formID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteMany removes the listed submissions of one form. Ids belonging to
// other forms are ignored.
func (r *SubmissionRepo) DeleteMany(ctx context.Context, formID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, formID)
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM submissions WHERE form_id = ? AND id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *SubmissionRepo) CountByForm(ctx context.Context, formID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions WHERE form_id = ?`, formID).Scan(&n)
	return n, err
}

// CountByOwner counts submissions across every form of an owner.
func (r *SubmissionRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM submissions s JOIN forms f ON f.id = s.form_id WHERE f.owner_id = ?`, ownerID).Scan(&n)
	return n, err
}

// CountsByForm maps form id to submission count for an owner's forms.
func (r *SubmissionRepo) CountsByForm(ctx context.Context, ownerID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.form_id, COUNT(*) FROM submissions s JOIN forms f ON f.id = s.form_id
		 WHERE f.owner_id = ? GROUP BY s.form_id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (r *SubmissionRepo) query(ctx context.Context, q string, args ...any) ([]models.Submission, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]models.Submission, 0)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *s)
	}
	return subs, rows.Err()
}

func scanSubmission(row scanner) (*models.Submission, error) {
	var (
		s             models.Submission
		data, created string
	)
	err := row.Scan(&s.ID, &s.FormID, &data, &s.Metadata.UserAgent, &s.Metadata.IP, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Data = map[string]any{}
	if err := fromJSON(data, &s.Data, "submission data"); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &s, nil
}
