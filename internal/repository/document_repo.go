package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/parisxmas/OxiForms/internal/models"
)

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

const documentColumns = `id, form_id, file_name, content_type, size, storage_key, url, created_at`

func (r *DocumentRepo) Create(ctx context.Context, d *models.Document) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.FormID, d.FileName, d.ContentType, d.Size, d.StorageKey, d.URL, formatTime(d.CreatedAt))
	return err
}

func (r *DocumentRepo) FindByID(ctx context.Context, formID, id string) (*models.Document, error) {
	return scanDocument(r.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ? AND form_id = ?`, id, formID))
}

func (r *DocumentRepo) FindByForm(ctx context.Context, formID string) ([]models.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE form_id = ? ORDER BY created_at DESC, id`, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]models.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func (r *DocumentRepo) Delete(ctx context.Context, formID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ? AND form_id = ?`, id, formID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanDocument(row scanner) (*models.Document, error) {
	var (
		d       models.Document
		created string
	)
	err := row.Scan(&d.ID, &d.FormID, &d.FileName, &d.ContentType, &d.Size, &d.StorageKey, &d.URL, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if d.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &d, nil
}
