package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/parisxmas/OxiForms/internal/models"
)

type FormRepo struct {
	db *sql.DB
}

func NewFormRepo(db *sql.DB) *FormRepo {
	return &FormRepo{db: db}
}

const formColumns = `id, owner_id, name, description, fields, settings, published, share_id, created_at, updated_at`

func (r *FormRepo) Create(ctx context.Context, f *models.Form) error {
	fields, settings, err := encodeForm(f)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO forms (`+formColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.OwnerID, f.Name, f.Description, fields, settings, boolToInt(f.Published), f.ShareID,
		formatTime(f.CreatedAt), formatTime(f.UpdatedAt))
	return err
}

func (r *FormRepo) FindByID(ctx context.Context, id string) (*models.Form, error) {
	return scanForm(r.db.QueryRowContext(ctx, `SELECT `+formColumns+` FROM forms WHERE id = ?`, id))
}

func (r *FormRepo) FindByShareID(ctx context.Context, shareID string) (*models.Form, error) {
	return scanForm(r.db.QueryRowContext(ctx, `SELECT `+formColumns+` FROM forms WHERE share_id = ?`, shareID))
}

// FindByOwner lists an owner's forms, most recently updated first.
func (r *FormRepo) FindByOwner(ctx context.Context, ownerID string) ([]models.Form, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+formColumns+` FROM forms WHERE owner_id = ? ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	forms := make([]models.Form, 0)
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		forms = append(forms, *f)
	}
	return forms, rows.Err()
}

// Update overwrites the mutable columns. Owner, share id and creation time
// never change.
func (r *FormRepo) Update(ctx context.Context, f *models.Form) error {
	fields, settings, err := encodeForm(f)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE forms SET name = ?, description = ?, fields = ?, settings = ?, published = ?, updated_at = ? WHERE id = ?`,
		f.Name, f.Description, fields, settings, boolToInt(f.Published), formatTime(f.UpdatedAt), f.ID)
	return err
}

// Delete removes the form; submissions, webhooks and documents go with it.
func (r *FormRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM forms WHERE id = ?`, id)
	return err
}

func (r *FormRepo) CountByOwner(ctx context.Context, ownerID string) (total, published int, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(published), 0) FROM forms WHERE owner_id = ?`, ownerID).Scan(&total, &published)
	return
}

func encodeForm(f *models.Form) (fields, settings string, err error) {
	fs := f.Fields
	if fs == nil {
		fs = []models.Field{}
	}
	if fields, err = toJSON(fs); err != nil {
		return "", "", err
	}
	if settings, err = toJSON(f.Settings); err != nil {
		return "", "", err
	}
	return fields, settings, nil
}

func scanForm(row scanner) (*models.Form, error) {
	var (
		f                models.Form
		fields, settings string
		published        int
		created, updated string
	)
	err := row.Scan(&f.ID, &f.OwnerID, &f.Name, &f.Description, &fields, &settings, &published, &f.ShareID, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f.Published = published != 0
	if err := fromJSON(fields, &f.Fields, "form fields"); err != nil {
		return nil, err
	}
	if err := fromJSON(settings, &f.Settings, "form settings"); err != nil {
		return nil, err
	}
	if f.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if f.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &f, nil
}
