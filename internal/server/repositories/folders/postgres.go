package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/pgerr"
)

// PostgresRepository implements folder storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const folderColumns = `id, name, last_updated, created_at, updated_at`

// Create inserts a folder. A name already taken (in any letter case) yields
// common.ErrDuplicateName.
func (r *PostgresRepository) Create(ctx context.Context, name string) (*models.Folder, error) {
	query := `
		INSERT INTO folders (name)
		VALUES ($1)
		RETURNING ` + folderColumns

	f, err := scanFolder(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return nil, common.ErrDuplicateName
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE lower(name) = lower($1)`
	return r.getOne(ctx, query, name)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.Folder, error) {
	f, err := scanFolder(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pgerr.IsInvalidText(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select folders: %w", err)
	}
	defer rows.Close()

	result := []*models.Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Rename(ctx context.Context, id string, name string) (*models.Folder, error) {
	query := `
		UPDATE folders SET name = $2, last_updated = now(), updated_at = now()
		WHERE id = $1
		RETURNING ` + folderColumns

	f, err := scanFolder(r.db.QueryRowContext(ctx, query, id, name))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows), pgerr.IsInvalidText(err):
			return nil, common.ErrorNotFound
		case pgerr.IsUniqueViolation(err):
			return nil, common.ErrDuplicateName
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) DeleteIfEmpty(ctx context.Context, id string) (bool, error) {
	query := `
		DELETE FROM folders
		WHERE id = $1
		  AND NOT EXISTS (SELECT 1 FROM files WHERE folder_id = $1)
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if pgerr.IsInvalidText(err) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFolder(row rowScanner) (*models.Folder, error) {
	f := &models.Folder{}
	if err := row.Scan(&f.ID, &f.Name, &f.LastUpdated, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return f, nil
}
