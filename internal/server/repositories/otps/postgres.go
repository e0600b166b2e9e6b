package otps

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, email string, code string) error {
	query := `
		INSERT INTO otps (email, verification_code)
		VALUES ($1, $2)
		ON CONFLICT (email)
		DO UPDATE SET
			verification_code = EXCLUDED.verification_code,
			verified_at = NULL,
			created_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, email, code); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, email string) (*models.OTP, error) {
	query := `
		SELECT email, verification_code, verified_at, created_at
		FROM otps
		WHERE email = $1
	`
	otp := &models.OTP{}
	var verifiedAt sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&otp.Email, &otp.VerificationCode, &verifiedAt, &otp.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if verifiedAt.Valid {
		otp.VerifiedAt = &verifiedAt.Time
	}
	return otp, nil
}

func (r *PostgresRepository) MarkVerified(ctx context.Context, email string) error {
	query := `UPDATE otps SET verified_at = now() WHERE email = $1`
	res, err := r.db.ExecContext(ctx, query, email)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, email string) error {
	query := `DELETE FROM otps WHERE email = $1`
	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
