package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/repository"
)

// pgRevokedTokenRepository là revocation registry: mỗi dòng là một token phải
// coi là vô hiệu, kèm thời điểm token tự hết hạn để job dọn dẹp xoá dần.
type pgRevokedTokenRepository struct {
	db *sql.DB
}

func NewPgRevokedTokenRepository(db *sql.DB) repository.RevokedTokenRepository {
	return &pgRevokedTokenRepository{db: db}
}

func (r *pgRevokedTokenRepository) Insert(ctx context.Context, token string, expiresAt time.Time) error {
	// ON CONFLICT DO NOTHING: thu hồi lặp lại cùng một token không phải lỗi.
	query := `INSERT INTO revoked_tokens (token, expires_at) VALUES ($1, $2)
	           ON CONFLICT (token) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, token, expiresAt)
	if err != nil {
		return fmt.Errorf("RevokedTokenRepository.Insert: %w", err)
	}
	return nil
}

func (r *pgRevokedTokenRepository) IsRevoked(ctx context.Context, token string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE token = $1)`
	err := r.db.QueryRowContext(ctx, query, token).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("RevokedTokenRepository.IsRevoked: %w", err)
	}
	return exists, nil
}

func (r *pgRevokedTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM revoked_tokens WHERE expires_at < $1`
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("RevokedTokenRepository.DeleteExpired: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("RevokedTokenRepository.DeleteExpired (checking rows affected): %w", err)
	}
	return rowsAffected, nil
}
