package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/domain"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/repository"

	"github.com/lib/pq"
)

type pgParkingLotRepository struct {
	db *sql.DB
}

func NewPgParkingLotRepository(db *sql.DB) repository.ParkingLotRepository {
	return &pgParkingLotRepository{db: db}
}

const lotColumns = `id, name, latitude, longitude, is_active, created_at, updated_at`

func scanLot(scanner interface {
	Scan(dest ...interface{}) error
}, lot *domain.ParkingLot) error {
	err := scanner.Scan(&lot.ID, &lot.Name, &lot.Latitude, &lot.Longitude,
		&lot.IsActive, &lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		return err
	}
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return nil
}

func (r *pgParkingLotRepository) Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	query := `INSERT INTO parking_lots (name, latitude, longitude, is_active, created_at, updated_at)
	           VALUES ($1, $2, $3, TRUE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, is_active, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, lot.Name, lot.Latitude, lot.Longitude).
		Scan(&lot.ID, &lot.IsActive, &lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" {
				return nil, fmt.Errorf("%w: bãi đỗ '%s' đã tồn tại", repository.ErrDuplicateEntry, lot.Name)
			}
		}
		return nil, fmt.Errorf("ParkingLotRepository.Create: %w", err)
	}
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	lot := &domain.ParkingLot{}
	query := `SELECT ` + lotColumns + ` FROM parking_lots WHERE id = $1`
	err := scanLot(r.db.QueryRowContext(ctx, query, id), lot)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.FindByID: %w", err)
	}
	return lot, nil
}

// FindActiveByID loại trừ bãi đã xoá mềm; dùng cho cấp phát chỗ đỗ.
func (r *pgParkingLotRepository) FindActiveByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	lot := &domain.ParkingLot{}
	query := `SELECT ` + lotColumns + ` FROM parking_lots WHERE id = $1 AND is_active = TRUE`
	err := scanLot(r.db.QueryRowContext(ctx, query, id), lot)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.FindActiveByID: %w", err)
	}
	return lot, nil
}

func (r *pgParkingLotRepository) FindAll(ctx context.Context, includeDeleted bool) ([]domain.ParkingLot, error) {
	query := `SELECT ` + lotColumns + ` FROM parking_lots`
	if !includeDeleted {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var lots []domain.ParkingLot
	for rows.Next() {
		var lot domain.ParkingLot
		if err := scanLot(rows, &lot); err != nil {
			return nil, fmt.Errorf("ParkingLotRepository.FindAll (scanning row): %w", err)
		}
		lots = append(lots, lot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindAll (rows error): %w", err)
	}
	return lots, nil
}

func (r *pgParkingLotRepository) Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	query := `UPDATE parking_lots
	           SET name = $1, latitude = $2, longitude = $3, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $4
	           RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, lot.Name, lot.Latitude, lot.Longitude, lot.ID).Scan(&lot.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.Update: %w", err)
	}
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

// SoftDelete vô hiệu bãi đỗ và toàn bộ chỗ đỗ bên trong trong cùng một
// transaction, giữ nguyên dữ liệu cho audit.
func (r *pgParkingLotRepository) SoftDelete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.SoftDelete (begin tx): %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE parking_lots SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP WHERE id = $1 AND is_active = TRUE`, id)
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.SoftDelete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.SoftDelete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE parking_spaces SET status = 'vacant', vehicle_id = NULL, held_at = NULL, updated_at = CURRENT_TIMESTAMP
		  WHERE parking_lot_id = $1`, id)
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.SoftDelete (clearing spaces): %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ParkingLotRepository.SoftDelete (commit): %w", err)
	}
	return nil
}
