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

type pgParkingSpaceRepository struct {
	db *sql.DB
}

func NewPgParkingSpaceRepository(db *sql.DB) repository.ParkingSpaceRepository {
	return &pgParkingSpaceRepository{db: db}
}

const spaceColumns = `id, parking_lot_id, vehicle_type, status, vehicle_id, held_at, created_at, updated_at`

func scanSpace(scanner interface {
	Scan(dest ...interface{}) error
}, space *domain.ParkingSpace) error {
	err := scanner.Scan(&space.ID, &space.ParkingLotID, &space.VehicleType, &space.Status,
		&space.VehicleID, &space.HeldAt, &space.CreatedAt, &space.UpdatedAt)
	if err != nil {
		return err
	}
	space.CreatedAt = space.CreatedAt.In(time.UTC)
	space.UpdatedAt = space.UpdatedAt.In(time.UTC)
	return nil
}

func (r *pgParkingSpaceRepository) Create(ctx context.Context, space *domain.ParkingSpace) (*domain.ParkingSpace, error) {
	query := `INSERT INTO parking_spaces (parking_lot_id, vehicle_type, status, created_at, updated_at)
	           VALUES ($1, $2, 'vacant', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, status, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, space.ParkingLotID, space.VehicleType).
		Scan(&space.ID, &space.Status, &space.CreatedAt, &space.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "foreign_key_violation" {
				return nil, fmt.Errorf("%w: bãi đỗ %d không tồn tại", repository.ErrNotFound, space.ParkingLotID)
			}
		}
		return nil, fmt.Errorf("ParkingSpaceRepository.Create: %w", err)
	}
	space.CreatedAt = space.CreatedAt.In(time.UTC)
	space.UpdatedAt = space.UpdatedAt.In(time.UTC)
	return space, nil
}

func (r *pgParkingSpaceRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSpace, error) {
	space := &domain.ParkingSpace{}
	query := `SELECT ` + spaceColumns + ` FROM parking_spaces WHERE id = $1`
	err := scanSpace(r.db.QueryRowContext(ctx, query, id), space)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSpaceRepository.FindByID: %w", err)
	}
	return space, nil
}

func (r *pgParkingSpaceRepository) FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpace, error) {
	query := `SELECT ` + spaceColumns + ` FROM parking_spaces WHERE parking_lot_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, lotID)
	if err != nil {
		return nil, fmt.Errorf("ParkingSpaceRepository.FindByLotID: %w", err)
	}
	defer rows.Close()

	var spaces []domain.ParkingSpace
	for rows.Next() {
		var space domain.ParkingSpace
		if err := scanSpace(rows, &space); err != nil {
			return nil, fmt.Errorf("ParkingSpaceRepository.FindByLotID (scanning row): %w", err)
		}
		spaces = append(spaces, space)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSpaceRepository.FindByLotID (rows error): %w", err)
	}
	return spaces, nil
}

func (r *pgParkingSpaceRepository) FindVacantIDs(ctx context.Context, lotID int, vehicleType domain.VehicleType, limit int) ([]int, error) {
	query := `SELECT id FROM parking_spaces
	           WHERE parking_lot_id = $1 AND vehicle_type = $2 AND status = 'vacant' AND vehicle_id IS NULL
	           ORDER BY id ASC LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, lotID, vehicleType, limit)
	if err != nil {
		return nil, fmt.Errorf("ParkingSpaceRepository.FindVacantIDs: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ParkingSpaceRepository.FindVacantIDs (scanning row): %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSpaceRepository.FindVacantIDs (rows error): %w", err)
	}
	return ids, nil
}

// HoldIfVacant chuyển chỗ sang 'reserved' bằng một UPDATE có điều kiện duy nhất.
// Hai caller cùng tranh một chỗ thì đúng một caller thấy rows affected = 1;
// caller còn lại nhận ErrConflict và phải thử ứng viên khác.
func (r *pgParkingSpaceRepository) HoldIfVacant(ctx context.Context, spaceID int, heldAt time.Time) (*domain.ParkingSpace, error) {
	space := &domain.ParkingSpace{}
	query := `UPDATE parking_spaces
	           SET status = 'reserved', held_at = $1, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $2 AND status = 'vacant' AND vehicle_id IS NULL
	           RETURNING ` + spaceColumns
	err := scanSpace(r.db.QueryRowContext(ctx, query, heldAt, spaceID), space)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrConflict
		}
		return nil, fmt.Errorf("ParkingSpaceRepository.HoldIfVacant: %w", err)
	}
	return space, nil
}

func (r *pgParkingSpaceRepository) OccupyIfFree(ctx context.Context, spaceID int, vehicleID int) error {
	// Điều kiện vehicle_id = $1 cho phép sensor báo trùng cùng một xe mà không lỗi.
	query := `UPDATE parking_spaces
	           SET status = 'occupied', vehicle_id = $1, held_at = NULL, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $2 AND (vehicle_id IS NULL OR vehicle_id = $1)`
	result, err := r.db.ExecContext(ctx, query, vehicleID, spaceID)
	if err != nil {
		return fmt.Errorf("ParkingSpaceRepository.OccupyIfFree: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSpaceRepository.OccupyIfFree (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrConflict
	}
	return nil
}

func (r *pgParkingSpaceRepository) ClearOccupant(ctx context.Context, spaceID int) error {
	query := `UPDATE parking_spaces
	           SET status = 'vacant', vehicle_id = NULL, held_at = NULL, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, spaceID)
	if err != nil {
		return fmt.Errorf("ParkingSpaceRepository.ClearOccupant: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSpaceRepository.ClearOccupant (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgParkingSpaceRepository) ReleaseExpiredHolds(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `UPDATE parking_spaces
	           SET status = 'vacant', held_at = NULL, updated_at = CURRENT_TIMESTAMP
	           WHERE status = 'reserved' AND vehicle_id IS NULL AND held_at < $1`
	result, err := r.db.ExecContext(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("ParkingSpaceRepository.ReleaseExpiredHolds: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ParkingSpaceRepository.ReleaseExpiredHolds (checking rows affected): %w", err)
	}
	return rowsAffected, nil
}

func (r *pgParkingSpaceRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM parking_spaces WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ParkingSpaceRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSpaceRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgParkingSpaceRepository) CountByLotAndStatus(ctx context.Context, lotID int, status domain.SpaceStatus) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM parking_spaces WHERE parking_lot_id = $1 AND status = $2`
	err := r.db.QueryRowContext(ctx, query, lotID, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ParkingSpaceRepository.CountByLotAndStatus: %w", err)
	}
	return count, nil
}
