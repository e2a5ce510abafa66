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

type pgVehicleRepository struct {
	db *sql.DB
}

func NewPgVehicleRepository(db *sql.DB) repository.VehicleRepository {
	return &pgVehicleRepository{db: db}
}

const vehicleColumns = `id, license_plate, vehicle_type, owner_id, created_at`

func (r *pgVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error) {
	query := `INSERT INTO vehicles (license_plate, vehicle_type, owner_id, created_at)
	           VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
	           RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, vehicle.LicensePlate, vehicle.VehicleType, vehicle.OwnerID).
		Scan(&vehicle.ID, &vehicle.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == "vehicles_license_plate_key" {
				return nil, fmt.Errorf("%w: biển số '%s' đã được đăng ký", repository.ErrDuplicateEntry, vehicle.LicensePlate)
			}
		}
		return nil, fmt.Errorf("VehicleRepository.Create: %w", err)
	}
	vehicle.CreatedAt = vehicle.CreatedAt.In(time.UTC)
	return vehicle, nil
}

func (r *pgVehicleRepository) FindByID(ctx context.Context, id int) (*domain.Vehicle, error) {
	vehicle := &domain.Vehicle{}
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&vehicle.ID, &vehicle.LicensePlate, &vehicle.VehicleType, &vehicle.OwnerID, &vehicle.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("VehicleRepository.FindByID: %w", err)
	}
	vehicle.CreatedAt = vehicle.CreatedAt.In(time.UTC)
	return vehicle, nil
}

func (r *pgVehicleRepository) FindByLicensePlate(ctx context.Context, licensePlate string) (*domain.Vehicle, error) {
	vehicle := &domain.Vehicle{}
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE license_plate = $1`
	err := r.db.QueryRowContext(ctx, query, licensePlate).
		Scan(&vehicle.ID, &vehicle.LicensePlate, &vehicle.VehicleType, &vehicle.OwnerID, &vehicle.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("VehicleRepository.FindByLicensePlate: %w", err)
	}
	vehicle.CreatedAt = vehicle.CreatedAt.In(time.UTC)
	return vehicle, nil
}

func (r *pgVehicleRepository) FindByOwnerID(ctx context.Context, ownerID int) ([]domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE owner_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("VehicleRepository.FindByOwnerID: %w", err)
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		var vehicle domain.Vehicle
		if err := rows.Scan(&vehicle.ID, &vehicle.LicensePlate, &vehicle.VehicleType,
			&vehicle.OwnerID, &vehicle.CreatedAt); err != nil {
			return nil, fmt.Errorf("VehicleRepository.FindByOwnerID (scanning row): %w", err)
		}
		vehicle.CreatedAt = vehicle.CreatedAt.In(time.UTC)
		vehicles = append(vehicles, vehicle)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("VehicleRepository.FindByOwnerID (rows error): %w", err)
	}
	return vehicles, nil
}

// Delete xoá xe và gỡ tham chiếu khỏi chỗ đỗ đang giữ nó trong cùng một
// transaction: chỗ đỗ không bị xoá theo, chỉ về trạng thái trống.
func (r *pgVehicleRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("VehicleRepository.Delete (begin tx): %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE parking_spaces SET status = 'vacant', vehicle_id = NULL, updated_at = CURRENT_TIMESTAMP
		  WHERE vehicle_id = $1`, id)
	if err != nil {
		return fmt.Errorf("VehicleRepository.Delete (clearing space references): %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("VehicleRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("VehicleRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("VehicleRepository.Delete (commit): %w", err)
	}
	return nil
}
