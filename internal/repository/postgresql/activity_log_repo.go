package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/domain"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/repository"
)

type pgActivityLogRepository struct {
	db *sql.DB
}

func NewPgActivityLogRepository(db *sql.DB) repository.ActivityLogRepository {
	return &pgActivityLogRepository{db: db}
}

func (r *pgActivityLogRepository) Create(ctx context.Context, entry *domain.ActivityLog) (*domain.ActivityLog, error) {
	query := `INSERT INTO activity_logs (user_id, parking_lot_id, activity_type, license_plate, timestamp)
	           VALUES ($1, $2, $3, $4, $5)
	           RETURNING id`
	err := r.db.QueryRowContext(ctx, query, entry.UserID, entry.ParkingLotID,
		entry.ActivityType, entry.LicensePlate, entry.Timestamp).Scan(&entry.ID)
	if err != nil {
		return nil, fmt.Errorf("ActivityLogRepository.Create: %w", err)
	}
	return entry, nil
}

// CreateBatch chèn tất cả bản ghi trong một transaction: hoặc cả lô vào, hoặc
// không bản nào. Việc lọc bản ghi không hợp lệ là trách nhiệm của service.
func (r *pgActivityLogRepository) CreateBatch(ctx context.Context, entries []domain.ActivityLog) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ActivityLogRepository.CreateBatch (begin tx): %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO activity_logs (user_id, parking_lot_id, activity_type, license_plate, timestamp)
		  VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("ActivityLogRepository.CreateBatch (prepare): %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err := stmt.ExecContext(ctx, entry.UserID, entry.ParkingLotID,
			entry.ActivityType, entry.LicensePlate, entry.Timestamp); err != nil {
			return fmt.Errorf("ActivityLogRepository.CreateBatch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ActivityLogRepository.CreateBatch (commit): %w", err)
	}
	return nil
}

func (r *pgActivityLogRepository) Find(ctx context.Context, filter domain.ActivityLogFilter) ([]domain.ActivityLog, error) {
	query := `SELECT id, user_id, parking_lot_id, activity_type, license_plate, timestamp
	           FROM activity_logs
	           WHERE timestamp >= $1 AND timestamp <= $2`
	args := []interface{}{filter.FromTime, filter.ToTime}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.ParkingLotID != nil {
		args = append(args, *filter.ParkingLotID)
		query += fmt.Sprintf(" AND parking_lot_id = $%d", len(args))
	}
	if filter.LicensePlate != nil {
		args = append(args, *filter.LicensePlate)
		query += fmt.Sprintf(" AND license_plate = $%d", len(args))
	}
	if filter.SortDesc {
		query += ` ORDER BY timestamp DESC`
	} else {
		query += ` ORDER BY timestamp ASC`
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ActivityLogRepository.Find: %w", err)
	}
	defer rows.Close()

	var logs []domain.ActivityLog
	for rows.Next() {
		var entry domain.ActivityLog
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.ParkingLotID,
			&entry.ActivityType, &entry.LicensePlate, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("ActivityLogRepository.Find (scanning row): %w", err)
		}
		entry.Timestamp = entry.Timestamp.In(time.UTC)
		logs = append(logs, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ActivityLogRepository.Find (rows error): %w", err)
	}
	return logs, nil
}
