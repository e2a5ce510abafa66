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

// Camera và Sensor dùng chung cấu trúc truy vấn nhưng là hai bảng riêng:
// camera gắn bãi đỗ, sensor gắn chỗ đỗ, và API key của mỗi bảng là unique.

type pgCameraRepository struct {
	db *sql.DB
}

func NewPgCameraRepository(db *sql.DB) repository.CameraRepository {
	return &pgCameraRepository{db: db}
}

const cameraColumns = `id, name, parking_lot_id, api_key, is_active, created_at, updated_at, deleted_at`

func scanCamera(scanner interface {
	Scan(dest ...interface{}) error
}, camera *domain.Camera) error {
	err := scanner.Scan(&camera.ID, &camera.Name, &camera.ParkingLotID, &camera.APIKey,
		&camera.IsActive, &camera.CreatedAt, &camera.UpdatedAt, &camera.DeletedAt)
	if err != nil {
		return err
	}
	camera.CreatedAt = camera.CreatedAt.In(time.UTC)
	camera.UpdatedAt = camera.UpdatedAt.In(time.UTC)
	return nil
}

func (r *pgCameraRepository) Create(ctx context.Context, camera *domain.Camera) (*domain.Camera, error) {
	query := `INSERT INTO cameras (name, parking_lot_id, api_key, is_active, created_at, updated_at)
	           VALUES ($1, $2, $3, TRUE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, is_active, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, camera.Name, camera.ParkingLotID, camera.APIKey).
		Scan(&camera.ID, &camera.IsActive, &camera.CreatedAt, &camera.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return nil, fmt.Errorf("%w: camera '%s' đã tồn tại", repository.ErrDuplicateEntry, camera.Name)
			case "foreign_key_violation":
				return nil, fmt.Errorf("%w: bãi đỗ %d không tồn tại", repository.ErrNotFound, camera.ParkingLotID)
			}
		}
		return nil, fmt.Errorf("CameraRepository.Create: %w", err)
	}
	camera.CreatedAt = camera.CreatedAt.In(time.UTC)
	camera.UpdatedAt = camera.UpdatedAt.In(time.UTC)
	return camera, nil
}

func (r *pgCameraRepository) FindByID(ctx context.Context, id int) (*domain.Camera, error) {
	camera := &domain.Camera{}
	query := `SELECT ` + cameraColumns + ` FROM cameras WHERE id = $1`
	err := scanCamera(r.db.QueryRowContext(ctx, query, id), camera)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("CameraRepository.FindByID: %w", err)
	}
	return camera, nil
}

func (r *pgCameraRepository) FindByAPIKey(ctx context.Context, apiKey string) (*domain.Camera, error) {
	camera := &domain.Camera{}
	query := `SELECT ` + cameraColumns + ` FROM cameras WHERE api_key = $1`
	err := scanCamera(r.db.QueryRowContext(ctx, query, apiKey), camera)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("CameraRepository.FindByAPIKey: %w", err)
	}
	return camera, nil
}

func (r *pgCameraRepository) FindAll(ctx context.Context, includeDeleted bool) ([]domain.Camera, error) {
	query := `SELECT ` + cameraColumns + ` FROM cameras`
	if !includeDeleted {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("CameraRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var cameras []domain.Camera
	for rows.Next() {
		var camera domain.Camera
		if err := scanCamera(rows, &camera); err != nil {
			return nil, fmt.Errorf("CameraRepository.FindAll (scanning row): %w", err)
		}
		cameras = append(cameras, camera)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("CameraRepository.FindAll (rows error): %w", err)
	}
	return cameras, nil
}

func (r *pgCameraRepository) SoftDelete(ctx context.Context, id int) error {
	query := `UPDATE cameras SET is_active = FALSE, deleted_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $1 AND is_active = TRUE`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("CameraRepository.SoftDelete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("CameraRepository.SoftDelete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type pgSensorRepository struct {
	db *sql.DB
}

func NewPgSensorRepository(db *sql.DB) repository.SensorRepository {
	return &pgSensorRepository{db: db}
}

const sensorColumns = `id, name, parking_space_id, api_key, is_active, created_at, updated_at, deleted_at`

func scanSensor(scanner interface {
	Scan(dest ...interface{}) error
}, sensor *domain.Sensor) error {
	err := scanner.Scan(&sensor.ID, &sensor.Name, &sensor.ParkingSpaceID, &sensor.APIKey,
		&sensor.IsActive, &sensor.CreatedAt, &sensor.UpdatedAt, &sensor.DeletedAt)
	if err != nil {
		return err
	}
	sensor.CreatedAt = sensor.CreatedAt.In(time.UTC)
	sensor.UpdatedAt = sensor.UpdatedAt.In(time.UTC)
	return nil
}

func (r *pgSensorRepository) Create(ctx context.Context, sensor *domain.Sensor) (*domain.Sensor, error) {
	query := `INSERT INTO sensors (name, parking_space_id, api_key, is_active, created_at, updated_at)
	           VALUES ($1, $2, $3, TRUE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, is_active, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, sensor.Name, sensor.ParkingSpaceID, sensor.APIKey).
		Scan(&sensor.ID, &sensor.IsActive, &sensor.CreatedAt, &sensor.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return nil, fmt.Errorf("%w: sensor '%s' đã tồn tại", repository.ErrDuplicateEntry, sensor.Name)
			case "foreign_key_violation":
				return nil, fmt.Errorf("%w: chỗ đỗ %d không tồn tại", repository.ErrNotFound, sensor.ParkingSpaceID)
			}
		}
		return nil, fmt.Errorf("SensorRepository.Create: %w", err)
	}
	sensor.CreatedAt = sensor.CreatedAt.In(time.UTC)
	sensor.UpdatedAt = sensor.UpdatedAt.In(time.UTC)
	return sensor, nil
}

func (r *pgSensorRepository) FindByID(ctx context.Context, id int) (*domain.Sensor, error) {
	sensor := &domain.Sensor{}
	query := `SELECT ` + sensorColumns + ` FROM sensors WHERE id = $1`
	err := scanSensor(r.db.QueryRowContext(ctx, query, id), sensor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("SensorRepository.FindByID: %w", err)
	}
	return sensor, nil
}

func (r *pgSensorRepository) FindByAPIKey(ctx context.Context, apiKey string) (*domain.Sensor, error) {
	sensor := &domain.Sensor{}
	query := `SELECT ` + sensorColumns + ` FROM sensors WHERE api_key = $1`
	err := scanSensor(r.db.QueryRowContext(ctx, query, apiKey), sensor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("SensorRepository.FindByAPIKey: %w", err)
	}
	return sensor, nil
}

func (r *pgSensorRepository) FindAll(ctx context.Context, includeDeleted bool) ([]domain.Sensor, error) {
	query := `SELECT ` + sensorColumns + ` FROM sensors`
	if !includeDeleted {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("SensorRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var sensors []domain.Sensor
	for rows.Next() {
		var sensor domain.Sensor
		if err := scanSensor(rows, &sensor); err != nil {
			return nil, fmt.Errorf("SensorRepository.FindAll (scanning row): %w", err)
		}
		sensors = append(sensors, sensor)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("SensorRepository.FindAll (rows error): %w", err)
	}
	return sensors, nil
}

func (r *pgSensorRepository) SoftDelete(ctx context.Context, id int) error {
	query := `UPDATE sensors SET is_active = FALSE, deleted_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $1 AND is_active = TRUE`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("SensorRepository.SoftDelete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("SensorRepository.SoftDelete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
