package repository

import (
	"context"
	"errors"
	"time"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/domain"
)

var ErrNotFound = errors.New("không tìm thấy bản ghi")
var ErrDuplicateEntry = errors.New("bản ghi đã tồn tại")
var ErrConflict = errors.New("bản ghi đã bị thay đổi bởi thao tác khác")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
	FindByRefreshToken(ctx context.Context, refreshToken string) (*domain.User, error)
	// UpdateRefreshToken ghi đè refresh token đang lưu; truyền chuỗi rỗng để xoá.
	UpdateRefreshToken(ctx context.Context, userID int, refreshToken string) error
	UpdatePassword(ctx context.Context, userID int, passwordHash string) error
}

type ParkingLotRepository interface {
	Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingLot, error)
	FindActiveByID(ctx context.Context, id int) (*domain.ParkingLot, error)
	FindAll(ctx context.Context, includeDeleted bool) ([]domain.ParkingLot, error)
	Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	// SoftDelete đánh dấu is_active=false và vô hiệu toàn bộ chỗ đỗ thuộc bãi.
	SoftDelete(ctx context.Context, id int) error
}

type ParkingSpaceRepository interface {
	Create(ctx context.Context, space *domain.ParkingSpace) (*domain.ParkingSpace, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingSpace, error)
	FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpace, error)
	// FindVacantIDs trả về danh sách ứng viên còn trống theo thứ tự id.
	FindVacantIDs(ctx context.Context, lotID int, vehicleType domain.VehicleType, limit int) ([]int, error)
	// HoldIfVacant là conditional update nguyên tử: chỉ chuyển sang 'reserved'
	// nếu chỗ còn 'vacant' và chưa có xe. Caller thua cuộc đua nhận ErrConflict.
	HoldIfVacant(ctx context.Context, spaceID int, heldAt time.Time) (*domain.ParkingSpace, error)
	// OccupyIfFree gán xe vào chỗ; ErrConflict nếu chỗ đang có xe khác.
	// Gọi lặp với cùng một xe là idempotent.
	OccupyIfFree(ctx context.Context, spaceID int, vehicleID int) error
	// ClearOccupant xoá tham chiếu xe vô điều kiện và trả chỗ về 'vacant'.
	ClearOccupant(ctx context.Context, spaceID int) error
	// ReleaseExpiredHolds trả các chỗ 'reserved' quá hạn giữ về 'vacant'.
	ReleaseExpiredHolds(ctx context.Context, olderThan time.Time) (int64, error)
	Delete(ctx context.Context, id int) error
	CountByLotAndStatus(ctx context.Context, lotID int, status domain.SpaceStatus) (int, error)
}

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error)
	FindByID(ctx context.Context, id int) (*domain.Vehicle, error)
	FindByLicensePlate(ctx context.Context, licensePlate string) (*domain.Vehicle, error)
	FindByOwnerID(ctx context.Context, ownerID int) ([]domain.Vehicle, error)
	// Delete xoá xe và xoá tham chiếu từ mọi chỗ đỗ đang trỏ tới nó.
	Delete(ctx context.Context, id int) error
}

type CameraRepository interface {
	Create(ctx context.Context, camera *domain.Camera) (*domain.Camera, error)
	FindByID(ctx context.Context, id int) (*domain.Camera, error)
	// FindByAPIKey trả về cả thiết bị đã bị vô hiệu; service quyết định cách phản hồi.
	FindByAPIKey(ctx context.Context, apiKey string) (*domain.Camera, error)
	FindAll(ctx context.Context, includeDeleted bool) ([]domain.Camera, error)
	SoftDelete(ctx context.Context, id int) error
}

type SensorRepository interface {
	Create(ctx context.Context, sensor *domain.Sensor) (*domain.Sensor, error)
	FindByID(ctx context.Context, id int) (*domain.Sensor, error)
	FindByAPIKey(ctx context.Context, apiKey string) (*domain.Sensor, error)
	FindAll(ctx context.Context, includeDeleted bool) ([]domain.Sensor, error)
	SoftDelete(ctx context.Context, id int) error
}

type ActivityLogRepository interface {
	Create(ctx context.Context, entry *domain.ActivityLog) (*domain.ActivityLog, error)
	CreateBatch(ctx context.Context, entries []domain.ActivityLog) error
	Find(ctx context.Context, filter domain.ActivityLogFilter) ([]domain.ActivityLog, error)
}

// RevokedTokenRepository là revocation registry: tra cứu nhanh các token phải
// coi là vô hiệu trước khi hết hạn tự nhiên.
type RevokedTokenRepository interface {
	Insert(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
