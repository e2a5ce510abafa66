package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/domain"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/repository"
)

var ErrInvalidActivityType = errors.New("loại hoạt động phải là 'in' hoặc 'out'")
var ErrInvalidTimestamp = errors.New("created_at phải theo định dạng RFC3339")

// BatchResult tổng kết một lô đối soát: bản ghi không hợp lệ bị bỏ qua chứ
// không làm hỏng cả lô.
type BatchResult struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

// ActivityService đối soát các lần camera nhìn thấy biển số với sổ hoạt động.
// Biển số chưa đăng ký được tự động gán cho người dùng đang gọi, vì luồng
// đối soát chạy sau sự kiện vật lý: xe đã vào bãi rồi, từ chối ghi nhận chỉ
// làm sổ sách lệch thêm.
type ActivityService struct {
	lotRepo      repository.ParkingLotRepository
	vehicleRepo  repository.VehicleRepository
	activityRepo repository.ActivityLogRepository
}

func NewActivityService(
	lotRepo repository.ParkingLotRepository,
	vehicleRepo repository.VehicleRepository,
	activityRepo repository.ActivityLogRepository,
) *ActivityService {
	return &ActivityService{
		lotRepo:      lotRepo,
		vehicleRepo:  vehicleRepo,
		activityRepo: activityRepo,
	}
}

// Validate đối soát một lần nhìn thấy biển số và ghi vào sổ hoạt động.
func (s *ActivityService) Validate(ctx context.Context, userID int, dto domain.ValidateActivityDTO) (*domain.ActivityLog, error) {
	entry, err := s.buildEntry(ctx, userID, dto)
	if err != nil {
		return nil, err
	}
	created, err := s.activityRepo.Create(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("lỗi ghi activity log: %w", err)
	}
	return created, nil
}

// ValidateBatch đối soát một lô: bản ghi hợp lệ được ghi hết trong một
// transaction, bản ghi không hợp lệ bị đếm vào Skipped.
func (s *ActivityService) ValidateBatch(ctx context.Context, userID int, dtos []domain.ValidateActivityDTO) (*BatchResult, error) {
	var entries []domain.ActivityLog
	result := &BatchResult{}
	for _, dto := range dtos {
		entry, err := s.buildEntry(ctx, userID, dto)
		if err != nil {
			log.Printf("Bỏ qua bản ghi đối soát không hợp lệ (biển số %s): %v", dto.LicensePlate, err)
			result.Skipped++
			continue
		}
		entries = append(entries, *entry)
	}
	if err := s.activityRepo.CreateBatch(ctx, entries); err != nil {
		return nil, fmt.Errorf("lỗi ghi lô activity log: %w", err)
	}
	result.Applied = len(entries)
	return result, nil
}

func (s *ActivityService) buildEntry(ctx context.Context, userID int, dto domain.ValidateActivityDTO) (*domain.ActivityLog, error) {
	activityType := domain.ActivityType(dto.ActivityType)
	if activityType != domain.ActivityIn && activityType != domain.ActivityOut {
		return nil, ErrInvalidActivityType
	}

	if _, err := s.lotRepo.FindActiveByID(ctx, dto.ParkingLotID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: bãi đỗ %d không tồn tại", repository.ErrNotFound, dto.ParkingLotID)
		}
		return nil, fmt.Errorf("lỗi khi tìm bãi đỗ: %w", err)
	}

	timestamp := time.Now().UTC()
	if dto.CreatedAt != "" {
		parsed, err := time.Parse(time.RFC3339, dto.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
		}
		timestamp = parsed.UTC()
	}

	ownerID, err := s.ensureVehicle(ctx, userID, dto)
	if err != nil {
		return nil, err
	}

	return &domain.ActivityLog{
		UserID:       ownerID,
		ParkingLotID: dto.ParkingLotID,
		ActivityType: activityType,
		LicensePlate: dto.LicensePlate,
		Timestamp:    timestamp,
	}, nil
}

// ensureVehicle trả về chủ xe của biển số: bản ghi hoạt động được gán cho
// chủ xe, không phải người gọi đối soát. Biển số chưa có trong hệ thống được
// đăng ký cho người gọi, khi đó người gọi chính là chủ xe. Hai lần đối soát
// chạy song song có thể cùng thấy biển số mới; bên thua cuộc đua nhận
// ErrDuplicateEntry và tra lại chủ xe vừa được ghi.
func (s *ActivityService) ensureVehicle(ctx context.Context, userID int, dto domain.ValidateActivityDTO) (int, error) {
	vehicle, err := s.vehicleRepo.FindByLicensePlate(ctx, dto.LicensePlate)
	if err == nil {
		return vehicle.OwnerID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return 0, fmt.Errorf("lỗi khi tìm xe: %w", err)
	}

	vehicleType := domain.VehicleType(dto.VehicleType)
	if !vehicleType.Valid() {
		return 0, ErrInvalidVehicleType
	}
	_, err = s.vehicleRepo.Create(ctx, &domain.Vehicle{
		LicensePlate: dto.LicensePlate,
		VehicleType:  vehicleType,
		OwnerID:      userID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			existing, findErr := s.vehicleRepo.FindByLicensePlate(ctx, dto.LicensePlate)
			if findErr != nil {
				return 0, fmt.Errorf("lỗi khi tìm xe sau cuộc đua đăng ký: %w", findErr)
			}
			return existing.OwnerID, nil
		}
		return 0, fmt.Errorf("lỗi đăng ký xe tự động: %w", err)
	}
	return userID, nil
}

// Find liệt kê sổ hoạt động theo bộ lọc, dùng cho trang quản trị.
func (s *ActivityService) Find(ctx context.Context, filter domain.ActivityLogFilter) ([]domain.ActivityLog, error) {
	return s.activityRepo.Find(ctx, filter)
}
