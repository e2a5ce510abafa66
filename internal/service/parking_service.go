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

var ErrNoSpaceAvailable = errors.New("không còn chỗ trống phù hợp")
var ErrLicensePlateRequired = errors.New("xe vào phải kèm biển số")
var ErrLicensePlateNotAllowed = errors.New("xe ra không được kèm biển số")
var ErrInvalidDirection = errors.New("hướng xác nhận phải là 'in' hoặc 'out'")
var ErrInvalidVehicleType = errors.New("loại xe không hợp lệ")

// Số ứng viên tối đa thử giữ trong một lần cấp phát. Thua cả ba ứng viên
// liên tiếp gần như chắc chắn nghĩa là bãi đang cạn chỗ thật.
const allocationAttempts = 3

// OccupancyNotifier nhận thông báo mỗi khi số chỗ trống của một bãi thay đổi.
// Mọi implementation đều best-effort: lỗi chỉ được log, không chặn nghiệp vụ.
type OccupancyNotifier interface {
	NotifyOccupancyChanged(ctx context.Context, lotID int)
}

type ParkingService struct {
	lotRepo      repository.ParkingLotRepository
	spaceRepo    repository.ParkingSpaceRepository
	vehicleRepo  repository.VehicleRepository
	activityRepo repository.ActivityLogRepository
	notifiers    []OccupancyNotifier
}

func NewParkingService(
	lotRepo repository.ParkingLotRepository,
	spaceRepo repository.ParkingSpaceRepository,
	vehicleRepo repository.VehicleRepository,
	activityRepo repository.ActivityLogRepository,
	notifiers ...OccupancyNotifier,
) *ParkingService {
	return &ParkingService{
		lotRepo:      lotRepo,
		spaceRepo:    spaceRepo,
		vehicleRepo:  vehicleRepo,
		activityRepo: activityRepo,
		notifiers:    notifiers,
	}
}

// AddNotifier đăng ký thêm một kênh thông báo sau khi service đã được tạo;
// gọi lúc khởi động, trước khi server nhận request.
func (s *ParkingService) AddNotifier(notifier OccupancyNotifier) {
	s.notifiers = append(s.notifiers, notifier)
}

// FindFreeSpace cấp phát một chỗ trống cho camera ở cổng vào. Chỗ được giữ
// tạm bằng conditional update: hai camera cùng hỏi một lúc không bao giờ nhận
// cùng một chỗ, bên thua tự chuyển sang ứng viên kế tiếp. Chỗ giữ quá hạn mà
// sensor không xác nhận sẽ được job nền trả lại.
func (s *ParkingService) FindFreeSpace(ctx context.Context, lotID int, vehicleType domain.VehicleType) (*domain.FreeSpaceDTO, error) {
	if !vehicleType.Valid() {
		return nil, ErrInvalidVehicleType
	}
	lot, err := s.lotRepo.FindActiveByID(ctx, lotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("lỗi khi tìm bãi đỗ: %w", err)
	}

	candidateIDs, err := s.spaceRepo.FindVacantIDs(ctx, lot.ID, vehicleType, allocationAttempts)
	if err != nil {
		return nil, fmt.Errorf("lỗi khi tìm chỗ trống: %w", err)
	}
	if len(candidateIDs) == 0 {
		return nil, ErrNoSpaceAvailable
	}

	now := time.Now().UTC()
	for _, spaceID := range candidateIDs {
		space, err := s.spaceRepo.HoldIfVacant(ctx, spaceID, now)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				// Chỗ vừa bị camera khác giành mất, thử ứng viên kế tiếp
				continue
			}
			return nil, fmt.Errorf("lỗi khi giữ chỗ %d: %w", spaceID, err)
		}
		s.notifyOccupancyChanged(ctx, lot.ID)
		return &domain.FreeSpaceDTO{
			ID:           space.ID,
			ParkingLotID: space.ParkingLotID,
			VehicleType:  space.VehicleType,
			Latitude:     lot.Latitude,
			Longitude:    lot.Longitude,
		}, nil
	}
	return nil, ErrNoSpaceAvailable
}

// AcknowledgeSpace ghi nhận xác nhận từ sensor gắn tại chỗ đỗ.
//
// Hướng 'in' bắt buộc kèm biển số: biển số chưa đăng ký thì chỗ giữ nguyên
// trạng thái hiện tại và trả ErrNotFound. Cùng một xe xác nhận lại là
// idempotent; xe khác đang chiếm chỗ thì trả ErrConflict.
//
// Hướng 'out' cấm kèm biển số và luôn trả chỗ về trống vô điều kiện, kể cả
// khi chỗ đang không có xe: sensor là nguồn sự thật về hiện trạng vật lý.
func (s *ParkingService) AcknowledgeSpace(ctx context.Context, spaceID int, direction domain.AckDirection, licensePlate string) error {
	space, err := s.spaceRepo.FindByID(ctx, spaceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("lỗi khi tìm chỗ đỗ: %w", err)
	}

	switch direction {
	case domain.DirectionIn:
		if licensePlate == "" {
			return ErrLicensePlateRequired
		}
		vehicle, err := s.vehicleRepo.FindByLicensePlate(ctx, licensePlate)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: biển số '%s' chưa đăng ký", repository.ErrNotFound, licensePlate)
			}
			return fmt.Errorf("lỗi khi tìm xe: %w", err)
		}
		if err := s.spaceRepo.OccupyIfFree(ctx, space.ID, vehicle.ID); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return repository.ErrConflict
			}
			return fmt.Errorf("lỗi khi ghi nhận xe vào chỗ %d: %w", space.ID, err)
		}
		s.recordActivity(ctx, vehicle.OwnerID, space.ParkingLotID, domain.ActivityIn, licensePlate)

	case domain.DirectionOut:
		if licensePlate != "" {
			return ErrLicensePlateNotAllowed
		}
		var leavingPlate string
		var ownerID int
		if space.VehicleID.Valid {
			if vehicle, err := s.vehicleRepo.FindByID(ctx, int(space.VehicleID.Int64)); err == nil {
				leavingPlate = vehicle.LicensePlate
				ownerID = vehicle.OwnerID
			}
		}
		if err := s.spaceRepo.ClearOccupant(ctx, space.ID); err != nil {
			return fmt.Errorf("lỗi khi trả chỗ %d về trống: %w", space.ID, err)
		}
		if leavingPlate != "" {
			s.recordActivity(ctx, ownerID, space.ParkingLotID, domain.ActivityOut, leavingPlate)
		}

	default:
		return ErrInvalidDirection
	}

	s.notifyOccupancyChanged(ctx, space.ParkingLotID)
	return nil
}

// recordActivity ghi log hoạt động best-effort: trạng thái chỗ đỗ đã đổi xong
// nên lỗi ghi log không được phép làm hỏng xác nhận.
func (s *ParkingService) recordActivity(ctx context.Context, userID int, lotID int, activityType domain.ActivityType, licensePlate string) {
	_, err := s.activityRepo.Create(ctx, &domain.ActivityLog{
		UserID:       userID,
		ParkingLotID: lotID,
		ActivityType: activityType,
		LicensePlate: licensePlate,
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		log.Printf("Lỗi ghi activity log cho biển số %s: %v", licensePlate, err)
	}
}

func (s *ParkingService) notifyOccupancyChanged(ctx context.Context, lotID int) {
	for _, notifier := range s.notifiers {
		notifier.NotifyOccupancyChanged(ctx, lotID)
	}
}

// CountFreeSpaces đếm số chỗ đang 'vacant' trong bãi, dùng cho bảng hiệu
// và feed realtime.
func (s *ParkingService) CountFreeSpaces(ctx context.Context, lotID int) (int, error) {
	return s.spaceRepo.CountByLotAndStatus(ctx, lotID, domain.SpaceVacant)
}

// ReleaseExpiredHolds trả các chỗ giữ quá hạn về trống. Chạy định kỳ từ job nền.
func (s *ParkingService) ReleaseExpiredHolds(ctx context.Context, holdTTL time.Duration) (int64, error) {
	return s.spaceRepo.ReleaseExpiredHolds(ctx, time.Now().UTC().Add(-holdTTL))
}

// --- CRUD quản trị cho bãi đỗ và chỗ đỗ ---

func (s *ParkingService) CreateLot(ctx context.Context, dto domain.ParkingLotDTO) (*domain.ParkingLot, error) {
	lot := &domain.ParkingLot{
		Name:      dto.Name,
		Latitude:  *dto.Latitude,
		Longitude: *dto.Longitude,
	}
	return s.lotRepo.Create(ctx, lot)
}

func (s *ParkingService) GetLot(ctx context.Context, id int) (*domain.ParkingLot, error) {
	return s.lotRepo.FindByID(ctx, id)
}

func (s *ParkingService) ListLots(ctx context.Context, includeDeleted bool) ([]domain.ParkingLot, error) {
	return s.lotRepo.FindAll(ctx, includeDeleted)
}

func (s *ParkingService) UpdateLot(ctx context.Context, id int, dto domain.ParkingLotUpdateDTO) (*domain.ParkingLot, error) {
	lot, err := s.lotRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dto.Name != "" {
		lot.Name = dto.Name
	}
	if dto.Latitude != nil {
		lot.Latitude = *dto.Latitude
	}
	if dto.Longitude != nil {
		lot.Longitude = *dto.Longitude
	}
	return s.lotRepo.Update(ctx, lot)
}

func (s *ParkingService) DeleteLot(ctx context.Context, id int) error {
	return s.lotRepo.SoftDelete(ctx, id)
}

func (s *ParkingService) CreateSpace(ctx context.Context, lotID int, dto domain.ParkingSpaceDTO) (*domain.ParkingSpace, error) {
	vehicleType := domain.VehicleType(dto.VehicleType)
	if !vehicleType.Valid() {
		return nil, ErrInvalidVehicleType
	}
	if _, err := s.lotRepo.FindActiveByID(ctx, lotID); err != nil {
		return nil, err
	}
	space := &domain.ParkingSpace{
		ParkingLotID: lotID,
		VehicleType:  vehicleType,
		Status:       domain.SpaceVacant,
	}
	return s.spaceRepo.Create(ctx, space)
}

func (s *ParkingService) GetSpace(ctx context.Context, id int) (*domain.ParkingSpace, error) {
	return s.spaceRepo.FindByID(ctx, id)
}

func (s *ParkingService) ListSpacesByLot(ctx context.Context, lotID int) ([]domain.ParkingSpace, error) {
	return s.spaceRepo.FindByLotID(ctx, lotID)
}

func (s *ParkingService) DeleteSpace(ctx context.Context, id int) error {
	return s.spaceRepo.Delete(ctx, id)
}
