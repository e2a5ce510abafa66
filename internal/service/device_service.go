package service

import (
	"context"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/domain"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/repository"

	"github.com/google/uuid"
)

// DeviceService quản lý vòng đời thiết bị biên. API key được sinh lúc tạo và
// chỉ trả về đúng một lần; muốn đổi key thì vô hiệu thiết bị cũ và tạo mới.
type DeviceService struct {
	cameraRepo repository.CameraRepository
	sensorRepo repository.SensorRepository
}

func NewDeviceService(cameraRepo repository.CameraRepository, sensorRepo repository.SensorRepository) *DeviceService {
	return &DeviceService{cameraRepo: cameraRepo, sensorRepo: sensorRepo}
}

func newAPIKey() string {
	return uuid.NewString()
}

func (s *DeviceService) CreateCamera(ctx context.Context, dto domain.CameraCreateDTO) (*domain.DeviceCreatedDTO, error) {
	camera, err := s.cameraRepo.Create(ctx, &domain.Camera{
		Name:         dto.Name,
		ParkingLotID: dto.ParkingLotID,
		APIKey:       newAPIKey(),
	})
	if err != nil {
		return nil, err
	}
	return &domain.DeviceCreatedDTO{ID: camera.ID, Name: camera.Name, APIKey: camera.APIKey}, nil
}

func (s *DeviceService) CreateSensor(ctx context.Context, dto domain.SensorCreateDTO) (*domain.DeviceCreatedDTO, error) {
	sensor, err := s.sensorRepo.Create(ctx, &domain.Sensor{
		Name:           dto.Name,
		ParkingSpaceID: dto.ParkingSpaceID,
		APIKey:         newAPIKey(),
	})
	if err != nil {
		return nil, err
	}
	return &domain.DeviceCreatedDTO{ID: sensor.ID, Name: sensor.Name, APIKey: sensor.APIKey}, nil
}

func (s *DeviceService) ListCameras(ctx context.Context, includeDeleted bool) ([]domain.Camera, error) {
	return s.cameraRepo.FindAll(ctx, includeDeleted)
}

func (s *DeviceService) ListSensors(ctx context.Context, includeDeleted bool) ([]domain.Sensor, error) {
	return s.sensorRepo.FindAll(ctx, includeDeleted)
}

func (s *DeviceService) DeactivateCamera(ctx context.Context, id int) error {
	return s.cameraRepo.SoftDelete(ctx, id)
}

func (s *DeviceService) DeactivateSensor(ctx context.Context, id int) error {
	return s.sensorRepo.SoftDelete(ctx, id)
}
