package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/domain"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/repository"
)

// ErrDeviceUnauthenticated và ErrDeviceDeactivated được giữ riêng để log phía
// server; handler trả về cùng một phản hồi 401 cho cả hai, tránh để lộ key nào
// từng tồn tại trong hệ thống.
var ErrDeviceUnauthenticated = errors.New("API key không hợp lệ")
var ErrDeviceDeactivated = errors.New("thiết bị đã bị vô hiệu hoá")

// DeviceAuthService xác thực thiết bị biên qua API key. Camera và sensor là
// hai principal tách biệt: key của camera không bao giờ mở được endpoint
// dành cho sensor và ngược lại.
type DeviceAuthService struct {
	cameraRepo repository.CameraRepository
	sensorRepo repository.SensorRepository
}

func NewDeviceAuthService(cameraRepo repository.CameraRepository, sensorRepo repository.SensorRepository) *DeviceAuthService {
	return &DeviceAuthService{cameraRepo: cameraRepo, sensorRepo: sensorRepo}
}

func (s *DeviceAuthService) AuthenticateCamera(ctx context.Context, apiKey string) (*domain.Camera, error) {
	if apiKey == "" {
		return nil, ErrDeviceUnauthenticated
	}
	camera, err := s.cameraRepo.FindByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDeviceUnauthenticated
		}
		return nil, fmt.Errorf("lỗi tra cứu camera: %w", err)
	}
	if !camera.IsActive {
		return nil, ErrDeviceDeactivated
	}
	return camera, nil
}

func (s *DeviceAuthService) AuthenticateSensor(ctx context.Context, apiKey string) (*domain.Sensor, error) {
	if apiKey == "" {
		return nil, ErrDeviceUnauthenticated
	}
	sensor, err := s.sensorRepo.FindByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDeviceUnauthenticated
		}
		return nil, fmt.Errorf("lỗi tra cứu sensor: %w", err)
	}
	if !sensor.IsActive {
		return nil, ErrDeviceDeactivated
	}
	return sensor, nil
}
