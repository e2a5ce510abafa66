package service

import (
	"context"
	"errors"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/domain"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/repository"
)

var ErrNotVehicleOwner = errors.New("xe không thuộc về người dùng này")

type VehicleService struct {
	vehicleRepo repository.VehicleRepository
}

func NewVehicleService(vehicleRepo repository.VehicleRepository) *VehicleService {
	return &VehicleService{vehicleRepo: vehicleRepo}
}

func (s *VehicleService) Register(ctx context.Context, ownerID int, dto domain.VehicleDTO) (*domain.Vehicle, error) {
	vehicleType := domain.VehicleType(dto.VehicleType)
	if !vehicleType.Valid() {
		return nil, ErrInvalidVehicleType
	}
	return s.vehicleRepo.Create(ctx, &domain.Vehicle{
		LicensePlate: dto.LicensePlate,
		VehicleType:  vehicleType,
		OwnerID:      ownerID,
	})
}

func (s *VehicleService) ListByOwner(ctx context.Context, ownerID int) ([]domain.Vehicle, error) {
	return s.vehicleRepo.FindByOwnerID(ctx, ownerID)
}

// Unregister xoá xe của chính người dùng; superuser xoá được xe bất kỳ.
func (s *VehicleService) Unregister(ctx context.Context, vehicleID int, requester *domain.User) error {
	vehicle, err := s.vehicleRepo.FindByID(ctx, vehicleID)
	if err != nil {
		return err
	}
	if vehicle.OwnerID != requester.ID && !requester.IsSuperuser {
		return ErrNotVehicleOwner
	}
	return s.vehicleRepo.Delete(ctx, vehicleID)
}
