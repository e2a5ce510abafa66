package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type SpaceStatus string

const (
	SpaceVacant   SpaceStatus = "vacant"
	SpaceReserved SpaceStatus = "reserved" // đã cấp phát cho camera nhưng sensor chưa xác nhận xe vào
	SpaceOccupied SpaceStatus = "occupied"
)

type VehicleType string

const (
	VehicleCar       VehicleType = "car"
	VehicleMotorbike VehicleType = "motorbike"
	VehicleBicycle   VehicleType = "bicycle"
)

func (t VehicleType) Valid() bool {
	switch t {
	case VehicleCar, VehicleMotorbike, VehicleBicycle:
		return true
	}
	return false
}

type ParkingSpace struct {
	ID           int         `json:"id"`
	ParkingLotID int         `json:"parking_lot_id"`
	VehicleType  VehicleType `json:"vehicle_type"`
	Status       SpaceStatus `json:"status"`
	VehicleID    null.Int    `json:"vehicle_id"` // Xe đang chiếm chỗ; tham chiếu yếu, xoá xe thì về NULL
	HeldAt       null.Time   `json:"held_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type ParkingSpaceDTO struct {
	VehicleType string `json:"vehicle_type" binding:"required"`
}

// FreeSpaceDTO là snapshot trả về cho camera sau khi cấp phát thành công.
type FreeSpaceDTO struct {
	ID           int         `json:"id"`
	ParkingLotID int         `json:"parking_lot_id"`
	VehicleType  VehicleType `json:"vehicle_type"`
	Latitude     float64     `json:"latitude"`
	Longitude    float64     `json:"longitude"`
}

type AckDirection string

const (
	DirectionIn  AckDirection = "in"
	DirectionOut AckDirection = "out"
)
