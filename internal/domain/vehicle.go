package domain

import "time"

type Vehicle struct {
	ID           int         `json:"id"`
	LicensePlate string      `json:"license_plate"`
	VehicleType  VehicleType `json:"vehicle_type"`
	OwnerID      int         `json:"owner_id"`
	CreatedAt    time.Time   `json:"created_at"`
}

type VehicleDTO struct {
	LicensePlate string `json:"license_plate" binding:"required"`
	VehicleType  string `json:"vehicle_type" binding:"required"`
}
