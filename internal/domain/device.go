package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// DeviceRole phân biệt hai loại thiết bị biên: camera gắn với bãi đỗ,
// sensor gắn với một chỗ đỗ cụ thể. Hai loại có phạm vi tin cậy khác nhau
// và không bao giờ được gộp chung thành một principal.
type DeviceRole string

const (
	RoleCamera DeviceRole = "camera"
	RoleSensor DeviceRole = "sensor"
)

type Camera struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	ParkingLotID int       `json:"parking_lot_id"`
	APIKey       string    `json:"-"` // Shared secret, chỉ trả về một lần khi tạo
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	DeletedAt    null.Time `json:"deleted_at,omitempty"`
}

type Sensor struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	ParkingSpaceID int       `json:"parking_space_id"`
	APIKey         string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	DeletedAt      null.Time `json:"deleted_at,omitempty"`
}

type CameraCreateDTO struct {
	Name         string `json:"name" binding:"required"`
	ParkingLotID int    `json:"parking_lot_id" binding:"required"`
}

type SensorCreateDTO struct {
	Name           string `json:"name" binding:"required"`
	ParkingSpaceID int    `json:"parking_space_id" binding:"required"`
}

// DeviceCreatedDTO kèm API key vừa sinh; key không được trả về ở bất kỳ
// endpoint nào khác.
type DeviceCreatedDTO struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
}
