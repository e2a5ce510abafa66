package domain

import "time"

type ActivityType string

const (
	ActivityIn  ActivityType = "in"
	ActivityOut ActivityType = "out"
)

// ActivityLog là bản ghi bất biến: chỉ được tạo bởi Activity Reconciler
// hoặc Occupancy Acknowledger, không bao giờ sửa.
type ActivityLog struct {
	ID           int          `json:"id"`
	UserID       int          `json:"user_id"`
	ParkingLotID int          `json:"parking_lot_id"`
	ActivityType ActivityType `json:"activity_type"`
	LicensePlate string       `json:"license_plate"`
	Timestamp    time.Time    `json:"timestamp"`
}

// ValidateActivityDTO là một lần camera nhìn thấy biển số, gửi lên để đối soát.
type ValidateActivityDTO struct {
	ParkingLotID int    `json:"parking_lot_id" binding:"required"`
	ActivityType string `json:"activity_type" binding:"required,oneof=in out"`
	LicensePlate string `json:"license_plate" binding:"required"`
	VehicleType  string `json:"vehicle_type" binding:"required"`
	CreatedAt    string `json:"created_at"` // RFC3339; rỗng thì dùng giờ server
}

type ActivityLogFilter struct {
	FromTime     time.Time
	ToTime       time.Time
	SortDesc     bool
	UserID       *int
	ParkingLotID *int
	LicensePlate *string
}
