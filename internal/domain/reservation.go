package domain

import "time"

const ReservationStateReserved = "reserved"

// ReservationEvent là message at-least-once ghi vào event log, partition theo
// parking_space_id để các sự kiện của cùng một chỗ đỗ giữ đúng thứ tự.
// Bản bền duy nhất nằm trong event log, không lưu quan hệ.
type ReservationEvent struct {
	// parking_space_id đi trên wire dạng chuỗi, khớp với partition key
	ParkingSpaceID int       `json:"parking_space_id,string"`
	VehicleID      int       `json:"vehicle_id"`
	UpdatedAt      time.Time `json:"updated_at"`
	State          string    `json:"state"`
}

type ReserveOrderDTO struct {
	ParkingSpaceID int `json:"parking_space_id" binding:"required"`
	VehicleID      int `json:"vehicle_id" binding:"required"`
}
