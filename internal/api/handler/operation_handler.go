package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/api/middleware"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/domain"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/repository"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/service"

	"github.com/gin-gonic/gin"
)

// Giới hạn kích thước ảnh camera gửi lên để nhận diện biển số
const maxImageBytes = 5 << 20

// OperationHandler phục vụ hai endpoint vận hành ở biên: camera xin chỗ
// trống ở cổng vào, sensor xác nhận xe vào/ra tại chỗ đỗ.
type OperationHandler struct {
	parkingService *service.ParkingService
	lprService     *service.LPRService
}

func NewOperationHandler(parkingService *service.ParkingService, lprService *service.LPRService) *OperationHandler {
	return &OperationHandler{parkingService: parkingService, lprService: lprService}
}

// FindFreeSpace cấp phát một chỗ trống cho camera đang gọi. Camera chỉ hỏi
// được trong phạm vi bãi đỗ mà nó được gắn vào.
func (h *OperationHandler) FindFreeSpace(c *gin.Context) {
	camera := c.MustGet(middleware.ContextCameraKey).(*domain.Camera)

	vehicleType := domain.VehicleType(c.Query("vehicle_type"))
	space, err := h.parkingService.FindFreeSpace(c.Request.Context(), camera.ParkingLotID, vehicleType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidVehicleType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrNoSpaceAvailable), errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": service.ErrNoSpaceAvailable.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi tìm chỗ trống"})
		}
		return
	}
	c.JSON(http.StatusOK, space)
}

type ackRequest struct {
	Direction    string `json:"direction" binding:"required,oneof=in out"`
	LicensePlate string `json:"license_plate"`
}

// AcknowledgeSpace nhận xác nhận từ sensor. Sensor bị khoá vào đúng chỗ đỗ
// mà nó được gắn; spaceID không nằm trong URL.
func (h *OperationHandler) AcknowledgeSpace(c *gin.Context) {
	sensor := c.MustGet(middleware.ContextSensorKey).(*domain.Sensor)

	var req ackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.parkingService.AcknowledgeSpace(c.Request.Context(), sensor.ParkingSpaceID,
		domain.AckDirection(req.Direction), req.LicensePlate)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLicensePlateRequired),
			errors.Is(err, service.ErrLicensePlateNotAllowed),
			errors.Is(err, service.ErrInvalidDirection):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Chỗ đỗ đang có xe khác"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi xác nhận chỗ đỗ"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// DetectPlate nhận ảnh thô từ camera và trả về biển số nhận diện được.
func (h *OperationHandler) DetectPlate(c *gin.Context) {
	imageBytes, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImageBytes))
	if err != nil || len(imageBytes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Thiếu dữ liệu ảnh"})
		return
	}

	plate, err := h.lprService.DetectLicensePlate(c.Request.Context(), imageBytes)
	if err != nil {
		if errors.Is(err, service.ErrNoPlateDetected) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi nhận diện biển số"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"license_plate": plate})
}

// FreeSpaceCount trả về số chỗ trống hiện tại của một bãi, endpoint công khai
// cho frontend hiển thị.
func (h *OperationHandler) FreeSpaceCount(c *gin.Context) {
	lotID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID bãi đỗ không hợp lệ"})
		return
	}
	count, err := h.parkingService.CountFreeSpaces(c.Request.Context(), lotID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi đếm chỗ trống"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"parking_lot_id": lotID, "free_spaces": count})
}
