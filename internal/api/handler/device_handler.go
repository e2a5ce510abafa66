package handler

import (
	"errors"
	"net/http"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/domain"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/repository"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/service"

	"github.com/gin-gonic/gin"
)

// DeviceHandler là mặt quản trị của thiết bị biên: tạo, liệt kê, vô hiệu.
// Response khi tạo là lần duy nhất API key xuất hiện trên wire.
type DeviceHandler struct {
	deviceService *service.DeviceService
}

func NewDeviceHandler(deviceService *service.DeviceService) *DeviceHandler {
	return &DeviceHandler{deviceService: deviceService}
}

func (h *DeviceHandler) CreateCamera(c *gin.Context) {
	var dto domain.CameraCreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.deviceService.CreateCamera(c.Request.Context(), dto)
	if err != nil {
		writeDeviceError(c, err, "Lỗi hệ thống khi tạo camera")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *DeviceHandler) CreateSensor(c *gin.Context) {
	var dto domain.SensorCreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.deviceService.CreateSensor(c.Request.Context(), dto)
	if err != nil {
		writeDeviceError(c, err, "Lỗi hệ thống khi tạo sensor")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *DeviceHandler) ListCameras(c *gin.Context) {
	includeDeleted := c.Query("include_deleted") == "true"
	cameras, err := h.deviceService.ListCameras(c.Request.Context(), includeDeleted)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi liệt kê camera"})
		return
	}
	c.JSON(http.StatusOK, cameras)
}

func (h *DeviceHandler) ListSensors(c *gin.Context) {
	includeDeleted := c.Query("include_deleted") == "true"
	sensors, err := h.deviceService.ListSensors(c.Request.Context(), includeDeleted)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi liệt kê sensor"})
		return
	}
	c.JSON(http.StatusOK, sensors)
}

func (h *DeviceHandler) DeactivateCamera(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.deviceService.DeactivateCamera(c.Request.Context(), id); err != nil {
		writeDeviceError(c, err, "Lỗi hệ thống khi vô hiệu camera")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DeviceHandler) DeactivateSensor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.deviceService.DeactivateSensor(c.Request.Context(), id); err != nil {
		writeDeviceError(c, err, "Lỗi hệ thống khi vô hiệu sensor")
		return
	}
	c.Status(http.StatusNoContent)
}

func writeDeviceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrDuplicateEntry):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
