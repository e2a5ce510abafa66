package handler

import (
	"errors"
	"net/http"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/domain"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/repository"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/service"

	"github.com/gin-gonic/gin"
)

type ParkingSpaceHandler struct {
	parkingService *service.ParkingService
}

func NewParkingSpaceHandler(parkingService *service.ParkingService) *ParkingSpaceHandler {
	return &ParkingSpaceHandler{parkingService: parkingService}
}

// Create thêm một chỗ đỗ vào bãi; bãi phải đang hoạt động.
func (h *ParkingSpaceHandler) Create(c *gin.Context) {
	lotID, ok := pathID(c)
	if !ok {
		return
	}
	var dto domain.ParkingSpaceDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	space, err := h.parkingService.CreateSpace(c.Request.Context(), lotID, dto)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidVehicleType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi tạo chỗ đỗ"})
		}
		return
	}
	c.JSON(http.StatusCreated, space)
}

func (h *ParkingSpaceHandler) ListByLot(c *gin.Context) {
	lotID, ok := pathID(c)
	if !ok {
		return
	}
	spaces, err := h.parkingService.ListSpacesByLot(c.Request.Context(), lotID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi liệt kê chỗ đỗ"})
		return
	}
	c.JSON(http.StatusOK, spaces)
}

func (h *ParkingSpaceHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	space, err := h.parkingService.GetSpace(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi tìm chỗ đỗ"})
		return
	}
	c.JSON(http.StatusOK, space)
}

func (h *ParkingSpaceHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.parkingService.DeleteSpace(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi xoá chỗ đỗ"})
		return
	}
	c.Status(http.StatusNoContent)
}
