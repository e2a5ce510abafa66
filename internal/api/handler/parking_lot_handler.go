package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/domain"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/repository"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/service"

	"github.com/gin-gonic/gin"
)

type ParkingLotHandler struct {
	parkingService *service.ParkingService
}

func NewParkingLotHandler(parkingService *service.ParkingService) *ParkingLotHandler {
	return &ParkingLotHandler{parkingService: parkingService}
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID không hợp lệ"})
		return 0, false
	}
	return id, true
}

func (h *ParkingLotHandler) Create(c *gin.Context) {
	var dto domain.ParkingLotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot, err := h.parkingService.CreateLot(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi tạo bãi đỗ"})
		return
	}
	c.JSON(http.StatusCreated, lot)
}

func (h *ParkingLotHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	lot, err := h.parkingService.GetLot(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi tìm bãi đỗ"})
		return
	}
	c.JSON(http.StatusOK, lot)
}

func (h *ParkingLotHandler) List(c *gin.Context) {
	includeDeleted := c.Query("include_deleted") == "true"
	lots, err := h.parkingService.ListLots(c.Request.Context(), includeDeleted)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi liệt kê bãi đỗ"})
		return
	}
	c.JSON(http.StatusOK, lots)
}

func (h *ParkingLotHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var dto domain.ParkingLotUpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot, err := h.parkingService.UpdateLot(c.Request.Context(), id, dto)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi cập nhật bãi đỗ"})
		return
	}
	c.JSON(http.StatusOK, lot)
}

func (h *ParkingLotHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.parkingService.DeleteLot(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi xoá bãi đỗ"})
		return
	}
	c.Status(http.StatusNoContent)
}
