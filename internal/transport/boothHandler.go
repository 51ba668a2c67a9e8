package transport

import (
	"net/http"
	"strconv"

	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"
	"github.com/sserbin1/silentbox-cloud-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type BoothHandler struct {
	boothService service.BoothService
}

func NewBoothHandler(boothService service.BoothService) *BoothHandler {
	return &BoothHandler{boothService: boothService}
}

// CreateBoothRequest представляет данные для создания кабины
type CreateBoothRequest struct {
	TenantID   int64   `json:"tenant_id" binding:"required"`
	LocationID int64   `json:"location_id"`
	Name       string  `json:"name" binding:"required,min=1,max=255"`
	HourlyRate float64 `json:"hourly_rate" binding:"required,gt=0"`
	Currency   string  `json:"currency" binding:"required,len=3"`
	Capacity   int     `json:"capacity"`
}

// UpdateBoothStatusRequest представляет смену операторского состояния
type UpdateBoothStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=available maintenance offline"`
}

// CreateBooth создает новую кабину
func (h *BoothHandler) CreateBooth(c *gin.Context) {
	var req CreateBoothRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booth, err := h.boothService.CreateBooth(c.Request.Context(), &entity.Booth{
		TenantID:   req.TenantID,
		LocationID: req.LocationID,
		Name:       req.Name,
		HourlyRate: req.HourlyRate,
		Currency:   req.Currency,
		Capacity:   req.Capacity,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booth)
}

func (h *BoothHandler) GetBooth(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booth id"})
		return
	}

	booth, err := h.boothService.GetBooth(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, booth)
}

// GetTenantBooths возвращает кабины тенанта, ?tenant_id= обязателен
func (h *BoothHandler) GetTenantBooths(c *gin.Context) {
	tenantID, err := strconv.ParseInt(c.Query("tenant_id"), 10, 64)
	if err != nil || tenantID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant_id"})
		return
	}

	booths, err := h.boothService.GetTenantBooths(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, booths)
}

// UpdateBoothStatus переводит кабину в операторское состояние
func (h *BoothHandler) UpdateBoothStatus(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booth id"})
		return
	}

	var req UpdateBoothStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.boothService.UpdateBoothStatus(c.Request.Context(), id, entity.BoothStatus(req.Status)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "booth status updated"})
}
