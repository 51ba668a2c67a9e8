package transport

import (
	"net/http"

	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"
	"github.com/sserbin1/silentbox-cloud-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type DeviceHandler struct {
	deviceService  service.DeviceService
	bookingService service.BookingService
}

func NewDeviceHandler(deviceService service.DeviceService, bookingService service.BookingService) *DeviceHandler {
	return &DeviceHandler{
		deviceService:  deviceService,
		bookingService: bookingService,
	}
}

// CreateDeviceRequest представляет регистрацию устройства за кабиной
type CreateDeviceRequest struct {
	BoothID      int64  `json:"booth_id" binding:"required"`
	BatteryLevel int    `json:"battery_level" binding:"min=0,max=100"`
	Firmware     string `json:"firmware"`
}

// IngestTelemetry принимает периодический пакет от IoT-моста
func (h *DeviceHandler) IngestTelemetry(c *gin.Context) {
	var update entity.TelemetryUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.deviceService.IngestTelemetry(c.Request.Context(), &update); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "telemetry applied"})
}

func (h *DeviceHandler) GetDevice(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}

	device, err := h.deviceService.GetDevice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, device)
}

func (h *DeviceHandler) ListDevices(c *gin.Context) {
	devices, err := h.deviceService.ListDevices(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, devices)
}

func (h *DeviceHandler) Lock(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}

	if err := h.deviceService.Lock(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "device locked"})
}

// Unlock отпирает замок; первый Unlock подтвержденной брони
// регистрируется как check-in
func (h *DeviceHandler) Unlock(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}

	checkInBookingID, err := h.deviceService.Unlock(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	if checkInBookingID != 0 {
		if err := h.bookingService.CheckIn(c.Request.Context(), checkInBookingID); err != nil {
			// Замок уже открыт; неудавшийся check-in доберет обход
			logrus.Errorf("Failed to record check-in for booking %d after unlock: %v", checkInBookingID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "device unlocked"})
}

func (h *DeviceHandler) Sync(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}

	if err := h.deviceService.Sync(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "sync requested"})
}

// CreateDevice регистрирует устройство (операторская панель)
func (h *DeviceHandler) CreateDevice(c *gin.Context) {
	var req CreateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	device, err := h.deviceService.RegisterDevice(c.Request.Context(), &entity.Device{
		BoothID:      req.BoothID,
		BatteryLevel: req.BatteryLevel,
		Firmware:     req.Firmware,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, device)
}
