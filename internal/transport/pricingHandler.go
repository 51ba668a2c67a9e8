package transport

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"
	"github.com/sserbin1/silentbox-cloud-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type PricingHandler struct {
	pricingService service.PricingService
}

func NewPricingHandler(pricingService service.PricingService) *PricingHandler {
	return &PricingHandler{pricingService: pricingService}
}

const (
	ruleKindDiscount  = "discount"
	ruleKindPeakHours = "peak_hours"
)

// QuoteHTTPRequest представляет тело запроса расчета стоимости
type QuoteHTTPRequest struct {
	TenantID      int64   `json:"tenant_id" binding:"required"`
	BoothID       int64   `json:"booth_id" binding:"required"`
	Start         string  `json:"start" binding:"required"`
	DurationHours float64 `json:"duration_hours" binding:"required,gt=0"`
}

// PricingRuleRequest covers both rule kinds; Kind selects which fields
// are read.
type PricingRuleRequest struct {
	Kind     string `json:"kind" binding:"required,oneof=discount peak_hours"`
	TenantID int64  `json:"tenant_id" binding:"required"`
	IsActive bool   `json:"is_active"`

	// discount
	DiscountType string  `json:"discount_type"`
	Value        float64 `json:"value"`
	MinHours     float64 `json:"min_hours"`
	AppliesTo    string  `json:"applies_to"`

	// peak_hours
	DayOfWeek  int     `json:"day_of_week"`
	StartHour  int     `json:"start_hour"`
	EndHour    int     `json:"end_hour"`
	Multiplier float64 `json:"multiplier"`
}

func (r *PricingRuleRequest) toEntity(id int64) entity.PricingRule {
	switch r.Kind {
	case ruleKindDiscount:
		return &entity.DiscountRule{
			ID:        id,
			TenantID:  r.TenantID,
			Type:      entity.DiscountType(r.DiscountType),
			Value:     r.Value,
			MinHours:  r.MinHours,
			AppliesTo: entity.DiscountScope(r.AppliesTo),
			IsActive:  r.IsActive,
		}
	case ruleKindPeakHours:
		return &entity.PeakHoursRule{
			ID:         id,
			TenantID:   r.TenantID,
			DayOfWeek:  r.DayOfWeek,
			StartHour:  r.StartHour,
			EndHour:    r.EndHour,
			Multiplier: r.Multiplier,
			IsActive:   r.IsActive,
		}
	}
	return nil
}

// Quote рассчитывает стоимость без создания бронирования
func (h *PricingHandler) Quote(c *gin.Context) {
	var req QuoteHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start time, expected RFC3339"})
		return
	}

	quote, err := h.pricingService.Quote(c.Request.Context(), &service.QuoteRequest{
		TenantID:      req.TenantID,
		BoothID:       req.BoothID,
		Start:         start,
		DurationHours: req.DurationHours,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// CreateRule создает правило тарификации
func (h *PricingHandler) CreateRule(c *gin.Context) {
	var req PricingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.pricingService.CreateRule(c.Request.Context(), req.toEntity(0))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "kind": req.Kind})
}

func (h *PricingHandler) GetRule(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule id"})
		return
	}

	rule, err := h.pricingService.GetRule(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ruleResponse(rule))
}

// GetTenantRules возвращает правила тенанта, ?tenant_id= обязателен
func (h *PricingHandler) GetTenantRules(c *gin.Context) {
	tenantID, err := strconv.ParseInt(c.Query("tenant_id"), 10, 64)
	if err != nil || tenantID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant_id"})
		return
	}

	rules, err := h.pricingService.GetTenantRules(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(rules))
	for _, rule := range rules {
		out = append(out, ruleResponse(rule))
	}
	c.JSON(http.StatusOK, out)
}

// UpdateRule обновляет правило тарификации
func (h *PricingHandler) UpdateRule(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule id"})
		return
	}

	var req PricingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.pricingService.UpdateRule(c.Request.Context(), req.toEntity(id)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "rule updated"})
}

func (h *PricingHandler) DeleteRule(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule id"})
		return
	}

	if err := h.pricingService.DeleteRule(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "rule deleted"})
}

// ruleResponse tags the variant so clients can tell the kinds apart
func ruleResponse(rule entity.PricingRule) gin.H {
	switch r := rule.(type) {
	case *entity.DiscountRule:
		return gin.H{"kind": ruleKindDiscount, "rule": r}
	case *entity.PeakHoursRule:
		return gin.H{"kind": ruleKindPeakHours, "rule": r}
	}
	return gin.H{}
}
