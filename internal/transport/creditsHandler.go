package transport

import (
	"net/http"
	"strconv"

	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"
	"github.com/sserbin1/silentbox-cloud-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type CreditsHandler struct {
	creditsService service.CreditsService
}

func NewCreditsHandler(creditsService service.CreditsService) *CreditsHandler {
	return &CreditsHandler{creditsService: creditsService}
}

func (h *CreditsHandler) GetBalance(c *gin.Context) {
	userID, err := parseIDParam(c, "user_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	balance, err := h.creditsService.Balance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "balance": balance})
}

func (h *CreditsHandler) GetHistory(c *gin.Context) {
	userID, err := parseIDParam(c, "user_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	history, err := h.creditsService.History(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

type PurchasePackageRequest struct {
	UserID    int64 `json:"user_id" binding:"required"`
	PackageID int64 `json:"package_id" binding:"required"`
}

type CreditPackageRequest struct {
	TenantID     int64   `json:"tenant_id" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	Credits      float64 `json:"credits" binding:"required,gt=0"`
	BonusCredits float64 `json:"bonus_credits" binding:"gte=0"`
	Price        float64 `json:"price" binding:"required,gt=0"`
	Currency     string  `json:"currency" binding:"required,len=3"`
	IsActive     *bool   `json:"is_active"`
}

func (r *CreditPackageRequest) toEntity(id int64) *entity.CreditPackage {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &entity.CreditPackage{
		ID:           id,
		TenantID:     r.TenantID,
		Name:         r.Name,
		Credits:      r.Credits,
		BonusCredits: r.BonusCredits,
		Price:        r.Price,
		Currency:     r.Currency,
		IsActive:     active,
	}
}

// PurchasePackage зачисляет купленный пакет кредитов
func (h *CreditsHandler) PurchasePackage(c *gin.Context) {
	var req PurchasePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	balance, err := h.creditsService.PurchasePackage(c.Request.Context(), req.UserID, req.PackageID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "package purchased",
		Data:    gin.H{"user_id": req.UserID, "balance": balance},
	})
}

func (h *CreditsHandler) GetTenantPackages(c *gin.Context) {
	tenantID, err := strconv.ParseInt(c.Query("tenant_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant id"})
		return
	}

	packages, err := h.creditsService.GetTenantPackages(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, packages)
}

func (h *CreditsHandler) CreatePackage(c *gin.Context) {
	var req CreditPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pkg, err := h.creditsService.CreatePackage(c.Request.Context(), req.toEntity(0))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, pkg)
}

func (h *CreditsHandler) UpdatePackage(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid package id"})
		return
	}

	var req CreditPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.creditsService.UpdatePackage(c.Request.Context(), req.toEntity(id)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "package updated"})
}

func (h *CreditsHandler) DeletePackage(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid package id"})
		return
	}

	if err := h.creditsService.DeletePackage(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "package deleted"})
}

// Adjust применяет административную корректировку баланса
func (h *CreditsHandler) Adjust(c *gin.Context) {
	var req service.AdjustCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	balance, err := h.creditsService.Apply(c.Request.Context(), req.UserID, req.Amount, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "credits adjusted",
		Data:    gin.H{"user_id": req.UserID, "balance": balance},
	})
}
