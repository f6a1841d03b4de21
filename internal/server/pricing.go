package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	ruledomain "github.com/stayhub/partneredge/internal/rule/domain"
)

type resolvePricingRequest struct {
	PartnerID    string          `json:"partner_id"`
	Brand        string          `json:"brand"`
	City         string          `json:"city"`
	SupplierID   string          `json:"supplier_id"`
	SupplierCost decimal.Decimal `json:"supplier_cost"`
}

// ResolvePricing prices a hypothetical booking without storing anything.
func (s *Server) ResolvePricing(c *gin.Context) {
	var req resolvePricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	partnerID, err := snowflake.ParseString(strings.TrimSpace(req.PartnerID))
	if err != nil {
		AbortWithError(c, newValidationError("partner_id", "invalid_partner", "invalid partner id"))
		return
	}

	resp, err := s.pricingSvc.ComputeWaterfall(c.Request.Context(), ruledomain.PricingContext{
		Brand:      strings.TrimSpace(req.Brand),
		City:       strings.TrimSpace(req.City),
		SupplierID: strings.TrimSpace(req.SupplierID),
		PartnerID:  partnerID,
	}, req.SupplierCost)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
