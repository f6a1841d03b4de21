package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	orderdomain "github.com/stayhub/partneredge/internal/order/domain"
)

type createOrderRequest struct {
	PartnerID    string          `json:"partner_id"`
	Brand        string          `json:"brand"`
	City         string          `json:"city"`
	SupplierID   string          `json:"supplier_id"`
	SupplierCost decimal.Decimal `json:"supplier_cost"`
}

type gateEventRequest struct {
	Gate  string `json:"gate"`
	Value *bool  `json:"value"`
}

func (s *Server) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.Create(c.Request.Context(), orderdomain.CreateRequest{
		PartnerID:    strings.TrimSpace(req.PartnerID),
		Brand:        strings.TrimSpace(req.Brand),
		City:         strings.TrimSpace(req.City),
		SupplierID:   strings.TrimSpace(req.SupplierID),
		SupplierCost: req.SupplierCost,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrderByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.orderSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ApplyGateEvent records one lifecycle event against an order's gate and
// returns the re-evaluated order.
func (s *Server) ApplyGateEvent(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var req gateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Value == nil {
		AbortWithError(c, newValidationError("value", "invalid_value", "value is required"))
		return
	}

	resp, err := s.gateSvc.ApplyGateEvent(c.Request.Context(), id,
		orderdomain.Gate(strings.TrimSpace(req.Gate)), *req.Value)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
