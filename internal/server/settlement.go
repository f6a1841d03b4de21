package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) CreateSettlementBatch(c *gin.Context) {
	partnerID := strings.TrimSpace(c.Param("id"))

	resp, err := s.settlementSvc.CreateBatch(c.Request.Context(), partnerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ApproveSettlementBatch(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	resp, err := s.settlementSvc.ApproveBatch(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreditSettlementBatch(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	resp, err := s.settlementSvc.CreditBatch(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
