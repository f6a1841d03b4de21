package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	partnerdomain "github.com/stayhub/partneredge/internal/partner/domain"
)

type createPartnerRequest struct {
	Name string `json:"name"`
}

type setPartnerStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) CreatePartner(c *gin.Context) {
	var req createPartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.partnerSvc.Create(c.Request.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPartnerByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.partnerSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetPartnerStatus(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var req setPartnerStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.partnerSvc.SetStatus(c.Request.Context(), id,
		partnerdomain.AccountStatus(strings.ToUpper(strings.TrimSpace(req.Status))))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
