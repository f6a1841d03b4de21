package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	ruledomain "github.com/stayhub/partneredge/internal/rule/domain"
)

type createRuleRequest struct {
	Owner     string          `json:"owner"`
	PartnerID string          `json:"partner_id"`
	Scope     string          `json:"scope"`
	Target    string          `json:"target"`
	Rate      decimal.Decimal `json:"rate"`
	Priority  *int            `json:"priority"`
}

type setRuleStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) CreateRule(c *gin.Context) {
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	priority := 100
	if req.Priority != nil {
		priority = *req.Priority
	}

	resp, err := s.ruleSvc.Create(c.Request.Context(), ruledomain.CreateRequest{
		Owner:     ruledomain.RuleOwner(strings.ToUpper(strings.TrimSpace(req.Owner))),
		PartnerID: strings.TrimSpace(req.PartnerID),
		Scope:     ruledomain.RuleScope(strings.ToUpper(strings.TrimSpace(req.Scope))),
		Target:    strings.TrimSpace(req.Target),
		Rate:      req.Rate,
		Priority:  priority,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListRules(c *gin.Context) {
	var query struct {
		Owner     string `form:"owner"`
		PartnerID string `form:"partner_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var partnerID snowflake.ID
	if raw := strings.TrimSpace(query.PartnerID); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("partner_id", "invalid_partner", "invalid partner id"))
			return
		}
		partnerID = parsed
	}

	resp, err := s.ruleSvc.List(c.Request.Context(),
		ruledomain.RuleOwner(strings.ToUpper(strings.TrimSpace(query.Owner))),
		partnerID,
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetRuleStatus(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var req setRuleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ruleSvc.SetStatus(c.Request.Context(), id,
		ruledomain.RuleStatus(strings.ToUpper(strings.TrimSpace(req.Status))))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
