package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	gatedomain "github.com/stayhub/partneredge/internal/gate/domain"
	orderdomain "github.com/stayhub/partneredge/internal/order/domain"
	partnerdomain "github.com/stayhub/partneredge/internal/partner/domain"
	pricingdomain "github.com/stayhub/partneredge/internal/pricing/domain"
	ruledomain "github.com/stayhub/partneredge/internal/rule/domain"
	settlementdomain "github.com/stayhub/partneredge/internal/settlement/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, ruledomain.ErrNoApplicableRule):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "no_applicable_rule",
			Message: "no applicable rule",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrInternal):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isRuleValidationError(err),
		isPricingValidationError(err),
		isOrderValidationError(err),
		isPartnerValidationError(err),
		isGateValidationError(err),
		isSettlementValidationError(err):
		return true
	default:
		return false
	}
}

// The state-machine errors are conflicts with current state, not bad
// requests.
func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ruledomain.ErrDuplicateGlobalRule),
		errors.Is(err, settlementdomain.ErrBatchInProgress),
		errors.Is(err, settlementdomain.ErrNothingToSettle),
		errors.Is(err, settlementdomain.ErrInvalidTransition),
		errors.Is(err, gatedomain.ErrGateNotResettable):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ruledomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, partnerdomain.ErrNotFound),
		errors.Is(err, gatedomain.ErrOrderNotFound),
		errors.Is(err, settlementdomain.ErrBatchNotFound),
		errors.Is(err, settlementdomain.ErrPartnerNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isRuleValidationError(err error) bool {
	switch err {
	case ruledomain.ErrInvalidRate,
		ruledomain.ErrMissingTarget,
		ruledomain.ErrInvalidScope,
		ruledomain.ErrInvalidOwner,
		ruledomain.ErrInvalidStatus,
		ruledomain.ErrInvalidPartner,
		ruledomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isPricingValidationError(err error) bool {
	return err == pricingdomain.ErrInvalidCost
}

func isOrderValidationError(err error) bool {
	switch err {
	case orderdomain.ErrInvalidPartner,
		orderdomain.ErrInvalidSupplier,
		orderdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isPartnerValidationError(err error) bool {
	switch err {
	case partnerdomain.ErrInvalidName,
		partnerdomain.ErrInvalidStatus,
		partnerdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isGateValidationError(err error) bool {
	switch err {
	case gatedomain.ErrUnknownGate,
		gatedomain.ErrGateNotSettable,
		gatedomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isSettlementValidationError(err error) bool {
	return err == settlementdomain.ErrInvalidID
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	if code == "invalid_request" {
		return "request"
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
