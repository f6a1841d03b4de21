package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/stayhub/partneredge/internal/order/domain"
)

type Service interface {
	// ApplyGateEvent records a lifecycle event against one gate and
	// re-evaluates the order's settlement status. Orders already picked into
	// a batch keep their gate history but are not re-evaluated.
	ApplyGateEvent(ctx context.Context, orderID string, gate orderdomain.Gate, value bool) (*orderdomain.Order, error)
	// Evaluate recomputes the time-derived and mirrored gates and persists
	// the resulting settlement status.
	Evaluate(ctx context.Context, orderID string) (*orderdomain.Order, error)
}

// AccountHealthChecker looks up the partner's current account standing.
// Lookups are bounded by the policy timeout; a timeout or error counts as
// "not healthy", never as healthy.
type AccountHealthChecker interface {
	Healthy(ctx context.Context, partnerID snowflake.ID) (bool, error)
}

var (
	ErrUnknownGate       = errors.New("unknown_gate")
	ErrGateNotSettable   = errors.New("gate_not_settable")
	ErrGateNotResettable = errors.New("gate_not_resettable")
	ErrInvalidID         = errors.New("invalid_id")
	ErrOrderNotFound     = errors.New("order_not_found")
)
