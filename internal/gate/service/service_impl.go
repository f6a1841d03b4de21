package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stayhub/partneredge/internal/clock"
	"github.com/stayhub/partneredge/internal/config"
	gatedomain "github.com/stayhub/partneredge/internal/gate/domain"
	"github.com/stayhub/partneredge/internal/observability/metrics"
	orderdomain "github.com/stayhub/partneredge/internal/order/domain"
	"github.com/stayhub/partneredge/pkg/keyedmutex"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Clock         clock.Clock
	Policy        *config.SettlementPolicyHolder
	PartnerLocks  *keyedmutex.KeyedMutex
	HealthChecker gatedomain.AccountHealthChecker
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	clock         clock.Clock
	policy        *config.SettlementPolicyHolder
	partnerLocks  *keyedmutex.KeyedMutex
	healthChecker gatedomain.AccountHealthChecker
}

func New(p Params) gatedomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("gate.service"),
		clock:         p.Clock,
		policy:        p.Policy,
		partnerLocks:  p.PartnerLocks,
		healthChecker: p.HealthChecker,
	}
}

func (s *Service) ApplyGateEvent(ctx context.Context, orderID string, gate orderdomain.Gate, value bool) (*orderdomain.Order, error) {
	id, err := parseID(orderID)
	if err != nil {
		return nil, gatedomain.ErrInvalidID
	}

	if _, err := validateGateEvent(gate, value); err != nil {
		return nil, err
	}

	o, err := s.loadOrder(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, gatedomain.ErrOrderNotFound
	}

	// Gate 6 reads a partner-wide aggregate, so gate writes and batch
	// creation for the same partner must not interleave.
	key := partnerKey(o.PartnerID)
	s.partnerLocks.Lock(key)
	defer s.partnerLocks.Unlock(key)

	var result *orderdomain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.loadOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return gatedomain.ErrOrderNotFound
		}

		now := s.clock.Now()
		if err := applyGate(current, gate, value, now); err != nil {
			return err
		}

		// A batched or settled order keeps its gate history but its status
		// and its batch are never revisited.
		if current.SettlementStatus == orderdomain.SettlementStatusProcessing ||
			current.SettlementStatus == orderdomain.SettlementStatusCompleted {
			if err := s.persistGates(ctx, tx, current, now); err != nil {
				return err
			}
			result = current
			return nil
		}

		if err := s.evaluateLocked(ctx, tx, current, now); err != nil {
			return err
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) Evaluate(ctx context.Context, orderID string) (*orderdomain.Order, error) {
	id, err := parseID(orderID)
	if err != nil {
		return nil, gatedomain.ErrInvalidID
	}

	o, err := s.loadOrder(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, gatedomain.ErrOrderNotFound
	}

	key := partnerKey(o.PartnerID)
	s.partnerLocks.Lock(key)
	defer s.partnerLocks.Unlock(key)

	var result *orderdomain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.loadOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return gatedomain.ErrOrderNotFound
		}

		if current.SettlementStatus == orderdomain.SettlementStatusProcessing ||
			current.SettlementStatus == orderdomain.SettlementStatusCompleted {
			result = current
			return nil
		}

		if err := s.evaluateLocked(ctx, tx, current, s.clock.Now()); err != nil {
			return err
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// evaluateLocked recomputes derived gates, persists the order and refreshes
// the partner-wide threshold gate. Caller holds the partner lock and tx.
func (s *Service) evaluateLocked(ctx context.Context, tx *gorm.DB, o *orderdomain.Order, now time.Time) error {
	policy := s.policy.Policy()

	if !o.CoolingOffPassed && o.CheckedOutAt != nil {
		due := o.CheckedOutAt.Add(policy.CoolingOffWindow())
		if !now.Before(due) {
			o.CoolingOffPassed = true
		}
	}

	o.AccountHealthy = s.accountHealthy(ctx, o.PartnerID, policy.LookupTimeout())

	if o.BaseGatesSatisfied() {
		o.SettlementStatus = orderdomain.SettlementStatusReady
	} else {
		o.SettlementStatus = orderdomain.SettlementStatusPending
		o.ThresholdMet = false
	}

	if err := s.persistGates(ctx, tx, o, now); err != nil {
		return err
	}

	if err := s.refreshThreshold(ctx, tx, o, policy, now); err != nil {
		return err
	}

	metrics.IncGateEvaluation(string(o.SettlementStatus))
	return nil
}

// refreshThreshold recomputes gate 6 for every ready order of the partner:
// it holds only when the aggregate ready profit meets the payout threshold.
func (s *Service) refreshThreshold(ctx context.Context, tx *gorm.DB, o *orderdomain.Order, policy config.SettlementPolicy, now time.Time) error {
	var ready []orderdomain.Order
	err := tx.WithContext(ctx).
		Where("partner_id = ? AND settlement_status = ?", o.PartnerID, orderdomain.SettlementStatusReady).
		Find(&ready).Error
	if err != nil {
		return err
	}

	total := decimal.Zero
	for i := range ready {
		total = total.Add(ready[i].PartnerProfit)
	}

	met := total.GreaterThanOrEqual(decimal.NewFromFloat(policy.PayoutThreshold))
	if err := tx.WithContext(ctx).Model(&orderdomain.Order{}).
		Where("partner_id = ? AND settlement_status = ?", o.PartnerID, orderdomain.SettlementStatusReady).
		Updates(map[string]any{"threshold_met": met, "updated_at": now}).Error; err != nil {
		return err
	}

	if o.SettlementStatus == orderdomain.SettlementStatusReady {
		o.ThresholdMet = met
	}
	return nil
}

func (s *Service) accountHealthy(ctx context.Context, partnerID snowflake.ID, timeout time.Duration) bool {
	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	healthy, err := s.healthChecker.Healthy(lookupCtx, partnerID)
	if err != nil {
		// Timeout or lookup failure is never treated as satisfied.
		metrics.IncGateLookupFailure(string(orderdomain.GateAccountHealthy))
		s.log.Warn("account health lookup failed",
			zap.String("partner_id", partnerID.String()),
			zap.Error(err),
		)
		return false
	}
	return healthy
}

func (s *Service) persistGates(ctx context.Context, tx *gorm.DB, o *orderdomain.Order, now time.Time) error {
	o.UpdatedAt = now
	return tx.WithContext(ctx).Model(&orderdomain.Order{}).
		Where("id = ?", o.ID).
		Updates(map[string]any{
			"service_completed":  o.ServiceCompleted,
			"cooling_off_passed": o.CoolingOffPassed,
			"no_dispute":         o.NoDispute,
			"cost_reconciled":    o.CostReconciled,
			"account_healthy":    o.AccountHealthy,
			"threshold_met":      o.ThresholdMet,
			"checked_out_at":     o.CheckedOutAt,
			"settlement_status":  o.SettlementStatus,
			"updated_at":         o.UpdatedAt,
		}).Error
}

func (s *Service) loadOrder(ctx context.Context, db *gorm.DB, id snowflake.ID) (*orderdomain.Order, error) {
	var o orderdomain.Order
	err := db.WithContext(ctx).Where("id = ?", id).First(&o).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func validateGateEvent(gate orderdomain.Gate, value bool) (orderdomain.Gate, error) {
	switch gate {
	case orderdomain.GateServiceCompleted,
		orderdomain.GateCoolingOffPassed,
		orderdomain.GateCostReconciled:
		if !value {
			// These gates flip exactly once from false to true.
			return gate, gatedomain.ErrGateNotResettable
		}
		return gate, nil
	case orderdomain.GateNoDispute, orderdomain.GateAccountHealthy:
		return gate, nil
	case orderdomain.GateThresholdMet:
		// Derived from the partner aggregate, never accepted from events.
		return gate, gatedomain.ErrGateNotSettable
	default:
		return gate, gatedomain.ErrUnknownGate
	}
}

func applyGate(o *orderdomain.Order, gate orderdomain.Gate, value bool, now time.Time) error {
	switch gate {
	case orderdomain.GateServiceCompleted:
		if !o.ServiceCompleted {
			o.ServiceCompleted = true
			if o.CheckedOutAt == nil {
				checkedOut := now
				o.CheckedOutAt = &checkedOut
			}
		}
	case orderdomain.GateCoolingOffPassed:
		o.CoolingOffPassed = true
	case orderdomain.GateCostReconciled:
		o.CostReconciled = true
	case orderdomain.GateNoDispute:
		o.NoDispute = value
	case orderdomain.GateAccountHealthy:
		o.AccountHealthy = value
	default:
		return gatedomain.ErrUnknownGate
	}
	return nil
}

func partnerKey(id snowflake.ID) string {
	return "partner:" + id.String()
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
