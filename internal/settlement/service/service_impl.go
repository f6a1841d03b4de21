package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stayhub/partneredge/internal/clock"
	"github.com/stayhub/partneredge/internal/config"
	"github.com/stayhub/partneredge/internal/observability/metrics"
	orderdomain "github.com/stayhub/partneredge/internal/order/domain"
	partnerdomain "github.com/stayhub/partneredge/internal/partner/domain"
	settlementdomain "github.com/stayhub/partneredge/internal/settlement/domain"
	"github.com/stayhub/partneredge/pkg/keyedmutex"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Policy       *config.SettlementPolicyHolder
	PartnerLocks *keyedmutex.KeyedMutex
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	policy       *config.SettlementPolicyHolder
	partnerLocks *keyedmutex.KeyedMutex
}

func New(p Params) settlementdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("settlement.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		policy:       p.Policy,
		partnerLocks: p.PartnerLocks,
	}
}

func (s *Service) CreateBatch(ctx context.Context, partnerID string) (*settlementdomain.SettlementBatch, error) {
	id, err := parseID(partnerID)
	if err != nil || id == 0 {
		return nil, settlementdomain.ErrInvalidID
	}

	// Checking "no batch in progress" and snapshotting the eligible set must
	// be atomic with respect to other CreateBatch calls and to gate writes
	// for the same partner.
	key := partnerKey(id)
	s.partnerLocks.Lock(key)
	defer s.partnerLocks.Unlock(key)

	var batch *settlementdomain.SettlementBatch
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var partner partnerdomain.Partner
		if err := tx.WithContext(ctx).Where("id = ?", id).First(&partner).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return settlementdomain.ErrPartnerNotFound
			}
			return err
		}

		var inProgress int64
		if err := tx.WithContext(ctx).Model(&settlementdomain.SettlementBatch{}).
			Where("partner_id = ? AND status IN ?", id, []settlementdomain.BatchStatus{
				settlementdomain.BatchStatusPending,
				settlementdomain.BatchStatusApproved,
			}).
			Count(&inProgress).Error; err != nil {
			return err
		}
		if inProgress > 0 {
			return settlementdomain.ErrBatchInProgress
		}

		var candidates []orderdomain.Order
		if err := tx.WithContext(ctx).
			Where(`partner_id = ? AND settlement_status = ? AND batch_id IS NULL
			       AND service_completed AND cooling_off_passed AND no_dispute
			       AND cost_reconciled AND account_healthy`,
				id, orderdomain.SettlementStatusReady).
			Order("id ASC").
			Find(&candidates).Error; err != nil {
			return err
		}
		if len(candidates) == 0 {
			return settlementdomain.ErrNothingToSettle
		}

		total := decimal.Zero
		orderIDs := make([]snowflake.ID, 0, len(candidates))
		for i := range candidates {
			total = total.Add(candidates[i].PartnerProfit)
			orderIDs = append(orderIDs, candidates[i].ID)
		}

		// Gate 6 is a partner aggregate: a ready set below the payout
		// threshold is not yet eligible at all.
		threshold := decimal.NewFromFloat(s.policy.Policy().PayoutThreshold)
		if total.LessThan(threshold) {
			return settlementdomain.ErrNothingToSettle
		}

		snapshot, err := settlementdomain.EncodeOrderIDs(orderIDs)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		batch = &settlementdomain.SettlementBatch{
			ID:          s.genID.Generate(),
			PartnerID:   id,
			OrderIDs:    snapshot,
			TotalProfit: total,
			Status:      settlementdomain.BatchStatusPending,
			Version:     1,
			CreatedAt:   now,
		}
		if err := tx.WithContext(ctx).Create(batch).Error; err != nil {
			return err
		}

		if err := tx.WithContext(ctx).Model(&orderdomain.Order{}).
			Where("id IN ?", orderIDs).
			Updates(map[string]any{
				"batch_id":          batch.ID,
				"threshold_met":     true,
				"settlement_status": orderdomain.SettlementStatusProcessing,
				"updated_at":        now,
			}).Error; err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncBatchTransition("none", string(settlementdomain.BatchStatusPending))
	s.log.Info("settlement batch created",
		zap.String("batch_id", batch.ID.String()),
		zap.String("partner_id", id.String()),
		zap.String("total_profit", batch.TotalProfit.StringFixed(2)),
	)
	return batch, nil
}

func (s *Service) ApproveBatch(ctx context.Context, batchID string) (*settlementdomain.SettlementBatch, error) {
	id, err := parseID(batchID)
	if err != nil {
		return nil, settlementdomain.ErrInvalidID
	}

	batch, err := s.loadBatch(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, settlementdomain.ErrBatchNotFound
	}
	if batch.Status != settlementdomain.BatchStatusPending {
		return nil, settlementdomain.ErrInvalidTransition
	}

	now := s.clock.Now()
	// Optimistic version check keeps concurrent retries from racing the
	// transition.
	result := s.db.WithContext(ctx).Exec(
		`UPDATE settlement_batches
		 SET status = ?, approved_at = ?, version = version + 1
		 WHERE id = ? AND status = ? AND version = ?`,
		settlementdomain.BatchStatusApproved,
		now,
		id,
		settlementdomain.BatchStatusPending,
		batch.Version,
	)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, settlementdomain.ErrInvalidTransition
	}

	metrics.IncBatchTransition(
		string(settlementdomain.BatchStatusPending),
		string(settlementdomain.BatchStatusApproved),
	)

	batch.Status = settlementdomain.BatchStatusApproved
	batch.Version++
	batch.ApprovedAt = &now
	return batch, nil
}

func (s *Service) CreditBatch(ctx context.Context, batchID string) (*settlementdomain.SettlementBatch, error) {
	id, err := parseID(batchID)
	if err != nil {
		return nil, settlementdomain.ErrInvalidID
	}

	batch, err := s.loadBatch(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, settlementdomain.ErrBatchNotFound
	}

	// A retried credit on an already-credited batch is a no-op success;
	// pending -> credited remains a hard error.
	if batch.Status == settlementdomain.BatchStatusCredited {
		return batch, nil
	}
	if batch.Status != settlementdomain.BatchStatusApproved {
		return nil, settlementdomain.ErrInvalidTransition
	}

	key := partnerKey(batch.PartnerID)
	s.partnerLocks.Lock(key)
	defer s.partnerLocks.Unlock(key)

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.WithContext(ctx).Exec(
			`UPDATE settlement_batches
			 SET status = ?, credited_at = ?, version = version + 1
			 WHERE id = ? AND status = ? AND version = ?`,
			settlementdomain.BatchStatusCredited,
			now,
			id,
			settlementdomain.BatchStatusApproved,
			batch.Version,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Lost the race; re-read to distinguish a concurrent credit
			// (no-op) from a genuinely invalid transition.
			current, err := s.loadBatch(ctx, tx, id)
			if err != nil {
				return err
			}
			if current != nil && current.Status == settlementdomain.BatchStatusCredited {
				batch = current
				return nil
			}
			return settlementdomain.ErrInvalidTransition
		}

		var partner partnerdomain.Partner
		if err := tx.WithContext(ctx).Where("id = ?", batch.PartnerID).First(&partner).Error; err != nil {
			return err
		}
		newBalance := partner.AvailableBalance.Add(batch.TotalProfit)
		if err := tx.WithContext(ctx).Model(&partnerdomain.Partner{}).
			Where("id = ?", partner.ID).
			Updates(map[string]any{
				"available_balance": newBalance,
				"updated_at":        now,
			}).Error; err != nil {
			return err
		}

		orderIDs, err := batch.OrderIDList()
		if err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Model(&orderdomain.Order{}).
			Where("id IN ? AND batch_id = ?", orderIDs, batch.ID).
			Updates(map[string]any{
				"settlement_status": orderdomain.SettlementStatusCompleted,
				"updated_at":        now,
			}).Error; err != nil {
			return err
		}

		batch.Status = settlementdomain.BatchStatusCredited
		batch.Version++
		batch.CreditedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncBatchTransition(
		string(settlementdomain.BatchStatusApproved),
		string(settlementdomain.BatchStatusCredited),
	)
	profit, _ := batch.TotalProfit.Float64()
	metrics.AddCreditedProfit(profit)

	s.log.Info("settlement batch credited",
		zap.String("batch_id", batch.ID.String()),
		zap.String("partner_id", batch.PartnerID.String()),
		zap.String("total_profit", batch.TotalProfit.StringFixed(2)),
	)
	return batch, nil
}

func (s *Service) loadBatch(ctx context.Context, db *gorm.DB, id snowflake.ID) (*settlementdomain.SettlementBatch, error) {
	var batch settlementdomain.SettlementBatch
	err := db.WithContext(ctx).Where("id = ?", id).First(&batch).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

func partnerKey(id snowflake.ID) string {
	return "partner:" + id.String()
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
