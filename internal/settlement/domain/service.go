package domain

import (
	"context"
	"errors"
)

type Service interface {
	// CreateBatch atomically snapshots all of the partner's eligible, ready,
	// unbatched orders into a pending batch and marks them processing. At
	// most one non-terminal batch may exist per partner.
	CreateBatch(ctx context.Context, partnerID string) (*SettlementBatch, error)
	// ApproveBatch moves pending -> approved.
	ApproveBatch(ctx context.Context, batchID string) (*SettlementBatch, error)
	// CreditBatch moves approved -> credited, crediting the partner balance
	// exactly once and completing the contained orders. Crediting an
	// already-credited batch is a no-op success so retries are safe.
	CreditBatch(ctx context.Context, batchID string) (*SettlementBatch, error)
}

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrPartnerNotFound   = errors.New("partner_not_found")
	ErrBatchNotFound     = errors.New("batch_not_found")
	ErrNothingToSettle   = errors.New("nothing_to_settle")
	ErrBatchInProgress   = errors.New("batch_in_progress")
	ErrInvalidTransition = errors.New("invalid_transition")
)
