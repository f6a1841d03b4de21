package domain

import (
	"context"
	"errors"
)

type Service interface {
	Create(ctx context.Context, name string) (*Partner, error)
	Get(ctx context.Context, id string) (*Partner, error)
	// SetStatus mirrors account health into the gating engine: freezing or
	// closing an account makes the accountHealthy gate unsatisfied for all
	// of the partner's live orders on the next evaluation.
	SetStatus(ctx context.Context, id string, status AccountStatus) (*Partner, error)
}

var (
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidStatus = errors.New("invalid_account_status")
	ErrInvalidID     = errors.New("invalid_id")
	ErrNotFound      = errors.New("partner_not_found")
)
