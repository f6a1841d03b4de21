package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Gate is one of the six independent preconditions an order must satisfy
// before its partner profit is payable.
type Gate string

const (
	GateServiceCompleted Gate = "serviceCompleted"
	GateCoolingOffPassed Gate = "coolingOffPassed"
	GateNoDispute        Gate = "noDispute"
	GateCostReconciled   Gate = "costReconciled"
	GateAccountHealthy   Gate = "accountHealthy"
	GateThresholdMet     Gate = "thresholdMet"
)

type SettlementStatus string

const (
	SettlementStatusPending    SettlementStatus = "PENDING"
	SettlementStatusReady      SettlementStatus = "READY"
	SettlementStatusProcessing SettlementStatus = "PROCESSING"
	SettlementStatusCompleted  SettlementStatus = "COMPLETED"
)

// Order is a confirmed booking with its priced waterfall and settlement
// gates. Orders are never destroyed by the engine.
type Order struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	PartnerID snowflake.ID `json:"partner_id" gorm:"not null;index"`

	Brand      string `json:"brand" gorm:"type:text;not null"`
	City       string `json:"city" gorm:"type:text;not null"`
	SupplierID string `json:"supplier_id" gorm:"type:text;not null"`

	SupplierCost   decimal.Decimal `json:"supplier_cost" gorm:"type:decimal(20,2);not null"`
	PlatformPrice  decimal.Decimal `json:"platform_price" gorm:"type:decimal(20,2);not null"`
	SalePrice      decimal.Decimal `json:"sale_price" gorm:"type:decimal(20,2);not null"`
	PlatformProfit decimal.Decimal `json:"platform_profit" gorm:"type:decimal(20,2);not null"`
	PartnerProfit  decimal.Decimal `json:"partner_profit" gorm:"type:decimal(20,2);not null"`

	ServiceCompleted bool `json:"service_completed" gorm:"not null;default:false"`
	CoolingOffPassed bool `json:"cooling_off_passed" gorm:"not null;default:false"`
	NoDispute        bool `json:"no_dispute" gorm:"not null;default:true"`
	CostReconciled   bool `json:"cost_reconciled" gorm:"not null;default:false"`
	AccountHealthy   bool `json:"account_healthy" gorm:"not null;default:true"`
	ThresholdMet     bool `json:"threshold_met" gorm:"not null;default:false"`

	CheckedOutAt     *time.Time       `json:"checked_out_at,omitempty"`
	SettlementStatus SettlementStatus `json:"settlement_status" gorm:"type:text;not null;index"`
	BatchID          *snowflake.ID    `json:"batch_id,omitempty" gorm:"index"`

	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Order) TableName() string { return "orders" }

// GateValue reads a single gate flag.
func (o *Order) GateValue(g Gate) (bool, bool) {
	switch g {
	case GateServiceCompleted:
		return o.ServiceCompleted, true
	case GateCoolingOffPassed:
		return o.CoolingOffPassed, true
	case GateNoDispute:
		return o.NoDispute, true
	case GateCostReconciled:
		return o.CostReconciled, true
	case GateAccountHealthy:
		return o.AccountHealthy, true
	case GateThresholdMet:
		return o.ThresholdMet, true
	default:
		return false, false
	}
}

// BaseGatesSatisfied reports whether gates 1-5 hold. Gate 6 (thresholdMet)
// is a partner-level aggregate and is evaluated separately.
func (o *Order) BaseGatesSatisfied() bool {
	return o.ServiceCompleted &&
		o.CoolingOffPassed &&
		o.NoDispute &&
		o.CostReconciled &&
		o.AccountHealthy
}

// Eligible reports whether all six gates hold.
func (o *Order) Eligible() bool {
	return o.BaseGatesSatisfied() && o.ThresholdMet
}
