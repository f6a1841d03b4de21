package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type BatchStatus string

const (
	BatchStatusPending  BatchStatus = "PENDING"
	BatchStatusApproved BatchStatus = "APPROVED"
	BatchStatusCredited BatchStatus = "CREDITED"
)

// SettlementBatch groups a partner's eligible orders for payout. The order
// snapshot and total are fixed at creation; status only moves forward
// (pending -> approved -> credited) and credited is terminal.
type SettlementBatch struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	PartnerID   snowflake.ID    `json:"partner_id" gorm:"not null;index"`
	OrderIDs    datatypes.JSON  `json:"order_ids" gorm:"not null"`
	TotalProfit decimal.Decimal `json:"total_profit" gorm:"type:decimal(20,2);not null"`
	Status      BatchStatus     `json:"status" gorm:"type:text;not null;index"`
	Version     int32           `json:"version" gorm:"not null;default:1"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	ApprovedAt  *time.Time      `json:"approved_at,omitempty"`
	CreditedAt  *time.Time      `json:"credited_at,omitempty"`
}

func (SettlementBatch) TableName() string { return "settlement_batches" }

// EncodeOrderIDs snapshots the order-id set as a JSON array.
func EncodeOrderIDs(ids []snowflake.ID) (datatypes.JSON, error) {
	values := make([]string, 0, len(ids))
	for _, id := range ids {
		values = append(values, id.String())
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// OrderIDList decodes the snapshotted order-id set.
func (b *SettlementBatch) OrderIDList() ([]snowflake.ID, error) {
	var values []string
	if err := json.Unmarshal(b.OrderIDs, &values); err != nil {
		return nil, err
	}
	ids := make([]snowflake.ID, 0, len(values))
	for _, v := range values {
		id, err := snowflake.ParseString(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
