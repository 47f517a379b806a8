package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/RodgersChayuga/hekaheka-backend/pkg/db/types"
)

// Sale records one completed purchase with the fee split the contract
// applied. Rows are append-only.
type Sale struct {
	ID             uuid.UUID   `gorm:"column:id;type:uuid;primaryKey"`
	ListingID      uint64      `gorm:"column:listing_id;not null;index"`
	TokenID        uint64      `gorm:"column:token_id;not null;index"`
	Seller         string      `gorm:"column:seller;size:42;not null"`
	Buyer          string      `gorm:"column:buyer;size:42;not null;index"`
	PriceWei       dbtypes.Wei `gorm:"column:price_wei;not null"`
	RoyaltyWei     dbtypes.Wei `gorm:"column:royalty_wei;not null"`
	PlatformFeeWei dbtypes.Wei `gorm:"column:platform_fee_wei;not null"`
	TxHash         string      `gorm:"column:tx_hash;size:66;not null;uniqueIndex"`
	Block          uint64      `gorm:"column:block;not null"`
	CreatedAt      time.Time   `gorm:"column:created_at;autoCreateTime"`
}
