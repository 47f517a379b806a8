package models

import (
	"time"

	dbtypes "github.com/RodgersChayuga/hekaheka-backend/pkg/db/types"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/enums"
)

// Listing is the off-chain projection of one marketplace listing. A
// listing id is only ever assigned once on chain, so the row moves
// active -> sold or active -> cancelled and never back.
type Listing struct {
	ListingID  uint64              `gorm:"column:listing_id;primaryKey;autoIncrement:false"`
	TokenID    uint64              `gorm:"column:token_id;not null;index"`
	Seller     string              `gorm:"column:seller;size:42;not null;index"`
	PriceWei   dbtypes.Wei         `gorm:"column:price_wei;not null"`
	Status     enums.ListingStatus `gorm:"column:status;size:16;not null;index"`
	ListTxHash string              `gorm:"column:list_tx_hash;size:66;not null"`
	ListBlock  uint64              `gorm:"column:list_block;not null"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
