package models

import (
	"time"
)

// Comic is the off-chain projection of one minted token. Creator and
// royalty never change after mint; Owner tracks Transfer events.
type Comic struct {
	TokenID    uint64    `gorm:"column:token_id;primaryKey;autoIncrement:false"`
	Creator    string    `gorm:"column:creator;size:42;not null;index"`
	Owner      string    `gorm:"column:owner;size:42;not null;index"`
	TokenURI   string    `gorm:"column:token_uri;not null"`
	RoyaltyBps uint16    `gorm:"column:royalty_bps;not null"`
	MintTxHash string    `gorm:"column:mint_tx_hash;size:66;not null"`
	MintBlock  uint64    `gorm:"column:mint_block;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
