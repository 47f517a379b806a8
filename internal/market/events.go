package market

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type Listed struct {
	ListingID uint64
	TokenID   uint64
	Seller    common.Address
	Price     *big.Int
}

func (Listed) EventName() string      { return "Listed" }
func (Listed) EventSignature() string { return "Listed(uint256,uint256,address,uint256)" }

type Purchased struct {
	ListingID     uint64
	TokenID       uint64
	Buyer         common.Address
	Price         *big.Int
	RoyaltyAmount *big.Int
	PlatformFee   *big.Int
}

func (Purchased) EventName() string { return "Purchased" }
func (Purchased) EventSignature() string {
	return "Purchased(uint256,uint256,address,uint256,uint256,uint256)"
}

type Cancelled struct {
	ListingID uint64
	TokenID   uint64
}

func (Cancelled) EventName() string      { return "Cancelled" }
func (Cancelled) EventSignature() string { return "Cancelled(uint256,uint256)" }

type FundsWithdrawn struct {
	Recipient common.Address
	Amount    *big.Int
}

func (FundsWithdrawn) EventName() string      { return "FundsWithdrawn" }
func (FundsWithdrawn) EventSignature() string { return "FundsWithdrawn(address,uint256)" }

type ListingFeeUpdated struct {
	NewFee *big.Int
}

func (ListingFeeUpdated) EventName() string      { return "ListingFeeUpdated" }
func (ListingFeeUpdated) EventSignature() string { return "ListingFeeUpdated(uint256)" }

type PlatformFeeUpdated struct {
	NewPercent uint16
}

func (PlatformFeeUpdated) EventName() string      { return "PlatformFeeUpdated" }
func (PlatformFeeUpdated) EventSignature() string { return "PlatformFeeUpdated(uint256)" }
