package bindings

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/RodgersChayuga/hekaheka-backend/internal/chain"
	"github.com/RodgersChayuga/hekaheka-backend/internal/market"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/errors"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/logger"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/wei"
)

type Marketplace struct {
	backend  *chain.Backend
	contract *market.Contract
	log      *logger.Logger
}

func NewMarketplace(backend *chain.Backend, contract *market.Contract, log *logger.Logger) *Marketplace {
	return &Marketplace{backend: backend, contract: contract, log: log}
}

func (m *Marketplace) Address() common.Address { return m.contract.Address() }

// ListReceipt is the parsed outcome of a successful listing.
type ListReceipt struct {
	ListingID   uint64
	TokenID     uint64
	Seller      common.Address
	Price       *big.Int
	TxHash      common.Hash
	BlockNumber uint64
	Raw         *chain.Receipt
}

// PurchaseReceipt is the parsed outcome of a successful purchase,
// including the fee split the contract applied.
type PurchaseReceipt struct {
	ListingID     uint64
	TokenID       uint64
	Buyer         common.Address
	Price         *big.Int
	RoyaltyAmount *big.Int
	PlatformFee   *big.Int
	TxHash        common.Hash
	BlockNumber   uint64
	Raw           *chain.Receipt
}

type CancelReceipt struct {
	ListingID uint64
	TokenID   uint64
	TxHash    common.Hash
	Raw       *chain.Receipt
}

type WithdrawReceipt struct {
	Recipient common.Address
	Amount    *big.Int
	TxHash    common.Hash
}

// ListingDetails mirrors the contract's listing record.
type ListingDetails struct {
	ListingID uint64
	Seller    common.Address
	TokenID   uint64
	Price     *big.Int
	Active    bool
}

// ListNFT escrows the seller's token with the marketplace, attaching
// the current listing fee, and returns the listing id parsed from the
// Listed event.
func (m *Marketplace) ListNFT(ctx context.Context, seller common.Address, tokenID uint64, price *big.Int) (*ListReceipt, error) {
	if seller == (common.Address{}) {
		return nil, errors.New(errors.CodeValidation, "invalid seller address")
	}
	if price == nil || price.Sign() <= 0 {
		return nil, errors.New(errors.CodeValidation, "price must be greater than 0")
	}

	fee, err := m.ListingFee(ctx)
	if err != nil {
		return nil, err
	}
	receipt, err := m.backend.Submit(chain.Message{From: seller, To: m.contract.Address(), Value: fee}, func(env *chain.Env) error {
		_, err := m.contract.ListNFT(env, tokenID, price)
		return err
	})
	if err != nil {
		if rev := chain.AsRevert(err); rev != nil {
			switch rev.Name {
			case market.ErrInsufficientListingFee:
				return nil, errors.Wrap(errors.CodePaymentRequired, err,
					fmt.Sprintf("insufficient listing fee: %s ETH required", wei.FormatEther(fee)))
			case market.ErrInvalidPrice:
				return nil, errors.Wrap(errors.CodeValidation, err, "price must be greater than 0")
			case market.ErrNotTokenOwner:
				return nil, errors.Wrap(errors.CodeForbidden, err, "caller is not the token owner")
			case market.ErrNotApproved:
				return nil, errors.Wrap(errors.CodeForbidden, err, "marketplace not approved to transfer NFT")
			}
		}
		return nil, submitError("list NFT", err)
	}

	log := receipt.FindLog("Listed")
	if log == nil {
		return nil, missingEvent("Listed")
	}
	listed := log.Data.(market.Listed)

	ctx = m.log.WithTxHash(ctx, receipt.TxHash.Hex())
	m.log.Info(m.log.WithField(ctx, "listing_id", listed.ListingID), "nft listed")

	return &ListReceipt{
		ListingID:   listed.ListingID,
		TokenID:     listed.TokenID,
		Seller:      listed.Seller,
		Price:       listed.Price,
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber,
		Raw:         receipt,
	}, nil
}

// BuyNFT purchases a listing, attaching payment, and returns the fee
// split parsed from the Purchased event.
func (m *Marketplace) BuyNFT(ctx context.Context, buyer common.Address, listingID uint64, payment *big.Int) (*PurchaseReceipt, error) {
	if buyer == (common.Address{}) {
		return nil, errors.New(errors.CodeValidation, "invalid buyer address")
	}
	if payment == nil || payment.Sign() <= 0 {
		return nil, errors.New(errors.CodeValidation, "payment must be greater than 0")
	}

	receipt, err := m.backend.Submit(chain.Message{From: buyer, To: m.contract.Address(), Value: payment}, func(env *chain.Env) error {
		return m.contract.BuyNFT(env, listingID)
	})
	if err != nil {
		if rev := chain.AsRevert(err); rev != nil {
			switch rev.Name {
			case market.ErrListingNotActive:
				return nil, errors.Wrap(errors.CodeStateConflict, err, "listing is not active")
			case market.ErrInsufficientPayment:
				return nil, errors.Wrap(errors.CodePaymentRequired, err, "insufficient payment for the listing price")
			case chain.ErrTransferFailed:
				return nil, errors.Wrap(errors.CodeReverted, err, "failed to transfer funds")
			}
		}
		return nil, submitError("buy NFT", err)
	}

	log := receipt.FindLog("Purchased")
	if log == nil {
		return nil, missingEvent("Purchased")
	}
	purchased := log.Data.(market.Purchased)

	ctx = m.log.WithTxHash(ctx, receipt.TxHash.Hex())
	m.log.Info(m.log.WithField(ctx, "listing_id", purchased.ListingID), "nft purchased")

	return &PurchaseReceipt{
		ListingID:     purchased.ListingID,
		TokenID:       purchased.TokenID,
		Buyer:         purchased.Buyer,
		Price:         purchased.Price,
		RoyaltyAmount: purchased.RoyaltyAmount,
		PlatformFee:   purchased.PlatformFee,
		TxHash:        receipt.TxHash,
		BlockNumber:   receipt.BlockNumber,
		Raw:           receipt,
	}, nil
}

// CancelListing returns the escrowed token to the seller.
func (m *Marketplace) CancelListing(ctx context.Context, seller common.Address, listingID uint64) (*CancelReceipt, error) {
	if seller == (common.Address{}) {
		return nil, errors.New(errors.CodeValidation, "invalid seller address")
	}

	receipt, err := m.backend.Submit(chain.Message{From: seller, To: m.contract.Address()}, func(env *chain.Env) error {
		return m.contract.CancelListing(env, listingID)
	})
	if err != nil {
		if rev := chain.AsRevert(err); rev != nil {
			switch rev.Name {
			case market.ErrListingNotActive:
				return nil, errors.Wrap(errors.CodeStateConflict, err, "listing is not active")
			case market.ErrNotSeller:
				return nil, errors.Wrap(errors.CodeForbidden, err, "caller is not the seller")
			}
		}
		return nil, submitError("cancel listing", err)
	}

	log := receipt.FindLog("Cancelled")
	if log == nil {
		return nil, missingEvent("Cancelled")
	}
	cancelled := log.Data.(market.Cancelled)
	return &CancelReceipt{
		ListingID: cancelled.ListingID,
		TokenID:   cancelled.TokenID,
		TxHash:    receipt.TxHash,
		Raw:       receipt,
	}, nil
}

// SetListingFee is owner-only.
func (m *Marketplace) SetListingFee(ctx context.Context, from common.Address, newFee *big.Int) (common.Hash, error) {
	if newFee == nil || newFee.Sign() < 0 {
		return common.Hash{}, errors.New(errors.CodeValidation, "listing fee must not be negative")
	}
	receipt, err := m.backend.Submit(chain.Message{From: from, To: m.contract.Address()}, func(env *chain.Env) error {
		return m.contract.SetListingFee(env, newFee)
	})
	if err != nil {
		return common.Hash{}, m.adminError("set listing fee", err)
	}
	return receipt.TxHash, nil
}

// SetPlatformFeePercent is owner-only; the contract caps the percent at
// 1000 basis points.
func (m *Marketplace) SetPlatformFeePercent(ctx context.Context, from common.Address, newPercent uint16) (common.Hash, error) {
	receipt, err := m.backend.Submit(chain.Message{From: from, To: m.contract.Address()}, func(env *chain.Env) error {
		return m.contract.SetPlatformFeePercent(env, newPercent)
	})
	if err != nil {
		if rev := chain.AsRevert(err); rev != nil && rev.Name == market.ErrInvalidFeePercent {
			return common.Hash{}, errors.Wrap(errors.CodeValidation, err, "platform fee must not exceed 1000 basis points")
		}
		return common.Hash{}, m.adminError("set platform fee", err)
	}
	return receipt.TxHash, nil
}

// Withdraw sends the accumulated platform fees to the contract owner.
func (m *Marketplace) Withdraw(ctx context.Context, from common.Address) (*WithdrawReceipt, error) {
	receipt, err := m.backend.Submit(chain.Message{From: from, To: m.contract.Address()}, func(env *chain.Env) error {
		return m.contract.Withdraw(env)
	})
	if err != nil {
		if rev := chain.AsRevert(err); rev != nil && rev.Name == market.ErrNoFundsToWithdraw {
			return nil, errors.Wrap(errors.CodeStateConflict, err, "no funds to withdraw")
		}
		return nil, m.adminError("withdraw funds", err)
	}

	log := receipt.FindLog("FundsWithdrawn")
	if log == nil {
		return nil, missingEvent("FundsWithdrawn")
	}
	withdrawn := log.Data.(market.FundsWithdrawn)
	return &WithdrawReceipt{
		Recipient: withdrawn.Recipient,
		Amount:    withdrawn.Amount,
		TxHash:    receipt.TxHash,
	}, nil
}

func (m *Marketplace) adminError(action string, err error) error {
	if rev := chain.AsRevert(err); rev != nil && rev.Name == market.ErrUnauthorizedAccount {
		return errors.Wrap(errors.CodeForbidden, err, "caller is not the contract owner")
	}
	return submitError(action, err)
}

// GetListingDetails returns the stored listing record. Unknown ids
// resolve to all-zero details with Active false, matching the contract.
func (m *Marketplace) GetListingDetails(ctx context.Context, listingID uint64) (*ListingDetails, error) {
	details := &ListingDetails{ListingID: listingID}
	err := m.backend.View(m.contract.Address(), func(env *chain.Env) error {
		listing := m.contract.GetListingDetails(env, listingID)
		details.Seller = listing.Seller
		details.TokenID = listing.TokenID
		details.Price = listing.Price
		details.Active = listing.Active
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "failed to get listing details")
	}
	return details, nil
}

// CheckIfTokenIsListed reports the most recent listing for a token and
// whether it is still active.
func (m *Marketplace) CheckIfTokenIsListed(ctx context.Context, tokenID uint64) (uint64, bool, error) {
	var (
		listingID uint64
		isListed  bool
	)
	err := m.backend.View(m.contract.Address(), func(env *chain.Env) error {
		listingID, isListed = m.contract.CheckIfTokenIsListed(env, tokenID)
		return nil
	})
	if err != nil {
		return 0, false, errors.Wrap(errors.CodeInternal, err, "failed to check token listing")
	}
	return listingID, isListed, nil
}

// ListingFee returns the fee a seller must attach to list.
func (m *Marketplace) ListingFee(ctx context.Context) (*big.Int, error) {
	var fee *big.Int
	err := m.backend.View(m.contract.Address(), func(env *chain.Env) error {
		fee = m.contract.ListingFee(env)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "failed to get listing fee")
	}
	return fee, nil
}

// PlatformFeePercent returns the platform cut in basis points.
func (m *Marketplace) PlatformFeePercent(ctx context.Context) (uint16, error) {
	var percent uint16
	err := m.backend.View(m.contract.Address(), func(env *chain.Env) error {
		percent = m.contract.PlatformFeePercent(env)
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(errors.CodeInternal, err, "failed to get platform fee")
	}
	return percent, nil
}
