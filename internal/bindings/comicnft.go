// Package bindings is the client surface over the deployed contracts:
// it validates inputs, submits transactions, waits on receipts, parses
// the emitted events into typed results, and maps contract reverts to
// the application's error codes.
package bindings

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/RodgersChayuga/hekaheka-backend/internal/chain"
	"github.com/RodgersChayuga/hekaheka-backend/internal/nft"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/errors"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/logger"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/wei"
)

// MetadataURIPrefix is the only URI scheme accepted for comic metadata.
const MetadataURIPrefix = "ipfs://"

type ComicNFT struct {
	backend  *chain.Backend
	contract *nft.Contract
	log      *logger.Logger
}

func NewComicNFT(backend *chain.Backend, contract *nft.Contract, log *logger.Logger) *ComicNFT {
	return &ComicNFT{backend: backend, contract: contract, log: log}
}

func (c *ComicNFT) Address() common.Address { return c.contract.Address() }

// MintReceipt is the parsed outcome of a successful mint.
type MintReceipt struct {
	TokenID     uint64
	Creator     common.Address
	TokenURI    string
	RoyaltyBps  uint16
	TxHash      common.Hash
	BlockNumber uint64
	Raw         *chain.Receipt
}

// TokenDetails aggregates the per-token views.
type TokenDetails struct {
	TokenID    uint64
	Owner      common.Address
	Creator    common.Address
	TokenURI   string
	RoyaltyBps uint16
}

// MintComic mints a comic for the creator, attaching the current mint
// fee, and returns the token id parsed from the ComicMinted event.
func (c *ComicNFT) MintComic(ctx context.Context, creator common.Address, metadataURI string, royaltyBps uint16) (*MintReceipt, error) {
	if creator == (common.Address{}) {
		return nil, errors.New(errors.CodeValidation, "invalid creator address")
	}
	if !strings.HasPrefix(metadataURI, MetadataURIPrefix) {
		return nil, errors.New(errors.CodeValidation, "metadata URI must start with ipfs://")
	}
	if royaltyBps > nft.MaxRoyaltyBps {
		return nil, errors.New(errors.CodeValidation, "royalty must not exceed 10% (1000 basis points)")
	}

	fee := c.contract.MintFee()
	receipt, err := c.backend.Submit(chain.Message{From: creator, To: c.contract.Address(), Value: fee}, func(env *chain.Env) error {
		_, err := c.contract.MintComic(env, metadataURI, royaltyBps)
		return err
	})
	if err != nil {
		if rev := chain.AsRevert(err); rev != nil {
			switch rev.Name {
			case nft.ErrInsufficientMintingFee:
				return nil, errors.Wrap(errors.CodePaymentRequired, err,
					fmt.Sprintf("insufficient minting fee: %s ETH required", wei.FormatEther(fee)))
			case nft.ErrInvalidRoyalty:
				return nil, errors.Wrap(errors.CodeValidation, err, "royalty must not exceed 10% (1000 basis points)")
			case nft.ErrEmptyTokenURI:
				return nil, errors.Wrap(errors.CodeValidation, err, "token URI cannot be empty")
			}
		}
		return nil, submitError("mint comic", err)
	}

	log := receipt.FindLog("ComicMinted")
	if log == nil {
		return nil, missingEvent("ComicMinted")
	}
	minted := log.Data.(nft.ComicMinted)

	ctx = c.log.WithTxHash(ctx, receipt.TxHash.Hex())
	c.log.Info(c.log.WithField(ctx, "token_id", minted.TokenID), "comic minted")

	return &MintReceipt{
		TokenID:     minted.TokenID,
		Creator:     minted.Creator,
		TokenURI:    minted.TokenURI,
		RoyaltyBps:  minted.Royalty,
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber,
		Raw:         receipt,
	}, nil
}

// SetApprovalForAll grants or revokes operator rights for every token
// the owner holds. The marketplace is approved this way before listing.
func (c *ComicNFT) SetApprovalForAll(ctx context.Context, owner, operator common.Address, approved bool) (common.Hash, error) {
	receipt, err := c.backend.Submit(chain.Message{From: owner, To: c.contract.Address()}, func(env *chain.Env) error {
		return c.contract.SetApprovalForAll(env, operator, approved)
	})
	if err != nil {
		return common.Hash{}, submitError("set approval", err)
	}
	return receipt.TxHash, nil
}

// Withdraw sends the accumulated mint fees to the contract owner and
// returns the withdrawn amount.
func (c *ComicNFT) Withdraw(ctx context.Context, from common.Address) (*WithdrawReceipt, error) {
	receipt, err := c.backend.Submit(chain.Message{From: from, To: c.contract.Address()}, func(env *chain.Env) error {
		return c.contract.Withdraw(env)
	})
	if err != nil {
		if rev := chain.AsRevert(err); rev != nil {
			switch rev.Name {
			case nft.ErrUnauthorizedAccount:
				return nil, errors.Wrap(errors.CodeForbidden, err, "caller is not the contract owner")
			case nft.ErrNoFundsToWithdraw:
				return nil, errors.Wrap(errors.CodeStateConflict, err, "no funds to withdraw")
			}
		}
		return nil, submitError("withdraw funds", err)
	}

	log := receipt.FindLog("FundsWithdrawn")
	if log == nil {
		return nil, missingEvent("FundsWithdrawn")
	}
	withdrawn := log.Data.(nft.FundsWithdrawn)
	return &WithdrawReceipt{
		Recipient: withdrawn.Recipient,
		Amount:    withdrawn.Amount,
		TxHash:    receipt.TxHash,
	}, nil
}

// GetTokenDetails resolves every per-token view in one chain read.
func (c *ComicNFT) GetTokenDetails(ctx context.Context, tokenID uint64) (*TokenDetails, error) {
	details := &TokenDetails{TokenID: tokenID}
	err := c.backend.View(c.contract.Address(), func(env *chain.Env) error {
		var err error
		if details.Owner, err = c.contract.OwnerOf(env, tokenID); err != nil {
			return err
		}
		if details.Creator, err = c.contract.GetCreator(env, tokenID); err != nil {
			return err
		}
		if details.TokenURI, err = c.contract.TokenURI(env, tokenID); err != nil {
			return err
		}
		details.RoyaltyBps, err = c.contract.GetRoyaltyPercentage(env, tokenID)
		return err
	})
	if err != nil {
		if rev := chain.AsRevert(err); rev != nil {
			return nil, errors.Wrap(errors.CodeNotFound, err, fmt.Sprintf("token %d does not exist", tokenID))
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "failed to get token details")
	}
	return details, nil
}

// TokenCounter returns the number of minted tokens.
func (c *ComicNFT) TokenCounter(ctx context.Context) (uint64, error) {
	var counter uint64
	err := c.backend.View(c.contract.Address(), func(env *chain.Env) error {
		counter = c.contract.GetTokenCounter(env)
		return nil
	})
	return counter, err
}

// OwnerOf returns the current holder of a token.
func (c *ComicNFT) OwnerOf(ctx context.Context, tokenID uint64) (common.Address, error) {
	var owner common.Address
	err := c.backend.View(c.contract.Address(), func(env *chain.Env) error {
		var err error
		owner, err = c.contract.OwnerOf(env, tokenID)
		return err
	})
	if err != nil {
		if rev := chain.AsRevert(err); rev != nil {
			return common.Address{}, errors.Wrap(errors.CodeNotFound, err, fmt.Sprintf("token %d does not exist", tokenID))
		}
		return common.Address{}, errors.Wrap(errors.CodeInternal, err, "failed to get token owner")
	}
	return owner, nil
}
