package controllers

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/RodgersChayuga/hekaheka-backend/api/responses"
	"github.com/RodgersChayuga/hekaheka-backend/api/validators"
	"github.com/RodgersChayuga/hekaheka-backend/internal/bindings"
	pkgerrors "github.com/RodgersChayuga/hekaheka-backend/pkg/errors"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/logger"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/metrics"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/wei"
)

// AdminDeps groups the collaborators the owner-only endpoints need. The
// contracts enforce ownership themselves, so these handlers just relay
// the caller address.
type AdminDeps struct {
	NFT     *bindings.ComicNFT
	Market  *bindings.Marketplace
	Metrics *metrics.ChainMetrics
}

type setListingFeeRequest struct {
	FromAddress string `json:"from_address" validate:"required,eth_addr"`
	NewFeeWei   string `json:"new_fee_wei" validate:"required"`
}

// SetListingFee updates the flat fee charged on every listing.
func SetListingFee(deps AdminDeps, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Market == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "marketplace binding unavailable"))
			return
		}

		var payload setListingFeeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		newFee, err := parseWei(payload.NewFeeWei, "new_fee_wei")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		start := time.Now()
		txHash, err := deps.Market.SetListingFee(r.Context(), common.HexToAddress(payload.FromAddress), newFee)
		observeTx(deps.Metrics, "comic_marketplace", "set_listing_fee", start, err)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"tx_hash":         txHash.Hex(),
			"listing_fee_wei": newFee.String(),
			"listing_fee_eth": wei.FormatEther(newFee),
		})
	}
}

type setPlatformFeeRequest struct {
	FromAddress string `json:"from_address" validate:"required,eth_addr"`
	NewPercent  uint16 `json:"new_percent" validate:"lte=1000"`
}

// SetPlatformFee updates the basis-point cut taken from every sale.
func SetPlatformFee(deps AdminDeps, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Market == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "marketplace binding unavailable"))
			return
		}

		var payload setPlatformFeeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		start := time.Now()
		txHash, err := deps.Market.SetPlatformFeePercent(r.Context(), common.HexToAddress(payload.FromAddress), payload.NewPercent)
		observeTx(deps.Metrics, "comic_marketplace", "set_platform_fee_percent", start, err)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"tx_hash":          txHash.Hex(),
			"platform_fee_bps": payload.NewPercent,
		})
	}
}

type withdrawRequest struct {
	FromAddress string `json:"from_address" validate:"required,eth_addr"`
}

type withdrawResponse struct {
	Recipient string `json:"recipient"`
	AmountWei string `json:"amount_wei"`
	AmountETH string `json:"amount_eth"`
	TxHash    string `json:"tx_hash"`
}

// WithdrawMarketplaceFunds drains accumulated listing and platform fees
// to the marketplace owner.
func WithdrawMarketplaceFunds(deps AdminDeps, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Market == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "marketplace binding unavailable"))
			return
		}

		var payload withdrawRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		start := time.Now()
		receipt, err := deps.Market.Withdraw(r.Context(), common.HexToAddress(payload.FromAddress))
		observeTx(deps.Metrics, "comic_marketplace", "withdraw", start, err)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, withdrawResponse{
			Recipient: receipt.Recipient.Hex(),
			AmountWei: receipt.Amount.String(),
			AmountETH: wei.FormatEther(receipt.Amount),
			TxHash:    receipt.TxHash.Hex(),
		})
	}
}

// WithdrawMintFees drains accumulated mint fees to the NFT contract owner.
func WithdrawMintFees(deps AdminDeps, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.NFT == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "nft binding unavailable"))
			return
		}

		var payload withdrawRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		start := time.Now()
		receipt, err := deps.NFT.Withdraw(r.Context(), common.HexToAddress(payload.FromAddress))
		observeTx(deps.Metrics, "comic_nft", "withdraw", start, err)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, withdrawResponse{
			Recipient: receipt.Recipient.Hex(),
			AmountWei: receipt.Amount.String(),
			AmountETH: wei.FormatEther(receipt.Amount),
			TxHash:    receipt.TxHash.Hex(),
		})
	}
}
