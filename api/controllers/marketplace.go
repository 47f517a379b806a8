package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/RodgersChayuga/hekaheka-backend/api/responses"
	"github.com/RodgersChayuga/hekaheka-backend/api/validators"
	"github.com/RodgersChayuga/hekaheka-backend/internal/bindings"
	"github.com/RodgersChayuga/hekaheka-backend/internal/index"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/enums"
	pkgerrors "github.com/RodgersChayuga/hekaheka-backend/pkg/errors"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/logger"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/metrics"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/pagination"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/wei"
)

// MarketDeps groups the collaborators the marketplace endpoints need.
type MarketDeps struct {
	Market  *bindings.Marketplace
	Index   *index.Service
	Metrics *metrics.ChainMetrics
}

type createListingRequest struct {
	SellerAddress string `json:"seller_address" validate:"required,eth_addr"`
	TokenID       uint64 `json:"token_id"`
	PriceWei      string `json:"price_wei" validate:"required"`
}

type listingResponse struct {
	ListingID   uint64 `json:"listing_id"`
	TokenID     uint64 `json:"token_id"`
	Seller      string `json:"seller"`
	PriceWei    string `json:"price_wei"`
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
}

// CreateListing escrows a token with the marketplace at a fixed price.
func CreateListing(deps MarketDeps, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Market == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "marketplace binding unavailable"))
			return
		}

		var payload createListingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := parseWei(payload.PriceWei, "price_wei")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		start := time.Now()
		receipt, err := deps.Market.ListNFT(r.Context(), common.HexToAddress(payload.SellerAddress), payload.TokenID, price)
		observeTx(deps.Metrics, "comic_marketplace", "list_nft", start, err)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		project(r.Context(), deps.Index, logg, receipt.Raw)

		responses.WriteSuccessStatus(w, http.StatusCreated, listingResponse{
			ListingID:   receipt.ListingID,
			TokenID:     receipt.TokenID,
			Seller:      receipt.Seller.Hex(),
			PriceWei:    receipt.Price.String(),
			TxHash:      receipt.TxHash.Hex(),
			BlockNumber: receipt.BlockNumber,
		})
	}
}

type buyListingRequest struct {
	BuyerAddress string `json:"buyer_address" validate:"required,eth_addr"`
	PaymentWei   string `json:"payment_wei" validate:"required"`
}

type purchaseResponse struct {
	ListingID      uint64 `json:"listing_id"`
	TokenID        uint64 `json:"token_id"`
	Buyer          string `json:"buyer"`
	PriceWei       string `json:"price_wei"`
	RoyaltyWei     string `json:"royalty_wei"`
	PlatformFeeWei string `json:"platform_fee_wei"`
	TxHash         string `json:"tx_hash"`
	BlockNumber    uint64 `json:"block_number"`
}

// BuyListing purchases an active listing.
func BuyListing(deps MarketDeps, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Market == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "marketplace binding unavailable"))
			return
		}

		listingID, err := validators.ParsePathUint64(chi.URLParam(r, "listing_id"), "listing_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload buyListingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := parseWei(payload.PaymentWei, "payment_wei")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		start := time.Now()
		receipt, err := deps.Market.BuyNFT(r.Context(), common.HexToAddress(payload.BuyerAddress), listingID, payment)
		observeTx(deps.Metrics, "comic_marketplace", "buy_nft", start, err)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		project(r.Context(), deps.Index, logg, receipt.Raw)

		responses.WriteSuccess(w, purchaseResponse{
			ListingID:      receipt.ListingID,
			TokenID:        receipt.TokenID,
			Buyer:          receipt.Buyer.Hex(),
			PriceWei:       receipt.Price.String(),
			RoyaltyWei:     receipt.RoyaltyAmount.String(),
			PlatformFeeWei: receipt.PlatformFee.String(),
			TxHash:         receipt.TxHash.Hex(),
			BlockNumber:    receipt.BlockNumber,
		})
	}
}

type cancelListingRequest struct {
	SellerAddress string `json:"seller_address" validate:"required,eth_addr"`
}

// CancelListing returns the escrowed token to its seller.
func CancelListing(deps MarketDeps, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Market == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "marketplace binding unavailable"))
			return
		}

		listingID, err := validators.ParsePathUint64(chi.URLParam(r, "listing_id"), "listing_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelListingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		start := time.Now()
		receipt, err := deps.Market.CancelListing(r.Context(), common.HexToAddress(payload.SellerAddress), listingID)
		observeTx(deps.Metrics, "comic_marketplace", "cancel_listing", start, err)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		project(r.Context(), deps.Index, logg, receipt.Raw)

		responses.WriteSuccess(w, map[string]any{
			"listing_id": receipt.ListingID,
			"token_id":   receipt.TokenID,
			"tx_hash":    receipt.TxHash.Hex(),
		})
	}
}

// GetListings pages through indexed listings, optionally filtered by
// status or seller.
func GetListings(deps MarketDeps, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Index == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "index service unavailable"))
			return
		}

		filter := index.ListingFilter{}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseListingStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter.Status = status
		}
		seller, err := validators.ParseQueryAddress(r, "seller")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Seller = seller

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := deps.Index.ListListings(r.Context(), filter, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// GetListing returns one indexed listing by id.
func GetListing(deps MarketDeps, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Index == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "index service unavailable"))
			return
		}

		listingID, err := validators.ParsePathUint64(chi.URLParam(r, "listing_id"), "listing_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := deps.Index.GetListing(r.Context(), listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listing)
	}
}

// GetTokenListing resolves the active listing for a token, if any.
func GetTokenListing(deps MarketDeps, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Index == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "index service unavailable"))
			return
		}

		tokenID, err := validators.ParsePathUint64(chi.URLParam(r, "token_id"), "token_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := deps.Index.GetActiveListingByToken(r.Context(), tokenID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listing)
	}
}

// GetFees reports the marketplace's current fee configuration from the
// contract views.
func GetFees(deps MarketDeps, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Market == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "marketplace binding unavailable"))
			return
		}

		listingFee, err := deps.Market.ListingFee(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		feePercent, err := deps.Market.PlatformFeePercent(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"listing_fee_wei":  listingFee.String(),
			"listing_fee_eth":  wei.FormatEther(listingFee),
			"platform_fee_bps": feePercent,
		})
	}
}
