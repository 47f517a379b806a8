package controllers

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/RodgersChayuga/hekaheka-backend/api/responses"
	"github.com/RodgersChayuga/hekaheka-backend/api/validators"
	"github.com/RodgersChayuga/hekaheka-backend/internal/bindings"
	"github.com/RodgersChayuga/hekaheka-backend/internal/index"
	pkgerrors "github.com/RodgersChayuga/hekaheka-backend/pkg/errors"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/logger"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/metrics"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/pagination"
)

// ComicDeps groups the collaborators the comic endpoints need.
type ComicDeps struct {
	NFT     *bindings.ComicNFT
	Index   *index.Service
	Metrics *metrics.ChainMetrics
}

type mintComicRequest struct {
	CreatorAddress string `json:"creator_address" validate:"required,eth_addr"`
	MetadataURI    string `json:"metadata_uri" validate:"required"`
	RoyaltyBps     uint16 `json:"royalty_bps" validate:"lte=1000"`
}

type mintComicResponse struct {
	TokenID     uint64 `json:"token_id"`
	Creator     string `json:"creator"`
	TokenURI    string `json:"token_uri"`
	RoyaltyBps  uint16 `json:"royalty_bps"`
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
}

// MintComic submits a mint transaction and waits for its receipt.
func MintComic(deps ComicDeps, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.NFT == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "nft binding unavailable"))
			return
		}

		var payload mintComicRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		start := time.Now()
		receipt, err := deps.NFT.MintComic(r.Context(), common.HexToAddress(payload.CreatorAddress), payload.MetadataURI, payload.RoyaltyBps)
		observeTx(deps.Metrics, "comic_nft", "mint_comic", start, err)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		project(r.Context(), deps.Index, logg, receipt.Raw)

		responses.WriteSuccessStatus(w, http.StatusCreated, mintComicResponse{
			TokenID:     receipt.TokenID,
			Creator:     receipt.Creator.Hex(),
			TokenURI:    receipt.TokenURI,
			RoyaltyBps:  receipt.RoyaltyBps,
			TxHash:      receipt.TxHash.Hex(),
			BlockNumber: receipt.BlockNumber,
		})
	}
}

type approveRequest struct {
	OwnerAddress    string `json:"owner_address" validate:"required,eth_addr"`
	OperatorAddress string `json:"operator_address" validate:"required,eth_addr"`
	Approved        bool   `json:"approved"`
}

// ApproveOperator grants or revokes marketplace transfer rights for
// every token the owner holds.
func ApproveOperator(deps ComicDeps, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.NFT == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "nft binding unavailable"))
			return
		}

		var payload approveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		start := time.Now()
		txHash, err := deps.NFT.SetApprovalForAll(r.Context(),
			common.HexToAddress(payload.OwnerAddress),
			common.HexToAddress(payload.OperatorAddress),
			payload.Approved)
		observeTx(deps.Metrics, "comic_nft", "set_approval_for_all", start, err)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"tx_hash":  txHash.Hex(),
			"approved": payload.Approved,
		})
	}
}

// ListComics pages through the indexed comics, optionally filtered by
// creator or current owner.
func ListComics(deps ComicDeps, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Index == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "index service unavailable"))
			return
		}

		creator, err := validators.ParseQueryAddress(r, "creator")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		owner, err := validators.ParseQueryAddress(r, "owner")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := deps.Index.ListComics(r.Context(), index.ComicFilter{Creator: creator, Owner: owner}, pagination.Params{
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

// GetComic returns the indexed row for one token.
func GetComic(deps ComicDeps, logg *logger.Logger) http.HandlerFunc {
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

		comic, err := deps.Index.GetComic(r.Context(), tokenID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, comic)
	}
}

type tokenDetailsResponse struct {
	TokenID    uint64 `json:"token_id"`
	Owner      string `json:"owner"`
	Creator    string `json:"creator"`
	TokenURI   string `json:"token_uri"`
	RoyaltyBps uint16 `json:"royalty_bps"`
}

// GetComicOnChain reads the token state straight from the contract,
// bypassing the index.
func GetComicOnChain(deps ComicDeps, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.NFT == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "nft binding unavailable"))
			return
		}

		tokenID, err := validators.ParsePathUint64(chi.URLParam(r, "token_id"), "token_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		details, err := deps.NFT.GetTokenDetails(r.Context(), tokenID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tokenDetailsResponse{
			TokenID:    details.TokenID,
			Owner:      details.Owner.Hex(),
			Creator:    details.Creator.Hex(),
			TokenURI:   details.TokenURI,
			RoyaltyBps: details.RoyaltyBps,
		})
	}
}

// GetComicHistory lists the recorded sales for one token, newest first.
func GetComicHistory(deps ComicDeps, logg *logger.Logger) http.HandlerFunc {
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

		sales, err := deps.Index.GetSaleHistory(r.Context(), tokenID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"token_id": tokenID, "sales": sales})
	}
}
