package index

import (
	"time"

	"github.com/RodgersChayuga/hekaheka-backend/pkg/db/models"
)

// ComicDTO is the API-facing projection of one minted token.
type ComicDTO struct {
	TokenID    uint64    `json:"token_id"`
	Creator    string    `json:"creator"`
	Owner      string    `json:"owner"`
	TokenURI   string    `json:"token_uri"`
	RoyaltyBps uint16    `json:"royalty_bps"`
	MintTxHash string    `json:"mint_tx_hash"`
	MintBlock  uint64    `json:"mint_block"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListingDTO is the API-facing projection of one listing.
type ListingDTO struct {
	ListingID  uint64    `json:"listing_id"`
	TokenID    uint64    `json:"token_id"`
	Seller     string    `json:"seller"`
	PriceWei   string    `json:"price_wei"`
	Status     string    `json:"status"`
	ListTxHash string    `json:"list_tx_hash"`
	CreatedAt  time.Time `json:"created_at"`
}

// SaleDTO is one completed purchase with its fee split.
type SaleDTO struct {
	ListingID      uint64    `json:"listing_id"`
	TokenID        uint64    `json:"token_id"`
	Seller         string    `json:"seller"`
	Buyer          string    `json:"buyer"`
	PriceWei       string    `json:"price_wei"`
	RoyaltyWei     string    `json:"royalty_wei"`
	PlatformFeeWei string    `json:"platform_fee_wei"`
	TxHash         string    `json:"tx_hash"`
	Block          uint64    `json:"block"`
	CreatedAt      time.Time `json:"created_at"`
}

// ComicListResult pairs one page of comics with the follow-up cursor.
type ComicListResult struct {
	Comics     []ComicDTO `json:"comics"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// ListingListResult pairs one page of listings with the follow-up cursor.
type ListingListResult struct {
	Listings   []ListingDTO `json:"listings"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func comicDTO(comic *models.Comic) ComicDTO {
	return ComicDTO{
		TokenID:    comic.TokenID,
		Creator:    comic.Creator,
		Owner:      comic.Owner,
		TokenURI:   comic.TokenURI,
		RoyaltyBps: comic.RoyaltyBps,
		MintTxHash: comic.MintTxHash,
		MintBlock:  comic.MintBlock,
		CreatedAt:  comic.CreatedAt,
	}
}

func listingDTO(listing *models.Listing) ListingDTO {
	return ListingDTO{
		ListingID:  listing.ListingID,
		TokenID:    listing.TokenID,
		Seller:     listing.Seller,
		PriceWei:   listing.PriceWei.String(),
		Status:     string(listing.Status),
		ListTxHash: listing.ListTxHash,
		CreatedAt:  listing.CreatedAt,
	}
}

func saleDTO(sale *models.Sale) SaleDTO {
	return SaleDTO{
		ListingID:      sale.ListingID,
		TokenID:        sale.TokenID,
		Seller:         sale.Seller,
		Buyer:          sale.Buyer,
		PriceWei:       sale.PriceWei.String(),
		RoyaltyWei:     sale.RoyaltyWei.String(),
		PlatformFeeWei: sale.PlatformFeeWei.String(),
		TxHash:         sale.TxHash,
		Block:          sale.Block,
		CreatedAt:      sale.CreatedAt,
	}
}
