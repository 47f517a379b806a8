package index

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RodgersChayuga/hekaheka-backend/internal/chain"
	"github.com/RodgersChayuga/hekaheka-backend/internal/market"
	"github.com/RodgersChayuga/hekaheka-backend/internal/nft"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/db"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/db/models"
	dbtypes "github.com/RodgersChayuga/hekaheka-backend/pkg/db/types"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/enums"
	pkgerrors "github.com/RodgersChayuga/hekaheka-backend/pkg/errors"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/logger"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/pagination"
)

// ListingCache is the subset of the redis client the projection needs.
// A nil cache disables caching entirely.
type ListingCache interface {
	CacheListing(ctx context.Context, listingID uint64, payload string, ttl time.Duration) error
	GetCachedListing(ctx context.Context, listingID uint64) (string, error)
	InvalidateListing(ctx context.Context, listingID, tokenID uint64) error
}

// Service folds receipts into the projection and serves read queries.
type Service struct {
	client   *db.Client
	repo     *Repository
	cache    ListingCache
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewService builds the projection service. cache may be nil.
func NewService(client *db.Client, cache ListingCache, cacheTTL time.Duration, log *logger.Logger) *Service {
	return &Service{
		client:   client,
		repo:     NewRepository(client.DB()),
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// Migrate creates the projection tables.
func (s *Service) Migrate() error {
	return s.client.DB().AutoMigrate(&models.Comic{}, &models.Listing{}, &models.Sale{})
}

// ApplyReceipt folds every event of a successful receipt into the
// projection in one database transaction. Failed receipts carry no logs
// and are skipped.
func (s *Service) ApplyReceipt(ctx context.Context, receipt *chain.Receipt) error {
	if receipt == nil || receipt.Status != chain.ReceiptStatusSuccessful || len(receipt.Logs) == 0 {
		return nil
	}

	type invalidation struct {
		listingID uint64
		tokenID   uint64
	}
	var stale []invalidation

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, eventLog := range receipt.Logs {
			switch ev := eventLog.Data.(type) {
			case nft.ComicMinted:
				comic := &models.Comic{
					TokenID:    ev.TokenID,
					Creator:    ev.Creator.Hex(),
					Owner:      ev.Creator.Hex(),
					TokenURI:   ev.TokenURI,
					RoyaltyBps: ev.Royalty,
					MintTxHash: receipt.TxHash.Hex(),
					MintBlock:  receipt.BlockNumber,
				}
				if err := repo.CreateComic(ctx, comic); err != nil {
					return err
				}

			case nft.Transfer:
				// The mint transfer is covered by ComicMinted above.
				if ev.From == (common.Address{}) {
					continue
				}
				if err := repo.UpdateComicOwner(ctx, ev.TokenID, ev.To.Hex()); err != nil {
					return err
				}

			case market.Listed:
				listing := &models.Listing{
					ListingID:  ev.ListingID,
					TokenID:    ev.TokenID,
					Seller:     ev.Seller.Hex(),
					PriceWei:   dbtypes.NewWei(ev.Price),
					Status:     enums.ListingStatusActive,
					ListTxHash: receipt.TxHash.Hex(),
					ListBlock:  receipt.BlockNumber,
				}
				if err := repo.CreateListing(ctx, listing); err != nil {
					return err
				}

			case market.Purchased:
				listing, err := repo.GetListing(ctx, ev.ListingID)
				if err != nil {
					return err
				}
				if err := repo.UpdateListingStatus(ctx, ev.ListingID, enums.ListingStatusSold); err != nil {
					return err
				}
				sale := &models.Sale{
					ID:             uuid.New(),
					ListingID:      ev.ListingID,
					TokenID:        ev.TokenID,
					Seller:         listing.Seller,
					Buyer:          ev.Buyer.Hex(),
					PriceWei:       dbtypes.NewWei(ev.Price),
					RoyaltyWei:     dbtypes.NewWei(ev.RoyaltyAmount),
					PlatformFeeWei: dbtypes.NewWei(ev.PlatformFee),
					TxHash:         receipt.TxHash.Hex(),
					Block:          receipt.BlockNumber,
				}
				if err := repo.CreateSale(ctx, sale); err != nil {
					return err
				}
				stale = append(stale, invalidation{listingID: ev.ListingID, tokenID: ev.TokenID})

			case market.Cancelled:
				if err := repo.UpdateListingStatus(ctx, ev.ListingID, enums.ListingStatusCancelled); err != nil {
					return err
				}
				stale = append(stale, invalidation{listingID: ev.ListingID, tokenID: ev.TokenID})
			}
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "applying receipt to projection")
	}

	// Cache entries are dropped after commit so readers never resurrect
	// a sold or cancelled listing.
	if s.cache != nil {
		for _, inv := range stale {
			if err := s.cache.InvalidateListing(ctx, inv.listingID, inv.tokenID); err != nil {
				s.log.Warn(s.log.WithField(ctx, "listing_id", inv.listingID), "listing cache invalidation failed")
			}
		}
	}
	return nil
}

// GetComic returns one comic or CodeNotFound.
func (s *Service) GetComic(ctx context.Context, tokenID uint64) (*ComicDTO, error) {
	comic, err := s.repo.GetComic(ctx, tokenID)
	if err != nil {
		if err == ErrNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "comic not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading comic")
	}
	dto := comicDTO(comic)
	return &dto, nil
}

// ListComics pages through indexed comics.
func (s *Service) ListComics(ctx context.Context, filter ComicFilter, params pagination.Params) (*ComicListResult, error) {
	comics, next, err := s.repo.ListComics(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing comics")
	}
	result := &ComicListResult{Comics: make([]ComicDTO, 0, len(comics)), NextCursor: next}
	for i := range comics {
		result.Comics = append(result.Comics, comicDTO(&comics[i]))
	}
	return result, nil
}

// GetListing returns one listing, served from cache when possible.
func (s *Service) GetListing(ctx context.Context, listingID uint64) (*ListingDTO, error) {
	if s.cache != nil {
		if payload, err := s.cache.GetCachedListing(ctx, listingID); err == nil && payload != "" {
			var dto ListingDTO
			if err := json.Unmarshal([]byte(payload), &dto); err == nil {
				return &dto, nil
			}
		}
	}

	listing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		if err == ErrNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading listing")
	}
	dto := listingDTO(listing)

	if s.cache != nil {
		if payload, err := json.Marshal(dto); err == nil {
			if err := s.cache.CacheListing(ctx, listingID, string(payload), s.cacheTTL); err != nil {
				s.log.Warn(s.log.WithField(ctx, "listing_id", listingID), "listing cache write failed")
			}
		}
	}
	return &dto, nil
}

// GetActiveListingByToken finds the live listing for a token.
func (s *Service) GetActiveListingByToken(ctx context.Context, tokenID uint64) (*ListingDTO, error) {
	listing, err := s.repo.GetActiveListingByToken(ctx, tokenID)
	if err != nil {
		if err == ErrNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active listing for token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading active listing")
	}
	dto := listingDTO(listing)
	return &dto, nil
}

// ListListings pages through indexed listings.
func (s *Service) ListListings(ctx context.Context, filter ListingFilter, params pagination.Params) (*ListingListResult, error) {
	listings, next, err := s.repo.ListListings(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing listings")
	}
	result := &ListingListResult{Listings: make([]ListingDTO, 0, len(listings)), NextCursor: next}
	for i := range listings {
		result.Listings = append(result.Listings, listingDTO(&listings[i]))
	}
	return result, nil
}

// GetSaleHistory returns the purchases recorded for a token, newest first.
func (s *Service) GetSaleHistory(ctx context.Context, tokenID uint64) ([]SaleDTO, error) {
	sales, err := s.repo.ListSalesByToken(ctx, tokenID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading sale history")
	}
	dtos := make([]SaleDTO, 0, len(sales))
	for i := range sales {
		dtos = append(dtos, saleDTO(&sales[i]))
	}
	return dtos, nil
}
