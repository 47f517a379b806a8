// Package index maintains the off-chain projection of contract state:
// every mined receipt is folded into comics, listings, and sales rows so
// the HTTP API can answer queries without replaying chain history.
package index

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/RodgersChayuga/hekaheka-backend/pkg/db"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/db/models"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/enums"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/pagination"
)

// Repository wires together the projection's persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ErrNotFound reports a missing projection row.
var ErrNotFound = errors.New("record not found")

// CreateComic inserts the projection row for a freshly minted token.
func (r *Repository) CreateComic(ctx context.Context, comic *models.Comic) error {
	return r.db.WithContext(ctx).Create(comic).Error
}

// UpdateComicOwner moves ownership after a Transfer event.
func (r *Repository) UpdateComicOwner(ctx context.Context, tokenID uint64, owner string) error {
	return r.db.WithContext(ctx).
		Model(&models.Comic{}).
		Where("token_id = ?", tokenID).
		Update("owner", owner).
		Error
}

// GetComic loads one comic row.
func (r *Repository) GetComic(ctx context.Context, tokenID uint64) (*models.Comic, error) {
	var comic models.Comic
	if err := r.db.WithContext(ctx).First(&comic, "token_id = ?", tokenID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &comic, nil
}

// ComicFilter narrows ListComics results.
type ComicFilter struct {
	Creator string
	Owner   string
}

// ListComics pages through comics ordered by token id. The cursor is the
// last token id of the previous page.
func (r *Repository) ListComics(ctx context.Context, filter ComicFilter, params pagination.Params) ([]models.Comic, string, error) {
	query := r.db.WithContext(ctx).Model(&models.Comic{}).Order("token_id ASC")
	if filter.Creator != "" {
		query = query.Where("creator = ?", filter.Creator)
	}
	if filter.Owner != "" {
		query = query.Where("owner = ?", filter.Owner)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where("token_id > ?", cursor.Seq)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var comics []models.Comic
	if err := query.Limit(pagination.LimitWithBuffer(params.Limit)).Find(&comics).Error; err != nil {
		return nil, "", err
	}

	var next string
	if len(comics) > limit {
		comics = comics[:limit]
		next = pagination.EncodeCursor(pagination.Cursor{Seq: comics[limit-1].TokenID})
	}
	return comics, next, nil
}

// CreateListing inserts the projection row for a new listing.
func (r *Repository) CreateListing(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

// UpdateListingStatus transitions a listing out of active.
func (r *Repository) UpdateListingStatus(ctx context.Context, listingID uint64, status enums.ListingStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("listing_id = ?", listingID).
		Update("status", status).
		Error
}

// GetListing loads one listing row.
func (r *Repository) GetListing(ctx context.Context, listingID uint64) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).First(&listing, "listing_id = ?", listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &listing, nil
}

// GetActiveListingByToken finds the live listing for a token, if any.
func (r *Repository) GetActiveListingByToken(ctx context.Context, tokenID uint64) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Where("token_id = ? AND status = ?", tokenID, enums.ListingStatusActive).
		Order("listing_id DESC").
		First(&listing).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &listing, nil
}

// ListingFilter narrows ListListings results.
type ListingFilter struct {
	Status enums.ListingStatus
	Seller string
}

// ListListings pages through listings ordered by listing id.
func (r *Repository) ListListings(ctx context.Context, filter ListingFilter, params pagination.Params) ([]models.Listing, string, error) {
	query := r.db.WithContext(ctx).Model(&models.Listing{}).Order("listing_id ASC")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Seller != "" {
		query = query.Where("seller = ?", filter.Seller)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where("listing_id > ?", cursor.Seq)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var listings []models.Listing
	if err := query.Limit(pagination.LimitWithBuffer(params.Limit)).Find(&listings).Error; err != nil {
		return nil, "", err
	}

	var next string
	if len(listings) > limit {
		listings = listings[:limit]
		next = pagination.EncodeCursor(pagination.Cursor{Seq: listings[limit-1].ListingID})
	}
	return listings, next, nil
}

// CreateSale appends one completed purchase. Replaying a receipt hits
// the tx hash unique index and is treated as already recorded.
func (r *Repository) CreateSale(ctx context.Context, sale *models.Sale) error {
	if err := r.db.WithContext(ctx).Create(sale).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil
		}
		return err
	}
	return nil
}

// ListSalesByToken returns the sale history for a token, newest first.
func (r *Repository) ListSalesByToken(ctx context.Context, tokenID uint64) ([]models.Sale, error) {
	var sales []models.Sale
	err := r.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		Order("block DESC").
		Find(&sales).
		Error
	return sales, err
}
