package index

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/RodgersChayuga/hekaheka-backend/internal/chain"
	"github.com/RodgersChayuga/hekaheka-backend/internal/market"
	"github.com/RodgersChayuga/hekaheka-backend/internal/nft"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/config"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/db"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/enums"
	pkgerrors "github.com/RodgersChayuga/hekaheka-backend/pkg/errors"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/logger"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/pagination"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/wei"
)

type indexFixture struct {
	service     *Service
	cache       *fakeCache
	backend     *chain.Backend
	comicNFT    *nft.Contract
	marketplace *market.Contract
	owner       common.Address
	seller      common.Address
	buyer       common.Address
}

func newIndexFixture(t *testing.T) *indexFixture {
	t.Helper()
	ctx := context.Background()

	client, err := db.New(ctx, config.DBConfig{
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		Driver: "sqlite",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	log := logger.New(logger.Options{ServiceName: "index-test", Output: io.Discard})
	cache := newFakeCache()
	service := NewService(client, cache, 30*time.Second, log)
	require.NoError(t, service.Migrate())

	backend, accounts := chain.NewDevBackend(4, wei.Ether(100))
	nftContract := nft.Deploy(backend, accounts[0], nil)
	marketContract := market.Deploy(backend, accounts[0], nftContract)

	return &indexFixture{
		service:     service,
		cache:       cache,
		backend:     backend,
		comicNFT:    nftContract,
		marketplace: marketContract,
		owner:       accounts[0],
		seller:      accounts[1],
		buyer:       accounts[2],
	}
}

// mint submits a mint transaction and applies its receipt.
func (f *indexFixture) mint(t *testing.T, uri string) uint64 {
	t.Helper()
	var tokenID uint64
	receipt, err := f.backend.Submit(chain.Message{From: f.seller, To: f.comicNFT.Address(), Value: wei.MustParseEther("0.01")}, func(env *chain.Env) error {
		var err error
		tokenID, err = f.comicNFT.MintComic(env, uri, 500)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, f.service.ApplyReceipt(context.Background(), receipt))
	return tokenID
}

func (f *indexFixture) approveAndList(t *testing.T, tokenID uint64) uint64 {
	t.Helper()
	receipt, err := f.backend.Submit(chain.Message{From: f.seller, To: f.comicNFT.Address()}, func(env *chain.Env) error {
		return f.comicNFT.SetApprovalForAll(env, f.marketplace.Address(), true)
	})
	require.NoError(t, err)
	require.NoError(t, f.service.ApplyReceipt(context.Background(), receipt))

	var listingID uint64
	receipt, err = f.backend.Submit(chain.Message{From: f.seller, To: f.marketplace.Address(), Value: wei.MustParseEther("0.005")}, func(env *chain.Env) error {
		var err error
		listingID, err = f.marketplace.ListNFT(env, tokenID, wei.Ether(1))
		return err
	})
	require.NoError(t, err)
	require.NoError(t, f.service.ApplyReceipt(context.Background(), receipt))
	return listingID
}

func (f *indexFixture) buy(t *testing.T, listingID uint64) {
	t.Helper()
	receipt, err := f.backend.Submit(chain.Message{From: f.buyer, To: f.marketplace.Address(), Value: wei.Ether(1)}, func(env *chain.Env) error {
		return f.marketplace.BuyNFT(env, listingID)
	})
	require.NoError(t, err)
	require.NoError(t, f.service.ApplyReceipt(context.Background(), receipt))
}

func TestApplyReceiptProjectsMint(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()

	tokenID := f.mint(t, "ipfs://QmComic")

	comic, err := f.service.GetComic(ctx, tokenID)
	require.NoError(t, err)
	require.Equal(t, f.seller.Hex(), comic.Creator)
	require.Equal(t, f.seller.Hex(), comic.Owner)
	require.Equal(t, "ipfs://QmComic", comic.TokenURI)
	require.Equal(t, uint16(500), comic.RoyaltyBps)
	require.NotEmpty(t, comic.MintTxHash)
}

func TestApplyReceiptProjectsListingLifecycle(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()

	tokenID := f.mint(t, "ipfs://QmComic")
	listingID := f.approveAndList(t, tokenID)

	listing, err := f.service.GetListing(ctx, listingID)
	require.NoError(t, err)
	require.Equal(t, tokenID, listing.TokenID)
	require.Equal(t, f.seller.Hex(), listing.Seller)
	require.Equal(t, wei.Ether(1).String(), listing.PriceWei)
	require.Equal(t, string(enums.ListingStatusActive), listing.Status)

	// Escrow transfer moves the indexed owner to the marketplace.
	comic, err := f.service.GetComic(ctx, tokenID)
	require.NoError(t, err)
	require.Equal(t, f.marketplace.Address().Hex(), comic.Owner)

	f.buy(t, listingID)

	listing, err = f.service.GetListing(ctx, listingID)
	require.NoError(t, err)
	require.Equal(t, string(enums.ListingStatusSold), listing.Status)

	comic, err = f.service.GetComic(ctx, tokenID)
	require.NoError(t, err)
	require.Equal(t, f.buyer.Hex(), comic.Owner)

	sales, err := f.service.GetSaleHistory(ctx, tokenID)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	require.Equal(t, f.seller.Hex(), sales[0].Seller)
	require.Equal(t, f.buyer.Hex(), sales[0].Buyer)
	require.Equal(t, wei.MustParseEther("0.05").String(), sales[0].RoyaltyWei)
	require.Equal(t, wei.MustParseEther("0.025").String(), sales[0].PlatformFeeWei)
}

func TestApplyReceiptProjectsCancellation(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()

	tokenID := f.mint(t, "ipfs://QmComic")
	listingID := f.approveAndList(t, tokenID)

	receipt, err := f.backend.Submit(chain.Message{From: f.seller, To: f.marketplace.Address()}, func(env *chain.Env) error {
		return f.marketplace.CancelListing(env, listingID)
	})
	require.NoError(t, err)
	require.NoError(t, f.service.ApplyReceipt(ctx, receipt))

	listing, err := f.service.GetListing(ctx, listingID)
	require.NoError(t, err)
	require.Equal(t, string(enums.ListingStatusCancelled), listing.Status)

	comic, err := f.service.GetComic(ctx, tokenID)
	require.NoError(t, err)
	require.Equal(t, f.seller.Hex(), comic.Owner)
}

func TestGetListingUsesCache(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()

	tokenID := f.mint(t, "ipfs://QmComic")
	listingID := f.approveAndList(t, tokenID)

	_, err := f.service.GetListing(ctx, listingID)
	require.NoError(t, err)
	require.Equal(t, 1, f.cache.writes, "first read populates the cache")

	_, err = f.service.GetListing(ctx, listingID)
	require.NoError(t, err)
	require.Equal(t, 1, f.cache.writes, "second read is served from cache")

	f.buy(t, listingID)
	require.Empty(t, f.cache.data, "purchase invalidates the cached listing")

	listing, err := f.service.GetListing(ctx, listingID)
	require.NoError(t, err)
	require.Equal(t, string(enums.ListingStatusSold), listing.Status)
}

func TestListComicsPagination(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		f.mint(t, fmt.Sprintf("ipfs://QmComic%d", i))
	}

	page, err := f.service.ListComics(ctx, ComicFilter{}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Comics, 2)
	require.NotEmpty(t, page.NextCursor)
	require.Equal(t, uint64(0), page.Comics[0].TokenID)

	page, err = f.service.ListComics(ctx, ComicFilter{}, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Comics, 2)
	require.Equal(t, uint64(2), page.Comics[0].TokenID)

	page, err = f.service.ListComics(ctx, ComicFilter{}, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Comics, 1)
	require.Empty(t, page.NextCursor)
}

func TestListListingsFiltersByStatus(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()

	first := f.mint(t, "ipfs://QmComicA")
	second := f.mint(t, "ipfs://QmComicB")
	firstListing := f.approveAndList(t, first)
	f.approveAndList(t, second)
	f.buy(t, firstListing)

	active, err := f.service.ListListings(ctx, ListingFilter{Status: enums.ListingStatusActive}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, active.Listings, 1)
	require.Equal(t, second, active.Listings[0].TokenID)

	sold, err := f.service.ListListings(ctx, ListingFilter{Status: enums.ListingStatusSold}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, sold.Listings, 1)
	require.Equal(t, first, sold.Listings[0].TokenID)
}

func TestGetComicNotFound(t *testing.T) {
	f := newIndexFixture(t)

	_, err := f.service.GetComic(context.Background(), 99)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestFailedReceiptIsSkipped(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()

	receipt, err := f.backend.Submit(chain.Message{From: f.seller, To: f.comicNFT.Address()}, func(env *chain.Env) error {
		_, err := f.comicNFT.MintComic(env, "ipfs://QmComic", 500)
		return err
	})
	require.Error(t, err, "mint without fee reverts")
	require.NoError(t, f.service.ApplyReceipt(ctx, receipt))

	_, err = f.service.GetComic(ctx, 0)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

type fakeCache struct {
	data   map[uint64]string
	writes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[uint64]string)}
}

func (f *fakeCache) CacheListing(_ context.Context, listingID uint64, payload string, _ time.Duration) error {
	f.data[listingID] = payload
	f.writes++
	return nil
}

func (f *fakeCache) GetCachedListing(_ context.Context, listingID uint64) (string, error) {
	return f.data[listingID], nil
}

func (f *fakeCache) InvalidateListing(_ context.Context, listingID, _ uint64) error {
	delete(f.data, listingID)
	return nil
}
