package bindings

import (
	"context"
	"io"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/RodgersChayuga/hekaheka-backend/internal/chain"
	"github.com/RodgersChayuga/hekaheka-backend/internal/market"
	"github.com/RodgersChayuga/hekaheka-backend/internal/nft"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/errors"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/logger"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/wei"
)

type bindingsFixture struct {
	backend     *chain.Backend
	comicNFT    *ComicNFT
	marketplace *Marketplace
	owner       common.Address
	seller      common.Address
	buyer       common.Address
}

func newBindingsFixture(t *testing.T) *bindingsFixture {
	t.Helper()
	backend, accounts := chain.NewDevBackend(4, wei.Ether(100))
	log := logger.New(logger.Options{ServiceName: "bindings-test", Output: io.Discard})

	nftContract := nft.Deploy(backend, accounts[0], nil)
	marketContract := market.Deploy(backend, accounts[0], nftContract)

	return &bindingsFixture{
		backend:     backend,
		comicNFT:    NewComicNFT(backend, nftContract, log),
		marketplace: NewMarketplace(backend, marketContract, log),
		owner:       accounts[0],
		seller:      accounts[1],
		buyer:       accounts[2],
	}
}

// mintAndApprove mints one comic for the seller and approves the
// marketplace as operator, the standard pre-listing flow.
func (f *bindingsFixture) mintAndApprove(t *testing.T) *MintReceipt {
	t.Helper()
	ctx := context.Background()
	minted, err := f.comicNFT.MintComic(ctx, f.seller, "ipfs://QmComic", 500)
	require.NoError(t, err)
	_, err = f.comicNFT.SetApprovalForAll(ctx, f.seller, f.marketplace.Address(), true)
	require.NoError(t, err)
	return minted
}

func requireCode(t *testing.T, err error, code errors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := errors.As(err)
	require.NotNil(t, typed, "expected a typed error, got %v", err)
	require.Equal(t, code, typed.Code(), "unexpected code for %v", err)
}

func TestMintComic(t *testing.T) {
	f := newBindingsFixture(t)
	ctx := context.Background()

	minted, err := f.comicNFT.MintComic(ctx, f.seller, "ipfs://QmComic", 750)
	require.NoError(t, err)
	require.Equal(t, uint64(0), minted.TokenID)
	require.Equal(t, f.seller, minted.Creator)
	require.Equal(t, "ipfs://QmComic", minted.TokenURI)
	require.Equal(t, uint16(750), minted.RoyaltyBps)
	require.NotEqual(t, common.Hash{}, minted.TxHash)

	details, err := f.comicNFT.GetTokenDetails(ctx, minted.TokenID)
	require.NoError(t, err)
	require.Equal(t, f.seller, details.Owner)
	require.Equal(t, f.seller, details.Creator)
	require.Equal(t, uint16(750), details.RoyaltyBps)
}

func TestMintComicRejectsBadInput(t *testing.T) {
	f := newBindingsFixture(t)
	ctx := context.Background()

	_, err := f.comicNFT.MintComic(ctx, f.seller, "https://example.com/meta.json", 500)
	requireCode(t, err, errors.CodeValidation)

	_, err = f.comicNFT.MintComic(ctx, f.seller, "ipfs://QmComic", 1001)
	requireCode(t, err, errors.CodeValidation)

	_, err = f.comicNFT.MintComic(ctx, common.Address{}, "ipfs://QmComic", 500)
	requireCode(t, err, errors.CodeValidation)

	// Input checks run before any chain call.
	counter, err := f.comicNFT.TokenCounter(ctx)
	require.NoError(t, err)
	require.Zero(t, counter)
}

func TestMintComicFailsForBrokeSender(t *testing.T) {
	f := newBindingsFixture(t)
	broke := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	_, err := f.comicNFT.MintComic(context.Background(), broke, "ipfs://QmComic", 500)
	requireCode(t, err, errors.CodePaymentRequired)
}

func TestListNFT(t *testing.T) {
	f := newBindingsFixture(t)
	ctx := context.Background()
	minted := f.mintAndApprove(t)

	listed, err := f.marketplace.ListNFT(ctx, f.seller, minted.TokenID, wei.Ether(1))
	require.NoError(t, err)
	require.Equal(t, uint64(0), listed.ListingID)
	require.Equal(t, minted.TokenID, listed.TokenID)
	require.Equal(t, f.seller, listed.Seller)
	require.Equal(t, 0, listed.Price.Cmp(wei.Ether(1)))

	owner, err := f.comicNFT.OwnerOf(ctx, minted.TokenID)
	require.NoError(t, err)
	require.Equal(t, f.marketplace.Address(), owner)

	listingID, isListed, err := f.marketplace.CheckIfTokenIsListed(ctx, minted.TokenID)
	require.NoError(t, err)
	require.True(t, isListed)
	require.Equal(t, listed.ListingID, listingID)
}

func TestListNFTMapsContractReverts(t *testing.T) {
	f := newBindingsFixture(t)
	ctx := context.Background()

	minted, err := f.comicNFT.MintComic(ctx, f.seller, "ipfs://QmComic", 500)
	require.NoError(t, err)

	// Marketplace was never approved.
	_, err = f.marketplace.ListNFT(ctx, f.seller, minted.TokenID, wei.Ether(1))
	requireCode(t, err, errors.CodeForbidden)

	// Not the token owner.
	_, err = f.marketplace.ListNFT(ctx, f.buyer, minted.TokenID, wei.Ether(1))
	requireCode(t, err, errors.CodeForbidden)

	// Zero price never reaches the chain.
	_, err = f.marketplace.ListNFT(ctx, f.seller, minted.TokenID, nil)
	requireCode(t, err, errors.CodeValidation)
}

func TestBuyNFT(t *testing.T) {
	f := newBindingsFixture(t)
	ctx := context.Background()
	minted := f.mintAndApprove(t)

	listed, err := f.marketplace.ListNFT(ctx, f.seller, minted.TokenID, wei.Ether(1))
	require.NoError(t, err)

	purchased, err := f.marketplace.BuyNFT(ctx, f.buyer, listed.ListingID, wei.Ether(1))
	require.NoError(t, err)
	require.Equal(t, listed.ListingID, purchased.ListingID)
	require.Equal(t, minted.TokenID, purchased.TokenID)
	require.Equal(t, f.buyer, purchased.Buyer)
	require.Equal(t, 0, purchased.RoyaltyAmount.Cmp(wei.MustParseEther("0.05")))
	require.Equal(t, 0, purchased.PlatformFee.Cmp(wei.MustParseEther("0.025")))

	owner, err := f.comicNFT.OwnerOf(ctx, minted.TokenID)
	require.NoError(t, err)
	require.Equal(t, f.buyer, owner)
}

func TestBuyNFTMapsContractReverts(t *testing.T) {
	f := newBindingsFixture(t)
	ctx := context.Background()
	minted := f.mintAndApprove(t)

	// No such active listing.
	_, err := f.marketplace.BuyNFT(ctx, f.buyer, 7, wei.Ether(1))
	requireCode(t, err, errors.CodeStateConflict)

	listed, err := f.marketplace.ListNFT(ctx, f.seller, minted.TokenID, wei.Ether(1))
	require.NoError(t, err)

	_, err = f.marketplace.BuyNFT(ctx, f.buyer, listed.ListingID, wei.MustParseEther("0.5"))
	requireCode(t, err, errors.CodePaymentRequired)

	_, err = f.marketplace.BuyNFT(ctx, f.buyer, listed.ListingID, nil)
	requireCode(t, err, errors.CodeValidation)
}

func TestCancelListing(t *testing.T) {
	f := newBindingsFixture(t)
	ctx := context.Background()
	minted := f.mintAndApprove(t)

	listed, err := f.marketplace.ListNFT(ctx, f.seller, minted.TokenID, wei.Ether(1))
	require.NoError(t, err)

	_, err = f.marketplace.CancelListing(ctx, f.buyer, listed.ListingID)
	requireCode(t, err, errors.CodeForbidden)

	cancelled, err := f.marketplace.CancelListing(ctx, f.seller, listed.ListingID)
	require.NoError(t, err)
	require.Equal(t, listed.ListingID, cancelled.ListingID)
	require.Equal(t, minted.TokenID, cancelled.TokenID)

	owner, err := f.comicNFT.OwnerOf(ctx, minted.TokenID)
	require.NoError(t, err)
	require.Equal(t, f.seller, owner)

	_, err = f.marketplace.CancelListing(ctx, f.seller, listed.ListingID)
	requireCode(t, err, errors.CodeStateConflict)
}

func TestAdminOperations(t *testing.T) {
	f := newBindingsFixture(t)
	ctx := context.Background()

	_, err := f.marketplace.SetPlatformFeePercent(ctx, f.buyer, 100)
	requireCode(t, err, errors.CodeForbidden)

	_, err = f.marketplace.SetPlatformFeePercent(ctx, f.owner, 1001)
	requireCode(t, err, errors.CodeValidation)

	_, err = f.marketplace.SetPlatformFeePercent(ctx, f.owner, 500)
	require.NoError(t, err)
	percent, err := f.marketplace.PlatformFeePercent(ctx)
	require.NoError(t, err)
	require.Equal(t, uint16(500), percent)

	_, err = f.marketplace.SetListingFee(ctx, f.owner, wei.MustParseEther("0.01"))
	require.NoError(t, err)
	fee, err := f.marketplace.ListingFee(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, fee.Cmp(wei.MustParseEther("0.01")))

	_, err = f.marketplace.Withdraw(ctx, f.owner)
	requireCode(t, err, errors.CodeStateConflict)
}

func TestMarketplaceWithdraw(t *testing.T) {
	f := newBindingsFixture(t)
	ctx := context.Background()
	minted := f.mintAndApprove(t)

	listed, err := f.marketplace.ListNFT(ctx, f.seller, minted.TokenID, wei.Ether(1))
	require.NoError(t, err)
	_, err = f.marketplace.BuyNFT(ctx, f.buyer, listed.ListingID, wei.Ether(1))
	require.NoError(t, err)

	// Platform fee 0.025 + listing fee 0.005.
	withdrawn, err := f.marketplace.Withdraw(ctx, f.owner)
	require.NoError(t, err)
	require.Equal(t, f.owner, withdrawn.Recipient)
	require.Equal(t, 0, withdrawn.Amount.Cmp(wei.MustParseEther("0.03")))
}

func TestComicNFTWithdraw(t *testing.T) {
	f := newBindingsFixture(t)
	ctx := context.Background()

	_, err := f.comicNFT.MintComic(ctx, f.seller, "ipfs://QmComic", 500)
	require.NoError(t, err)

	_, err = f.comicNFT.Withdraw(ctx, f.buyer)
	requireCode(t, err, errors.CodeForbidden)

	withdrawn, err := f.comicNFT.Withdraw(ctx, f.owner)
	require.NoError(t, err)
	require.Equal(t, 0, withdrawn.Amount.Cmp(wei.MustParseEther("0.01")))

	_, err = f.comicNFT.Withdraw(ctx, f.owner)
	requireCode(t, err, errors.CodeStateConflict)
}

func TestGetTokenDetailsNotFound(t *testing.T) {
	f := newBindingsFixture(t)

	_, err := f.comicNFT.GetTokenDetails(context.Background(), 42)
	requireCode(t, err, errors.CodeNotFound)
}

func TestGetListingDetailsUnknownID(t *testing.T) {
	f := newBindingsFixture(t)

	details, err := f.marketplace.GetListingDetails(context.Background(), 42)
	require.NoError(t, err)
	require.False(t, details.Active)
	require.Equal(t, common.Address{}, details.Seller)
}
