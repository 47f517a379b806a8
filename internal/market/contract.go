// Package market implements the ComicMarketplace escrow engine. A listing
// moves the NFT into the marketplace's own custody; a purchase splits the
// payment into creator royalty, platform fee, and seller proceeds before
// handing the token to the buyer.
package market

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/RodgersChayuga/hekaheka-backend/internal/chain"
	"github.com/RodgersChayuga/hekaheka-backend/internal/nft"
)

const (
	// DefaultPlatformFeeBps is the 2.5% platform cut on each sale.
	DefaultPlatformFeeBps uint16 = 250
	// MaxPlatformFeeBps caps owner adjustments at 10%.
	MaxPlatformFeeBps uint16 = 1000

	bpsDenominator = 10_000
)

// DefaultListingFee is 0.005 ETH in wei.
var DefaultListingFee = big.NewInt(5_000_000_000_000_000)

const (
	ErrNotTokenOwner          = "NotTokenOwner"
	ErrNotApproved            = "NotApproved"
	ErrInvalidPrice           = "InvalidPrice"
	ErrInsufficientListingFee = "InsufficientListingFee"
	ErrListingNotActive       = "ListingNotActive"
	ErrInsufficientPayment    = "InsufficientPayment"
	ErrNotSeller              = "NotSeller"
	ErrInvalidFeePercent      = "InvalidFeePercent"
	ErrNoFundsToWithdraw      = "NoFundsToWithdraw"
	ErrUnauthorizedAccount    = "OwnableUnauthorizedAccount"
)

// Listing is the escrow record for one sale offer. Active is terminal
// once false; re-listing the same token creates a new listing id.
type Listing struct {
	Seller  common.Address
	TokenID uint64
	Price   *big.Int
	Active  bool
}

// Contract is the devnet implementation of ComicMarketplace, constructed
// against a deployed ComicNFT.
type Contract struct {
	address common.Address
	owner   common.Address
	nft     *nft.Contract

	listingFee     *big.Int
	platformFeeBps uint16
	listingCounter uint64

	listings    map[uint64]*Listing
	lastListing map[uint64]uint64 // tokenID -> most recent listingID
}

// Deploy registers a marketplace bound to the given ComicNFT contract.
func Deploy(backend *chain.Backend, deployer common.Address, comicNFT *nft.Contract) *Contract {
	return &Contract{
		address:        backend.Deploy("ComicMarketplace"),
		owner:          deployer,
		nft:            comicNFT,
		listingFee:     new(big.Int).Set(DefaultListingFee),
		platformFeeBps: DefaultPlatformFeeBps,
		listings:       make(map[uint64]*Listing),
		lastListing:    make(map[uint64]uint64),
	}
}

func (c *Contract) Address() common.Address { return c.address }
func (c *Contract) Owner() common.Address   { return c.owner }

// ComicNFT returns the token registry this marketplace escrows against.
func (c *Contract) ComicNFT() common.Address { return c.nft.Address() }

// ListNFT escrows the caller's token and opens a listing at the given
// price. The caller pays the listing fee; overpayment is retained.
func (c *Contract) ListNFT(env *chain.Env, tokenID uint64, price *big.Int) (uint64, error) {
	nftEnv := env.CallContract(c.nft.Address())

	owner, err := c.nft.OwnerOf(nftEnv, tokenID)
	if err != nil {
		return 0, err
	}
	seller := env.Caller()
	if owner != seller {
		return 0, chain.Revert(ErrNotTokenOwner)
	}

	approved, err := c.nft.GetApproved(nftEnv, tokenID)
	if err != nil {
		return 0, err
	}
	if approved != c.address && !c.nft.IsApprovedForAll(nftEnv, seller, c.address) {
		return 0, chain.Revert(ErrNotApproved)
	}

	if price == nil || price.Sign() <= 0 {
		return 0, chain.Revert(ErrInvalidPrice)
	}
	if env.Value().Cmp(c.listingFee) < 0 {
		return 0, chain.Revert(ErrInsufficientListingFee)
	}

	// Escrow by literal custody transfer.
	if err := c.nft.TransferFrom(nftEnv, seller, c.address, tokenID); err != nil {
		return 0, err
	}

	listingID := c.listingCounter
	c.listingCounter++
	c.listings[listingID] = &Listing{
		Seller:  seller,
		TokenID: tokenID,
		Price:   new(big.Int).Set(price),
		Active:  true,
	}
	c.lastListing[tokenID] = listingID

	if err := env.Emit(Listed{ListingID: listingID, TokenID: tokenID, Seller: seller, Price: new(big.Int).Set(price)}); err != nil {
		return 0, err
	}
	return listingID, nil
}

// BuyNFT purchases an active listing. The payment must cover the price;
// excess is retained. Proceeds split into creator royalty, platform fee,
// and seller amount; seller and creator are paid separately even when
// they are the same address.
func (c *Contract) BuyNFT(env *chain.Env, listingID uint64) error {
	listing, ok := c.listings[listingID]
	if !ok || !listing.Active {
		return chain.Revert(ErrListingNotActive)
	}
	if env.Value().Cmp(listing.Price) < 0 {
		return chain.Revert(ErrInsufficientPayment)
	}

	nftEnv := env.CallContract(c.nft.Address())
	creator, err := c.nft.GetCreator(nftEnv, listing.TokenID)
	if err != nil {
		return err
	}
	royaltyBps, err := c.nft.GetRoyaltyPercentage(nftEnv, listing.TokenID)
	if err != nil {
		return err
	}

	price := listing.Price
	royaltyAmount := mulBps(price, royaltyBps)
	platformFee := mulBps(price, c.platformFeeBps)
	sellerAmount := new(big.Int).Sub(price, royaltyAmount)
	sellerAmount.Sub(sellerAmount, platformFee)

	// Effects before interactions: close the listing before paying out.
	listing.Active = false

	buyer := env.Caller()
	if err := c.nft.TransferFrom(nftEnv, c.address, buyer, listing.TokenID); err != nil {
		return err
	}
	if err := env.Transfer(creator, royaltyAmount); err != nil {
		return err
	}
	if err := env.Transfer(listing.Seller, sellerAmount); err != nil {
		return err
	}

	return env.Emit(Purchased{
		ListingID:     listingID,
		TokenID:       listing.TokenID,
		Buyer:         buyer,
		Price:         new(big.Int).Set(price),
		RoyaltyAmount: royaltyAmount,
		PlatformFee:   platformFee,
	})
}

// CancelListing returns the escrowed NFT to the seller. Only the
// original lister may cancel.
func (c *Contract) CancelListing(env *chain.Env, listingID uint64) error {
	listing, ok := c.listings[listingID]
	if !ok || !listing.Active {
		return chain.Revert(ErrListingNotActive)
	}
	if env.Caller() != listing.Seller {
		return chain.Revert(ErrNotSeller)
	}

	listing.Active = false

	nftEnv := env.CallContract(c.nft.Address())
	if err := c.nft.TransferFrom(nftEnv, c.address, listing.Seller, listing.TokenID); err != nil {
		return err
	}
	return env.Emit(Cancelled{ListingID: listingID, TokenID: listing.TokenID})
}

// SetListingFee updates the flat listing fee. Owner only.
func (c *Contract) SetListingFee(env *chain.Env, newFee *big.Int) error {
	if env.Caller() != c.owner {
		return chain.Revert(ErrUnauthorizedAccount)
	}
	c.listingFee = new(big.Int).Set(newFee)
	return env.Emit(ListingFeeUpdated{NewFee: new(big.Int).Set(newFee)})
}

// SetPlatformFeePercent updates the sale cut in basis points. Owner only,
// capped at MaxPlatformFeeBps.
func (c *Contract) SetPlatformFeePercent(env *chain.Env, newPercent uint16) error {
	if env.Caller() != c.owner {
		return chain.Revert(ErrUnauthorizedAccount)
	}
	if newPercent > MaxPlatformFeeBps {
		return chain.Revert(ErrInvalidFeePercent)
	}
	c.platformFeeBps = newPercent
	return env.Emit(PlatformFeeUpdated{NewPercent: newPercent})
}

// Withdraw transfers the accumulated platform balance (listing fees plus
// sale cuts) to the contract owner.
func (c *Contract) Withdraw(env *chain.Env) error {
	if env.Caller() != c.owner {
		return chain.Revert(ErrUnauthorizedAccount)
	}
	balance := env.BalanceOf(c.address)
	if balance.Sign() == 0 {
		return chain.Revert(ErrNoFundsToWithdraw)
	}
	if err := env.Transfer(c.owner, balance); err != nil {
		return err
	}
	return env.Emit(FundsWithdrawn{Recipient: c.owner, Amount: balance})
}

// ── Views ──

func (c *Contract) ListingFee(env *chain.Env) *big.Int {
	return new(big.Int).Set(c.listingFee)
}

func (c *Contract) PlatformFeePercent(env *chain.Env) uint16 {
	return c.platformFeeBps
}

func (c *Contract) ListingCounter(env *chain.Env) uint64 {
	return c.listingCounter
}

// GetListingDetails returns the listing record for the id. Unknown ids
// return the zero listing, mirroring a Solidity mapping read.
func (c *Contract) GetListingDetails(env *chain.Env, listingID uint64) Listing {
	listing, ok := c.listings[listingID]
	if !ok {
		return Listing{Price: new(big.Int)}
	}
	return Listing{
		Seller:  listing.Seller,
		TokenID: listing.TokenID,
		Price:   new(big.Int).Set(listing.Price),
		Active:  listing.Active,
	}
}

// CheckIfTokenIsListed returns the most recent listing id for the token
// and whether it is currently active.
func (c *Contract) CheckIfTokenIsListed(env *chain.Env, tokenID uint64) (uint64, bool) {
	listingID, ok := c.lastListing[tokenID]
	if !ok {
		return 0, false
	}
	return listingID, c.listings[listingID].Active
}

func mulBps(amount *big.Int, bps uint16) *big.Int {
	out := new(big.Int).Mul(amount, big.NewInt(int64(bps)))
	return out.Div(out, big.NewInt(bpsDenominator))
}
