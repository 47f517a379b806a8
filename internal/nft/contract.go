// Package nft implements the ComicNFT token registry: ERC-721 ownership
// and approvals plus the comic-specific creator and royalty records fixed
// at mint time.
package nft

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/RodgersChayuga/hekaheka-backend/internal/chain"
)

const (
	CollectionName   = "ComicChain"
	CollectionSymbol = "COMIC"

	// MaxRoyaltyBps caps per-token royalties at 10%.
	MaxRoyaltyBps = 1000
)

// DefaultMintFee is 0.01 ETH in wei.
var DefaultMintFee = big.NewInt(10_000_000_000_000_000)

// Custom error names, matching what the deployed Solidity contract
// reverts with.
const (
	ErrInsufficientMintingFee = "InsufficientMintingFee"
	ErrInvalidRoyalty         = "InvalidRoyalty"
	ErrEmptyTokenURI          = "EmptyTokenURI"
	ErrTokenDoesNotExist      = "TokenDoesNotExist"
	ErrNonexistentToken       = "ERC721NonexistentToken"
	ErrIncorrectOwner         = "ERC721IncorrectOwner"
	ErrInsufficientApproval   = "ERC721InsufficientApproval"
	ErrInvalidApprover        = "ERC721InvalidApprover"
	ErrNoFundsToWithdraw      = "NoFundsToWithdraw"
	ErrUnauthorizedAccount    = "OwnableUnauthorizedAccount"
)

// Contract is the devnet implementation of ComicNFT. All methods take the
// chain.Env of the current call; state is only touched under the chain
// lock.
type Contract struct {
	address common.Address
	owner   common.Address

	mintFee      *big.Int
	tokenCounter uint64

	owners    map[uint64]common.Address
	creators  map[uint64]common.Address
	royalties map[uint64]uint16
	tokenURIs map[uint64]string
	balances  map[common.Address]uint64

	tokenApprovals    map[uint64]common.Address
	operatorApprovals map[common.Address]map[common.Address]bool
}

// Deploy registers a ComicNFT instance on the backend. The deployer
// becomes the contract owner.
func Deploy(backend *chain.Backend, deployer common.Address, mintFee *big.Int) *Contract {
	if mintFee == nil {
		mintFee = DefaultMintFee
	}
	return &Contract{
		address:           backend.Deploy("ComicNFT"),
		owner:             deployer,
		mintFee:           new(big.Int).Set(mintFee),
		owners:            make(map[uint64]common.Address),
		creators:          make(map[uint64]common.Address),
		royalties:         make(map[uint64]uint16),
		tokenURIs:         make(map[uint64]string),
		balances:          make(map[common.Address]uint64),
		tokenApprovals:    make(map[uint64]common.Address),
		operatorApprovals: make(map[common.Address]map[common.Address]bool),
	}
}

func (c *Contract) Address() common.Address { return c.address }

// MintComic creates the next sequential token for the caller. The caller
// must attach at least the mint fee; any excess is retained as platform
// balance, not refunded.
func (c *Contract) MintComic(env *chain.Env, tokenURI string, royaltyBps uint16) (uint64, error) {
	if env.Value().Cmp(c.mintFee) < 0 {
		return 0, chain.Revert(ErrInsufficientMintingFee)
	}
	if royaltyBps > MaxRoyaltyBps {
		return 0, chain.Revert(ErrInvalidRoyalty)
	}
	if tokenURI == "" {
		return 0, chain.Revert(ErrEmptyTokenURI)
	}

	creator := env.Caller()
	tokenID := c.tokenCounter
	c.tokenCounter++

	c.owners[tokenID] = creator
	c.creators[tokenID] = creator
	c.royalties[tokenID] = royaltyBps
	c.tokenURIs[tokenID] = tokenURI
	c.balances[creator]++

	if err := env.Emit(Transfer{From: common.Address{}, To: creator, TokenID: tokenID}); err != nil {
		return 0, err
	}
	if err := env.Emit(ComicMinted{TokenID: tokenID, Creator: creator, TokenURI: tokenURI, Royalty: royaltyBps}); err != nil {
		return 0, err
	}
	return tokenID, nil
}

// TransferFrom moves a token. The caller of the current frame must be the
// owner, the approved address, or an approved operator.
func (c *Contract) TransferFrom(env *chain.Env, from, to common.Address, tokenID uint64) error {
	owner, ok := c.owners[tokenID]
	if !ok {
		return chain.Revert(ErrNonexistentToken)
	}
	if owner != from {
		return chain.Revert(ErrIncorrectOwner)
	}
	spender := env.Caller()
	if !c.isAuthorized(owner, spender, tokenID) {
		return chain.Revert(ErrInsufficientApproval)
	}

	delete(c.tokenApprovals, tokenID)
	c.owners[tokenID] = to
	c.balances[from]--
	c.balances[to]++

	return env.Emit(Transfer{From: from, To: to, TokenID: tokenID})
}

// Approve grants a single-token transfer approval.
func (c *Contract) Approve(env *chain.Env, approved common.Address, tokenID uint64) error {
	owner, ok := c.owners[tokenID]
	if !ok {
		return chain.Revert(ErrNonexistentToken)
	}
	caller := env.Caller()
	if caller != owner && !c.operatorApprovals[owner][caller] {
		return chain.Revert(ErrInvalidApprover)
	}
	c.tokenApprovals[tokenID] = approved
	return env.Emit(Approval{Owner: owner, Approved: approved, TokenID: tokenID})
}

// SetApprovalForAll grants or revokes an operator over every token the
// caller owns.
func (c *Contract) SetApprovalForAll(env *chain.Env, operator common.Address, approved bool) error {
	caller := env.Caller()
	ops, ok := c.operatorApprovals[caller]
	if !ok {
		ops = make(map[common.Address]bool)
		c.operatorApprovals[caller] = ops
	}
	ops[operator] = approved
	return env.Emit(ApprovalForAll{Owner: caller, Operator: operator, Approved: approved})
}

// Withdraw transfers the whole contract balance to the contract owner.
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

func (c *Contract) Name() string   { return CollectionName }
func (c *Contract) Symbol() string { return CollectionSymbol }

func (c *Contract) Owner() common.Address { return c.owner }

func (c *Contract) MintFee() *big.Int { return new(big.Int).Set(c.mintFee) }

func (c *Contract) GetTokenCounter(env *chain.Env) uint64 {
	return c.tokenCounter
}

func (c *Contract) OwnerOf(env *chain.Env, tokenID uint64) (common.Address, error) {
	owner, ok := c.owners[tokenID]
	if !ok {
		return common.Address{}, chain.Revert(ErrNonexistentToken)
	}
	return owner, nil
}

func (c *Contract) TokenURI(env *chain.Env, tokenID uint64) (string, error) {
	uri, ok := c.tokenURIs[tokenID]
	if !ok {
		return "", chain.Revert(ErrNonexistentToken)
	}
	return uri, nil
}

func (c *Contract) GetCreator(env *chain.Env, tokenID uint64) (common.Address, error) {
	creator, ok := c.creators[tokenID]
	if !ok {
		return common.Address{}, chain.Revert(ErrTokenDoesNotExist)
	}
	return creator, nil
}

func (c *Contract) GetRoyaltyPercentage(env *chain.Env, tokenID uint64) (uint16, error) {
	royalty, ok := c.royalties[tokenID]
	if !ok {
		return 0, chain.Revert(ErrTokenDoesNotExist)
	}
	return royalty, nil
}

func (c *Contract) BalanceOf(env *chain.Env, owner common.Address) uint64 {
	return c.balances[owner]
}

func (c *Contract) GetApproved(env *chain.Env, tokenID uint64) (common.Address, error) {
	if _, ok := c.owners[tokenID]; !ok {
		return common.Address{}, chain.Revert(ErrNonexistentToken)
	}
	return c.tokenApprovals[tokenID], nil
}

func (c *Contract) IsApprovedForAll(env *chain.Env, owner, operator common.Address) bool {
	return c.operatorApprovals[owner][operator]
}

func (c *Contract) isAuthorized(owner, spender common.Address, tokenID uint64) bool {
	if spender == owner {
		return true
	}
	if c.tokenApprovals[tokenID] == spender {
		return true
	}
	return c.operatorApprovals[owner][spender]
}
