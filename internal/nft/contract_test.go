package nft

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/RodgersChayuga/hekaheka-backend/internal/chain"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/wei"
)

type nftFixture struct {
	backend  *chain.Backend
	contract *Contract
	owner    common.Address
	user     common.Address
}

func newNFTFixture(t *testing.T) *nftFixture {
	t.Helper()
	backend, accounts := chain.NewDevBackend(3, wei.Ether(100))
	owner, user := accounts[0], accounts[1]
	return &nftFixture{
		backend:  backend,
		contract: Deploy(backend, owner, nil),
		owner:    owner,
		user:     user,
	}
}

func (f *nftFixture) mint(t *testing.T, from common.Address, uri string, royalty uint16, value *big.Int) (*chain.Receipt, error) {
	t.Helper()
	return f.backend.Submit(chain.Message{From: from, To: f.contract.Address(), Value: value}, func(env *chain.Env) error {
		_, err := f.contract.MintComic(env, uri, royalty)
		return err
	})
}

func (f *nftFixture) tokenCounter(t *testing.T) uint64 {
	t.Helper()
	var counter uint64
	require.NoError(t, f.backend.View(f.contract.Address(), func(env *chain.Env) error {
		counter = f.contract.GetTokenCounter(env)
		return nil
	}))
	return counter
}

func TestInitializesCorrectly(t *testing.T) {
	f := newNFTFixture(t)

	require.Equal(t, "ComicChain", f.contract.Name())
	require.Equal(t, "COMIC", f.contract.Symbol())
	require.Equal(t, f.owner, f.contract.Owner())
	require.Equal(t, uint64(0), f.tokenCounter(t))
	require.Equal(t, wei.MustParseEther("0.01"), f.contract.MintFee())
}

func TestMintComic(t *testing.T) {
	f := newNFTFixture(t)
	mintFee := wei.MustParseEther("0.01")

	receipt, err := f.mint(t, f.user, "ipfs://QmTestURI", 500, mintFee)
	require.NoError(t, err)
	require.Equal(t, chain.ReceiptStatusSuccessful, receipt.Status)

	log := receipt.FindLog("ComicMinted")
	require.NotNil(t, log, "ComicMinted must be emitted")
	minted := log.Data.(ComicMinted)
	require.Equal(t, uint64(0), minted.TokenID)
	require.Equal(t, f.user, minted.Creator)
	require.Equal(t, "ipfs://QmTestURI", minted.TokenURI)
	require.Equal(t, uint16(500), minted.Royalty)

	require.NoError(t, f.backend.View(f.contract.Address(), func(env *chain.Env) error {
		owner, err := f.contract.OwnerOf(env, 0)
		require.NoError(t, err)
		require.Equal(t, f.user, owner)

		uri, err := f.contract.TokenURI(env, 0)
		require.NoError(t, err)
		require.Equal(t, "ipfs://QmTestURI", uri)

		creator, err := f.contract.GetCreator(env, 0)
		require.NoError(t, err)
		require.Equal(t, f.user, creator)

		royalty, err := f.contract.GetRoyaltyPercentage(env, 0)
		require.NoError(t, err)
		require.Equal(t, uint16(500), royalty)

		require.Equal(t, uint64(1), f.contract.BalanceOf(env, f.user))
		return nil
	}))
	require.Equal(t, uint64(1), f.tokenCounter(t))
	require.Equal(t, 0, f.backend.BalanceOf(f.contract.Address()).Cmp(mintFee))
}

func TestMintFailsOnInsufficientFee(t *testing.T) {
	f := newNFTFixture(t)

	_, err := f.mint(t, f.user, "ipfs://QmTestURI", 500, wei.MustParseEther("0.005"))
	require.True(t, chain.IsRevert(err, ErrInsufficientMintingFee), "got %v", err)
	require.Equal(t, uint64(0), f.tokenCounter(t))
	require.Equal(t, 0, f.backend.BalanceOf(f.user).Cmp(wei.Ether(100)), "reverted mint must not move funds")
}

func TestMintFailsOnExcessiveRoyalty(t *testing.T) {
	f := newNFTFixture(t)

	_, err := f.mint(t, f.user, "ipfs://QmTestURI", 1001, wei.MustParseEther("0.01"))
	require.True(t, chain.IsRevert(err, ErrInvalidRoyalty), "got %v", err)
	require.Equal(t, uint64(0), f.tokenCounter(t))
}

func TestMintFailsOnEmptyTokenURI(t *testing.T) {
	f := newNFTFixture(t)

	_, err := f.mint(t, f.user, "", 500, wei.MustParseEther("0.01"))
	require.True(t, chain.IsRevert(err, ErrEmptyTokenURI), "got %v", err)
}

func TestMintRetainsExcessPayment(t *testing.T) {
	f := newNFTFixture(t)

	_, err := f.mint(t, f.user, "ipfs://QmTestURI", 500, wei.MustParseEther("0.02"))
	require.NoError(t, err)
	// Overpayment is platform revenue, not refunded.
	require.Equal(t, 0, f.backend.BalanceOf(f.contract.Address()).Cmp(wei.MustParseEther("0.02")))
}

func TestQueriesFailForNonexistentToken(t *testing.T) {
	f := newNFTFixture(t)

	require.NoError(t, f.backend.View(f.contract.Address(), func(env *chain.Env) error {
		_, err := f.contract.TokenURI(env, 0)
		require.True(t, chain.IsRevert(err, ErrNonexistentToken), "got %v", err)

		_, err = f.contract.OwnerOf(env, 0)
		require.True(t, chain.IsRevert(err, ErrNonexistentToken), "got %v", err)

		_, err = f.contract.GetCreator(env, 0)
		require.True(t, chain.IsRevert(err, ErrTokenDoesNotExist), "got %v", err)

		_, err = f.contract.GetRoyaltyPercentage(env, 0)
		require.True(t, chain.IsRevert(err, ErrTokenDoesNotExist), "got %v", err)
		return nil
	}))
}

func TestWithdraw(t *testing.T) {
	f := newNFTFixture(t)
	mintFee := wei.MustParseEther("0.01")

	_, err := f.mint(t, f.user, "ipfs://QmTestURI", 500, mintFee)
	require.NoError(t, err)

	ownerBefore := f.backend.BalanceOf(f.owner)
	receipt, err := f.backend.Submit(chain.Message{From: f.owner, To: f.contract.Address()}, func(env *chain.Env) error {
		return f.contract.Withdraw(env)
	})
	require.NoError(t, err)

	log := receipt.FindLog("FundsWithdrawn")
	require.NotNil(t, log)
	withdrawn := log.Data.(FundsWithdrawn)
	require.Equal(t, f.owner, withdrawn.Recipient)
	require.Equal(t, 0, withdrawn.Amount.Cmp(mintFee))

	require.Equal(t, 0, f.backend.BalanceOf(f.owner).Cmp(new(big.Int).Add(ownerBefore, mintFee)))
	require.Zero(t, f.backend.BalanceOf(f.contract.Address()).Sign())
}

func TestWithdrawRejectsNonOwner(t *testing.T) {
	f := newNFTFixture(t)

	_, err := f.mint(t, f.user, "ipfs://QmTestURI", 500, wei.MustParseEther("0.01"))
	require.NoError(t, err)

	_, err = f.backend.Submit(chain.Message{From: f.user, To: f.contract.Address()}, func(env *chain.Env) error {
		return f.contract.Withdraw(env)
	})
	require.True(t, chain.IsRevert(err, ErrUnauthorizedAccount), "got %v", err)
}

func TestWithdrawFailsWithNoFunds(t *testing.T) {
	f := newNFTFixture(t)

	_, err := f.backend.Submit(chain.Message{From: f.owner, To: f.contract.Address()}, func(env *chain.Env) error {
		return f.contract.Withdraw(env)
	})
	require.True(t, chain.IsRevert(err, ErrNoFundsToWithdraw), "got %v", err)
}

func TestTransferFromRequiresApproval(t *testing.T) {
	f := newNFTFixture(t)
	other := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	_, err := f.mint(t, f.user, "ipfs://QmTestURI", 500, wei.MustParseEther("0.01"))
	require.NoError(t, err)

	// A stranger cannot move the token.
	_, err = f.backend.Submit(chain.Message{From: f.owner, To: f.contract.Address()}, func(env *chain.Env) error {
		return f.contract.TransferFrom(env, f.user, other, 0)
	})
	require.True(t, chain.IsRevert(err, ErrInsufficientApproval), "got %v", err)

	// After a per-token approval the transfer goes through.
	_, err = f.backend.Submit(chain.Message{From: f.user, To: f.contract.Address()}, func(env *chain.Env) error {
		return f.contract.Approve(env, f.owner, 0)
	})
	require.NoError(t, err)

	_, err = f.backend.Submit(chain.Message{From: f.owner, To: f.contract.Address()}, func(env *chain.Env) error {
		return f.contract.TransferFrom(env, f.user, other, 0)
	})
	require.NoError(t, err)

	require.NoError(t, f.backend.View(f.contract.Address(), func(env *chain.Env) error {
		owner, err := f.contract.OwnerOf(env, 0)
		require.NoError(t, err)
		require.Equal(t, other, owner)

		// Approval is cleared by the transfer.
		approved, err := f.contract.GetApproved(env, 0)
		require.NoError(t, err)
		require.Equal(t, common.Address{}, approved)
		return nil
	}))
}
