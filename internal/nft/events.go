package nft

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ComicMinted is emitted once per successful mint and is how off-chain
// callers learn the assigned token id.
type ComicMinted struct {
	TokenID  uint64
	Creator  common.Address
	TokenURI string
	Royalty  uint16
}

func (ComicMinted) EventName() string { return "ComicMinted" }
func (ComicMinted) EventSignature() string {
	return "ComicMinted(uint256,address,string,uint96)"
}

// Transfer mirrors the ERC-721 transfer event, emitted on mint and on
// every ownership change.
type Transfer struct {
	From    common.Address
	To      common.Address
	TokenID uint64
}

func (Transfer) EventName() string      { return "Transfer" }
func (Transfer) EventSignature() string { return "Transfer(address,address,uint256)" }

type Approval struct {
	Owner    common.Address
	Approved common.Address
	TokenID  uint64
}

func (Approval) EventName() string      { return "Approval" }
func (Approval) EventSignature() string { return "Approval(address,address,uint256)" }

type ApprovalForAll struct {
	Owner    common.Address
	Operator common.Address
	Approved bool
}

func (ApprovalForAll) EventName() string      { return "ApprovalForAll" }
func (ApprovalForAll) EventSignature() string { return "ApprovalForAll(address,address,bool)" }

type FundsWithdrawn struct {
	Recipient common.Address
	Amount    *big.Int
}

func (FundsWithdrawn) EventName() string      { return "FundsWithdrawn" }
func (FundsWithdrawn) EventSignature() string { return "FundsWithdrawn(address,uint256)" }
