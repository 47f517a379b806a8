package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	ReceiptStatusSuccessful uint64 = 1
	ReceiptStatusFailed     uint64 = 0
)

// Event is implemented by contract event payloads. Signature returns the
// canonical Solidity-style signature used to derive the log topic.
type Event interface {
	EventName() string
	EventSignature() string
}

// Log records a single event emission inside a transaction.
type Log struct {
	Address     common.Address
	Name        string
	Topic       common.Hash
	Data        Event
	BlockNumber uint64
	TxHash      common.Hash
	Index       uint
}

// Receipt summarizes an executed transaction. Logs appear in emission
// order; a failed transaction carries none.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	Status      uint64
	From        common.Address
	To          common.Address
	Value       *big.Int
	Logs        []*Log
}

// FindLog returns the first log emitted under the given event name, or nil.
func (r *Receipt) FindLog(name string) *Log {
	if r == nil {
		return nil
	}
	for _, l := range r.Logs {
		if l.Name == name {
			return l
		}
	}
	return nil
}

func topicFor(ev Event) common.Hash {
	return crypto.Keccak256Hash([]byte(ev.EventSignature()))
}
