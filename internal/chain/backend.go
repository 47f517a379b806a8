// Package chain provides the single-node development chain the comic
// contracts execute on. One state-changing call runs at a time, value
// moves atomically with contract state, and a revert rolls the whole
// transaction back, matching the transaction model the storefront's
// contracts were written against.
package chain

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Backend is an in-process chain: account balances, a block counter, and
// serialized transaction execution. All state-changing calls go through
// Submit; reads go through View.
type Backend struct {
	mu sync.Mutex

	balances  map[common.Address]*big.Int
	nonces    map[common.Address]uint64
	blockNum  uint64
	deploySeq uint64
}

// Message describes who is calling, which contract, and how much value
// rides along.
type Message struct {
	From  common.Address
	To    common.Address
	Value *big.Int
}

func NewBackend() *Backend {
	return &Backend{
		balances: make(map[common.Address]*big.Int),
		nonces:   make(map[common.Address]uint64),
	}
}

// NewDevBackend funds n deterministic signer accounts with fund wei each,
// hardhat-style, and returns the backend together with the accounts.
func NewDevBackend(n int, fund *big.Int) (*Backend, []common.Address) {
	b := NewBackend()
	accounts := make([]common.Address, 0, n)
	for i := 0; i < n; i++ {
		addr := deterministicAddress("hekaheka/dev-signer", uint64(i))
		b.setBalance(addr, new(big.Int).Set(fund))
		accounts = append(accounts, addr)
	}
	return b, accounts
}

// Deploy reserves a fresh contract address. The devnet has no bytecode;
// contract packages pair the address with their Go implementation.
func (b *Backend) Deploy(name string) common.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deploySeq++
	addr := deterministicAddress("hekaheka/contract/"+name, b.deploySeq)
	if _, ok := b.balances[addr]; !ok {
		b.balances[addr] = new(big.Int)
	}
	return addr
}

// Fund credits an account outside of any transaction. Test and devnet
// bootstrap only.
func (b *Backend) Fund(addr common.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.creditLocked(addr, amount)
}

// BalanceOf returns a copy of the current balance for addr.
func (b *Backend) BalanceOf(addr common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bal, ok := b.balances[addr]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// BlockNumber returns the height of the last mined transaction.
func (b *Backend) BlockNumber() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.blockNum
}

// Submit executes one state-changing call atomically. The attached value
// is debited from the sender and credited to the callee before fn runs.
// If fn returns an error every balance change is undone, the logs are
// discarded, and a failed receipt is returned alongside the error. Each
// transaction mines its own block.
//
// Rollback covers balances only, not contract state: fn must perform
// every check that can revert before its first write to Env storage.
func (b *Backend) Submit(msg Message, fn func(*Env) error) (*Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	value := msg.Value
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s", value)
	}
	if b.balanceLocked(msg.From).Cmp(value) < 0 {
		return nil, ErrInsufficientFunds
	}

	// Reverted transactions still consume a nonce and mine a block.
	nonce := b.nonces[msg.From]
	b.nonces[msg.From] = nonce + 1
	b.blockNum++

	txHash := txHashFor(msg.From, nonce)
	snapshot := b.snapshotLocked()

	b.debitLocked(msg.From, value)
	b.creditLocked(msg.To, value)

	tx := &txContext{
		backend:     b,
		txHash:      txHash,
		blockNumber: b.blockNum,
	}
	env := &Env{tx: tx, caller: msg.From, self: msg.To, value: new(big.Int).Set(value)}

	if err := fn(env); err != nil {
		b.balances = snapshot
		return &Receipt{
			TxHash:      txHash,
			BlockNumber: b.blockNum,
			Status:      ReceiptStatusFailed,
			From:        msg.From,
			To:          msg.To,
			Value:       new(big.Int).Set(value),
		}, err
	}

	logs := tx.logs
	for i, l := range logs {
		l.TxHash = txHash
		l.BlockNumber = b.blockNum
		l.Index = uint(i)
	}
	return &Receipt{
		TxHash:      txHash,
		BlockNumber: b.blockNum,
		Status:      ReceiptStatusSuccessful,
		From:        msg.From,
		To:          msg.To,
		Value:       new(big.Int).Set(value),
		Logs:        logs,
	}, nil
}

// View runs fn under the chain lock with a read-only environment rooted
// at the given contract address.
func (b *Backend) View(at common.Address, fn func(*Env) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	tx := &txContext{backend: b, readonly: true}
	env := &Env{tx: tx, self: at, value: new(big.Int)}
	return fn(env)
}

func (b *Backend) snapshotLocked() map[common.Address]*big.Int {
	snap := make(map[common.Address]*big.Int, len(b.balances))
	for addr, bal := range b.balances {
		snap[addr] = new(big.Int).Set(bal)
	}
	return snap
}

func (b *Backend) balanceLocked(addr common.Address) *big.Int {
	if bal, ok := b.balances[addr]; ok {
		return bal
	}
	return new(big.Int)
}

func (b *Backend) setBalance(addr common.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[addr] = amount
}

func (b *Backend) creditLocked(addr common.Address, amount *big.Int) {
	bal, ok := b.balances[addr]
	if !ok {
		bal = new(big.Int)
		b.balances[addr] = bal
	}
	bal.Add(bal, amount)
}

func (b *Backend) debitLocked(addr common.Address, amount *big.Int) {
	bal := b.balances[addr]
	bal.Sub(bal, amount)
}

func txHashFor(from common.Address, nonce uint64) common.Hash {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], nonce)
	return crypto.Keccak256Hash(from.Bytes(), buf[:])
}

func deterministicAddress(seed string, n uint64) common.Address {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	return common.BytesToAddress(crypto.Keccak256([]byte(seed), buf[:])[12:])
}
