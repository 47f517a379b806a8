package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type txContext struct {
	backend     *Backend
	txHash      common.Hash
	blockNumber uint64
	logs        []*Log
	readonly    bool
}

// Env is the execution environment handed to contract code: the msg
// context of the current call frame plus access to balances, transfers,
// and event emission. All Env methods assume the chain lock is held by
// Submit or View.
type Env struct {
	tx     *txContext
	caller common.Address
	self   common.Address
	value  *big.Int
}

// Caller is msg.sender for this call frame.
func (e *Env) Caller() common.Address { return e.caller }

// Self is the contract address executing this frame.
func (e *Env) Self() common.Address { return e.self }

// Value is msg.value. Already credited to Self when contract code runs.
func (e *Env) Value() *big.Int { return new(big.Int).Set(e.value) }

// CallContract derives the environment for a nested contract call: the
// current contract becomes the caller and no value is attached. Logs and
// rollback scope are shared with the outer frame.
func (e *Env) CallContract(to common.Address) *Env {
	return &Env{tx: e.tx, caller: e.self, self: to, value: new(big.Int)}
}

// BalanceOf reads an account balance mid-call.
func (e *Env) BalanceOf(addr common.Address) *big.Int {
	return new(big.Int).Set(e.tx.backend.balanceLocked(addr))
}

// Transfer moves value out of the executing contract. Contract code must
// finish its own state updates before transferring out.
func (e *Env) Transfer(to common.Address, amount *big.Int) error {
	if e.tx.readonly {
		return ErrWriteInView
	}
	if amount.Sign() < 0 {
		return Revert(ErrTransferFailed)
	}
	if e.tx.backend.balanceLocked(e.self).Cmp(amount) < 0 {
		return Revert(ErrTransferFailed)
	}
	e.tx.backend.debitLocked(e.self, amount)
	e.tx.backend.creditLocked(to, amount)
	return nil
}

// Emit records an event against the executing contract.
func (e *Env) Emit(ev Event) error {
	if e.tx.readonly {
		return ErrWriteInView
	}
	e.tx.logs = append(e.tx.logs, &Log{
		Address: e.self,
		Name:    ev.EventName(),
		Topic:   topicFor(ev),
		Data:    ev,
	})
	return nil
}
