package chain

import (
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

type pingEvent struct{ N uint64 }

func (pingEvent) EventName() string      { return "Ping" }
func (pingEvent) EventSignature() string { return "Ping(uint256)" }

func TestNewDevBackendFundsAccounts(t *testing.T) {
	fund := big.NewInt(1_000_000)
	b, accounts := NewDevBackend(3, fund)

	if len(accounts) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(accounts))
	}
	seen := map[common.Address]bool{}
	for _, acc := range accounts {
		if seen[acc] {
			t.Fatalf("duplicate dev account %s", acc)
		}
		seen[acc] = true
		if b.BalanceOf(acc).Cmp(fund) != 0 {
			t.Fatalf("account %s not funded", acc)
		}
	}

	// Deterministic across backends so devnet restarts keep addresses.
	_, again := NewDevBackend(3, fund)
	if again[0] != accounts[0] {
		t.Fatalf("dev accounts should be deterministic")
	}
}

func TestSubmitMovesValueAndEmitsLogs(t *testing.T) {
	b, accounts := NewDevBackend(2, big.NewInt(100))
	contract := b.Deploy("Test")

	receipt, err := b.Submit(Message{From: accounts[0], To: contract, Value: big.NewInt(40)}, func(env *Env) error {
		if env.Caller() != accounts[0] {
			t.Fatalf("unexpected caller %s", env.Caller())
		}
		if env.Value().Cmp(big.NewInt(40)) != 0 {
			t.Fatalf("unexpected value %s", env.Value())
		}
		// Value is credited before contract code runs.
		if env.BalanceOf(contract).Cmp(big.NewInt(40)) != 0 {
			t.Fatalf("value not credited to contract: %s", env.BalanceOf(contract))
		}
		return env.Emit(pingEvent{N: 7})
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if receipt.Status != ReceiptStatusSuccessful {
		t.Fatalf("expected success status, got %d", receipt.Status)
	}
	if receipt.BlockNumber != 1 {
		t.Fatalf("expected block 1, got %d", receipt.BlockNumber)
	}
	if b.BalanceOf(accounts[0]).Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("sender balance not debited: %s", b.BalanceOf(accounts[0]))
	}
	if b.BalanceOf(contract).Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("contract balance wrong: %s", b.BalanceOf(contract))
	}

	log := receipt.FindLog("Ping")
	if log == nil {
		t.Fatal("expected Ping log in receipt")
	}
	if log.Address != contract {
		t.Fatalf("log address should be the emitting contract")
	}
	if log.TxHash != receipt.TxHash {
		t.Fatalf("log not stamped with tx hash")
	}
	if log.Data.(pingEvent).N != 7 {
		t.Fatalf("unexpected log payload %+v", log.Data)
	}
}

func TestSubmitRevertRestoresBalancesAndDropsLogs(t *testing.T) {
	b, accounts := NewDevBackend(2, big.NewInt(100))
	contract := b.Deploy("Test")

	receipt, err := b.Submit(Message{From: accounts[0], To: contract, Value: big.NewInt(25)}, func(env *Env) error {
		if err := env.Emit(pingEvent{N: 1}); err != nil {
			return err
		}
		if err := env.Transfer(accounts[1], big.NewInt(10)); err != nil {
			return err
		}
		return Revert("Boom")
	})
	if !IsRevert(err, "Boom") {
		t.Fatalf("expected Boom revert, got %v", err)
	}
	if receipt.Status != ReceiptStatusFailed {
		t.Fatalf("expected failed receipt, got %d", receipt.Status)
	}
	if len(receipt.Logs) != 0 {
		t.Fatalf("reverted tx must carry no logs")
	}
	if b.BalanceOf(accounts[0]).Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("sender balance not restored: %s", b.BalanceOf(accounts[0]))
	}
	if b.BalanceOf(accounts[1]).Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("recipient balance not restored: %s", b.BalanceOf(accounts[1]))
	}
	if b.BalanceOf(contract).Sign() != 0 {
		t.Fatalf("contract balance not restored: %s", b.BalanceOf(contract))
	}
}

func TestSubmitInsufficientFunds(t *testing.T) {
	b, accounts := NewDevBackend(1, big.NewInt(5))
	contract := b.Deploy("Test")

	_, err := b.Submit(Message{From: accounts[0], To: contract, Value: big.NewInt(10)}, func(env *Env) error {
		t.Fatal("contract code must not run")
		return nil
	})
	if err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestNestedCallSharesLogsAndCaller(t *testing.T) {
	b, accounts := NewDevBackend(1, big.NewInt(100))
	outer := b.Deploy("Outer")
	inner := b.Deploy("Inner")

	receipt, err := b.Submit(Message{From: accounts[0], To: outer}, func(env *Env) error {
		nested := env.CallContract(inner)
		if nested.Caller() != outer {
			t.Fatalf("nested caller should be the outer contract")
		}
		return nested.Emit(pingEvent{N: 2})
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	log := receipt.FindLog("Ping")
	if log == nil || log.Address != inner {
		t.Fatalf("nested emission should surface in the outer receipt against the inner contract")
	}
}

func TestViewRejectsWrites(t *testing.T) {
	b, accounts := NewDevBackend(1, big.NewInt(100))
	contract := b.Deploy("Test")

	err := b.View(contract, func(env *Env) error {
		if got := env.BalanceOf(accounts[0]); got.Cmp(big.NewInt(100)) != 0 {
			t.Fatalf("view should read balances, got %s", got)
		}
		if err := env.Emit(pingEvent{}); err != ErrWriteInView {
			t.Fatalf("emit in view should fail, got %v", err)
		}
		if err := env.Transfer(accounts[0], big.NewInt(1)); err != ErrWriteInView {
			t.Fatalf("transfer in view should fail, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View error: %v", err)
	}
}

func TestConcurrentSubmitsSerialize(t *testing.T) {
	b, accounts := NewDevBackend(4, big.NewInt(1000))
	contract := b.Deploy("Test")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(from common.Address) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				if _, err := b.Submit(Message{From: from, To: contract, Value: big.NewInt(1)}, func(env *Env) error {
					return nil
				}); err != nil {
					t.Errorf("Submit error: %v", err)
				}
			}
		}(accounts[i])
	}
	wg.Wait()

	if b.BlockNumber() != 100 {
		t.Fatalf("expected 100 blocks, got %d", b.BlockNumber())
	}
	if b.BalanceOf(contract).Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected contract balance 100, got %s", b.BalanceOf(contract))
	}
}
