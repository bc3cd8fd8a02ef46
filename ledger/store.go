// Package ledger is the Ledger Store (LS): persisted balances,
// deposit/withdrawal/swap records, claim records, and the chain scan
// checkpoint. LS exclusively owns all persisted state; every other
// component interacts with it only through the exported methods of Store.
//
// Every mutation sequence for a given native address is protected by a
// named lock from the lock package, and every multi-key write within a
// lock-protected block commits through a single Redis pipeline so it is
// atomic relative to every other Store operation on that account.
package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/redis/go-redis/v9"

	"github.com/bananocoin/wban-bridge/address"
	"github.com/bananocoin/wban-bridge/bridgeerr"
	"github.com/bananocoin/wban-bridge/lock"
)

// Store is the Ledger Store. It normalizes every address to its canonical
// form before using it as a key segment, per the design notes on address
// normalization.
type Store struct {
	rdb   *redis.Client
	locks *lock.Manager
}

// New builds a Store over an existing Redis client and lock manager. The
// two share the same Redis deployment but are independent collaborators:
// the lock manager never touches ledger keys directly.
func New(rdb *redis.Client, locks *lock.Manager) *Store {
	return &Store{rdb: rdb, locks: locks}
}

// GetBalance returns the current ledger balance for nativeAddr, or zero if
// the account has never received a deposit. Per the adopted design note,
// this is a lock-free read: it accepts eventual consistency in exchange for
// not contending with mutators on the hot balance-read path.
func (s *Store) GetBalance(ctx context.Context, nativeAddr string) (*big.Int, error) {
	val, err := s.rdb.Get(ctx, balanceKey(nativeAddr)).Result()
	if err == redis.Nil {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: get balance: %w", err)
	}

	amount, ok := new(big.Int).SetString(val, 10)
	if !ok {
		return nil, fmt.Errorf("ledger: corrupt balance value for %s: %q",
			address.Native(nativeAddr), val)
	}
	return amount, nil
}

// setBalanceCmd is a helper used inside pipelines; it never runs outside a
// lock-protected block.
func setBalanceCmd(pipe redis.Pipeliner, nativeAddr string, amount *big.Int) {
	pipe.Set(context.Background(), balanceKey(nativeAddr), amount.String(), 0)
}

// StoreDeposit records a confirmed BAN deposit. Under the balance:<addr>
// lock it re-checks ContainsDeposit first so a re-delivered deposit hash is
// a no-op rather than a double credit, then reads the current balance,
// adds amount, writes the new balance, appends hash to the deposits
// sequence scored by timestampMs, and writes the matching audit entry —
// all three writes commit in a single pipeline.
func (s *Store) StoreDeposit(ctx context.Context, nativeAddr string, amount *big.Int, timestampMs int64, hash string) error {
	na := address.Native(nativeAddr)
	resource := lock.BalanceResource(na)

	return s.locks.With(ctx, resource, lock.DepositTTL, func() error {
		exists, err := s.ContainsDeposit(ctx, na, hash)
		if err != nil {
			return err
		}
		if exists {
			log.Warnf("deposit %s already recorded for %s, ignoring duplicate delivery", hash, na)
			return nil
		}

		current, err := s.GetBalance(ctx, na)
		if err != nil {
			return err
		}
		newBalance := new(big.Int).Add(current, amount)

		_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			setBalanceCmd(pipe, na, newBalance)
			pipe.ZAdd(ctx, depositsKey(na), redis.Z{Score: float64(timestampMs), Member: hash})
			writeAuditCmd(pipe, hash, auditEntry{
				Type:        auditTypeDeposit,
				NativeAddr:  na,
				TxnHash:     hash,
				Amount:      amount.String(),
				TimestampMs: timestampMs,
			})
			return nil
		})
		if err != nil {
			return fmt.Errorf("%w: store deposit: %v", bridgeerr.ErrStoreTransactionFailure, err)
		}
		return nil
	})
}

// ContainsDeposit is a membership test against the deposits sequence.
func (s *Store) ContainsDeposit(ctx context.Context, nativeAddr, hash string) (bool, error) {
	score, err := s.rdb.ZScore(ctx, depositsKey(nativeAddr), hash).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger: contains deposit: %w", err)
	}
	_ = score
	return true, nil
}

// StoreWithdrawal records a BAN withdrawal send. Same atomic pattern as
// StoreDeposit, but subtracts amount and scores the withdrawals sequence
// entry by the client-supplied timestampMs, which doubles as the
// idempotency key alongside nativeAddr.
func (s *Store) StoreWithdrawal(ctx context.Context, nativeAddr string, amount *big.Int, timestampMs int64, hash string) error {
	na := address.Native(nativeAddr)
	resource := lock.BalanceResource(na)

	return s.locks.With(ctx, resource, lock.WithdrawalTTL, func() error {
		current, err := s.GetBalance(ctx, na)
		if err != nil {
			return err
		}
		newBalance := new(big.Int).Sub(current, amount)
		if newBalance.Sign() < 0 {
			return bridgeerr.ErrInsufficientBalance
		}

		_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			setBalanceCmd(pipe, na, newBalance)
			pipe.ZAdd(ctx, withdrawalsKey(na), redis.Z{Score: float64(timestampMs), Member: hash})
			writeAuditCmd(pipe, hash, auditEntry{
				Type:        auditTypeWithdrawal,
				NativeAddr:  na,
				TxnHash:     hash,
				Amount:      amount.String(),
				TimestampMs: timestampMs,
			})
			return nil
		})
		if err != nil {
			return fmt.Errorf("%w: store withdrawal: %v", bridgeerr.ErrStoreTransactionFailure, err)
		}
		return nil
	})
}

// ContainsWithdrawalRequest is an exact-timestamp membership test used to
// reject duplicate withdrawal requests before any side effect runs.
func (s *Store) ContainsWithdrawalRequest(ctx context.Context, nativeAddr string, timestampMs int64) (bool, error) {
	members, err := s.rdb.ZRangeByScore(ctx, withdrawalsKey(nativeAddr), &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", timestampMs),
		Max: fmt.Sprintf("%d", timestampMs),
	}).Result()
	if err != nil {
		return false, fmt.Errorf("ledger: contains withdrawal request: %w", err)
	}
	return len(members) > 0, nil
}
