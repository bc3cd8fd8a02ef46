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

// StoreSwapToWBAN debits the ledger for a BAN->wBAN swap and records the
// mint receipt the caller already obtained from the EVM collaborator. It is
// protected by the swaps:ban-to-wban:<addr> lock rather than the plain
// balance lock, matching the specification's lock naming for this path.
func (s *Store) StoreSwapToWBAN(ctx context.Context, nativeAddr, blockchainAddr string, amount *big.Int, timestampMs int64, receiptID, uuid string) error {
	na := address.Native(nativeAddr)
	resource := lock.SwapToWBANResource(na)

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
			pipe.ZAdd(ctx, swapToWBANKey(na), redis.Z{Score: float64(timestampMs), Member: receiptID})
			writeAuditCmd(pipe, receiptID, auditEntry{
				Type:           auditTypeSwapToWBAN,
				NativeAddr:     na,
				BlockchainAddr: blockchainAddr,
				ReceiptID:      receiptID,
				UUID:           uuid,
				Amount:         amount.String(),
				TimestampMs:    timestampMs,
			})
			return nil
		})
		if err != nil {
			return fmt.Errorf("%w: store swap-to-wban: %v", bridgeerr.ErrStoreTransactionFailure, err)
		}
		return nil
	})
}

// ContainsSwapToBAN is a membership test on the wban-to-ban sequence keyed
// by blockchain address, used to make redemption-event replay idempotent.
func (s *Store) ContainsSwapToBAN(ctx context.Context, blockchainAddr, hash string) (bool, error) {
	_, err := s.rdb.ZScore(ctx, swapToBANKey(blockchainAddr), hash).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger: contains swap-to-ban: %w", err)
	}
	return true, nil
}

// StoreSwapToBAN credits the ledger for a wBAN->BAN redemption event. It
// re-checks idempotency under the balance:<native_addr> lock before
// mutating anything: if the hash is already recorded this is a no-op, which
// is how duplicate chain-event delivery is tolerated (testable property 2).
func (s *Store) StoreSwapToBAN(ctx context.Context, nativeAddr, blockchainAddr string, amount *big.Int, eventTimestampSecs int64, hash string) error {
	na := address.Native(nativeAddr)
	resource := lock.BalanceResource(na)

	return s.locks.With(ctx, resource, lock.WithdrawalTTL, func() error {
		exists, err := s.ContainsSwapToBAN(ctx, blockchainAddr, hash)
		if err != nil {
			return err
		}
		if exists {
			log.Warnf("swap-to-ban %s already recorded for %s, ignoring duplicate delivery",
				hash, blockchainAddr)
			return nil
		}

		current, err := s.GetBalance(ctx, na)
		if err != nil {
			return err
		}
		newBalance := new(big.Int).Add(current, amount)

		_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			setBalanceCmd(pipe, na, newBalance)
			pipe.ZAdd(ctx, swapToBANKey(blockchainAddr), redis.Z{
				Score:  float64(eventTimestampSecs * 1000),
				Member: hash,
			})
			writeAuditCmd(pipe, hash, auditEntry{
				Type:           auditTypeSwapToBAN,
				NativeAddr:     na,
				BlockchainAddr: blockchainAddr,
				TxnHash:        hash,
				Amount:         amount.String(),
				TimestampMs:    eventTimestampSecs * 1000,
			})
			return nil
		})
		if err != nil {
			return fmt.Errorf("%w: store swap-to-ban: %v", bridgeerr.ErrStoreTransactionFailure, err)
		}
		return nil
	})
}
