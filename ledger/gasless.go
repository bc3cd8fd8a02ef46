package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/bananocoin/wban-bridge/address"
	"github.com/bananocoin/wban-bridge/bridgeerr"
)

// HasUsedGaslessSwap reports whether nativeAddr has already consumed its
// one-time operator-sponsored wBAN mint.
func (s *Store) HasUsedGaslessSwap(ctx context.Context, nativeAddr string) (bool, error) {
	n, err := s.rdb.Exists(ctx, gaslessKey(nativeAddr)).Result()
	if err != nil {
		return false, fmt.Errorf("ledger: has used gasless swap: %w", err)
	}
	return n > 0, nil
}

// MarkGaslessSwapUsed records txnID as the FreeSwapMark consumed by
// nativeAddr. The conditional create (SET NX) is the sole guard against two
// concurrent gasless swaps for the same account both succeeding: only the
// first caller observes used=true.
func (s *Store) MarkGaslessSwapUsed(ctx context.Context, nativeAddr, txnID string) (bool, error) {
	na := address.Native(nativeAddr)
	ok, err := s.rdb.SetNX(ctx, gaslessKey(na), txnID, 0).Result()
	if err != nil {
		return false, fmt.Errorf("ledger: mark gasless swap used: %w", err)
	}
	return ok, nil
}

// StoreGaslessSwap writes the audit entry for a one-time operator-sponsored
// wBAN mint. Unlike StoreSwapToWBAN it never touches the native-coin
// balance: the sponsored amount is minted outright, not redeemed against a
// balance the new account may not yet hold.
func (s *Store) StoreGaslessSwap(ctx context.Context, nativeAddr, blockchainAddr string, amount *big.Int, timestampMs int64, receiptID, uuid string) error {
	na := address.Native(nativeAddr)
	entry := auditEntry{
		Type:           auditTypeGasless,
		NativeAddr:     na,
		BlockchainAddr: blockchainAddr,
		ReceiptID:      receiptID,
		UUID:           uuid,
		Amount:         amount.String(),
		TimestampMs:    timestampMs,
	}
	if err := s.rdb.HSet(ctx, auditKey(receiptID), entry.toFields()).Err(); err != nil {
		return fmt.Errorf("%w: store gasless swap: %v", bridgeerr.ErrStoreTransactionFailure, err)
	}
	return nil
}
