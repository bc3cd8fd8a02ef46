package ledger

import (
	"context"
	"fmt"
	"sort"
)

// maxHistoryEntries bounds every history listing to the most recent 1000
// entries, matching the scenario in the specification's testable
// properties (inserting 1200 deposits yields exactly 1000 back).
const maxHistoryEntries = 1000

// DepositRecord is a single hydrated deposit entry returned from history.
type DepositRecord struct {
	NativeAddr  string
	TxnHash     string
	Amount      string
	TimestampMs int64
}

// WithdrawalRecord is a single hydrated withdrawal entry returned from
// history.
type WithdrawalRecord struct {
	NativeAddr  string
	TxnHash     string
	Amount      string
	TimestampMs int64
}

// SwapRecord is a single hydrated swap entry returned from history, in
// either direction.
type SwapRecord struct {
	Direction      string // "ban-to-wban" or "wban-to-ban"
	NativeAddr     string
	BlockchainAddr string
	ReceiptID      string
	TxnHash        string
	Amount         string
	TimestampMs    int64
}

// GetDeposits returns the most recent (at most maxHistoryEntries) deposits
// for nativeAddr, newest first.
func (s *Store) GetDeposits(ctx context.Context, nativeAddr string) ([]DepositRecord, error) {
	hashes, err := s.rdb.ZRevRangeWithScores(ctx, depositsKey(nativeAddr), 0, maxHistoryEntries-1).Result()
	if err != nil {
		return nil, fmt.Errorf("ledger: get deposits: %w", err)
	}

	records := make([]DepositRecord, 0, len(hashes))
	for _, z := range hashes {
		hash, _ := z.Member.(string)
		entry, err := s.getAudit(ctx, hash)
		if err != nil {
			return nil, err
		}
		records = append(records, DepositRecord{
			NativeAddr:  entry.NativeAddr,
			TxnHash:     hash,
			Amount:      entry.Amount,
			TimestampMs: int64(z.Score),
		})
	}
	return records, nil
}

// GetWithdrawals returns the most recent (at most maxHistoryEntries)
// withdrawals for nativeAddr, newest first.
func (s *Store) GetWithdrawals(ctx context.Context, nativeAddr string) ([]WithdrawalRecord, error) {
	hashes, err := s.rdb.ZRevRangeWithScores(ctx, withdrawalsKey(nativeAddr), 0, maxHistoryEntries-1).Result()
	if err != nil {
		return nil, fmt.Errorf("ledger: get withdrawals: %w", err)
	}

	records := make([]WithdrawalRecord, 0, len(hashes))
	for _, z := range hashes {
		hash, _ := z.Member.(string)
		entry, err := s.getAudit(ctx, hash)
		if err != nil {
			return nil, err
		}
		records = append(records, WithdrawalRecord{
			NativeAddr:  entry.NativeAddr,
			TxnHash:     hash,
			Amount:      entry.Amount,
			TimestampMs: int64(z.Score),
		})
	}
	return records, nil
}

// GetSwaps returns the most recent (at most maxHistoryEntries) swaps in
// either direction touching blockchainAddr and/or nativeAddr, newest first.
// It is the concatenation of the ban-to-wban and wban-to-ban sequences,
// each independently capped before merging.
func (s *Store) GetSwaps(ctx context.Context, blockchainAddr, nativeAddr string) ([]SwapRecord, error) {
	toWban, err := s.rdb.ZRevRangeWithScores(ctx, swapToWBANKey(nativeAddr), 0, maxHistoryEntries-1).Result()
	if err != nil {
		return nil, fmt.Errorf("ledger: get swaps (to wban): %w", err)
	}
	toBan, err := s.rdb.ZRevRangeWithScores(ctx, swapToBANKey(blockchainAddr), 0, maxHistoryEntries-1).Result()
	if err != nil {
		return nil, fmt.Errorf("ledger: get swaps (to ban): %w", err)
	}

	records := make([]SwapRecord, 0, len(toWban)+len(toBan))
	for _, z := range toWban {
		receipt, _ := z.Member.(string)
		entry, err := s.getAudit(ctx, receipt)
		if err != nil {
			return nil, err
		}
		records = append(records, SwapRecord{
			Direction:      "ban-to-wban",
			NativeAddr:     entry.NativeAddr,
			BlockchainAddr: entry.BlockchainAddr,
			ReceiptID:      receipt,
			Amount:         entry.Amount,
			TimestampMs:    int64(z.Score),
		})
	}
	for _, z := range toBan {
		hash, _ := z.Member.(string)
		entry, err := s.getAudit(ctx, hash)
		if err != nil {
			return nil, err
		}
		records = append(records, SwapRecord{
			Direction:      "wban-to-ban",
			NativeAddr:     entry.NativeAddr,
			BlockchainAddr: entry.BlockchainAddr,
			TxnHash:        hash,
			Amount:         entry.Amount,
			TimestampMs:    int64(z.Score),
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].TimestampMs > records[j].TimestampMs
	})
	if len(records) > maxHistoryEntries {
		records = records[:maxHistoryEntries]
	}
	return records, nil
}
