package ledger

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// GetLastProcessedBlock returns the highest fully-processed EVM block
// height, or defaultBlock if the checkpoint has never been written.
func (s *Store) GetLastProcessedBlock(ctx context.Context, defaultBlock uint64) (uint64, error) {
	val, err := s.rdb.Get(ctx, keyLatestBlock).Result()
	if err == redis.Nil {
		return defaultBlock, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ledger: get checkpoint: %w", err)
	}
	n, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ledger: corrupt checkpoint value %q: %w", val, err)
	}
	return n, nil
}

// SetLastProcessedBlock advances the checkpoint to n, but only if n is
// strictly greater than the current value — the checkpoint is monotone
// non-decreasing (testable property 5).
func (s *Store) SetLastProcessedBlock(ctx context.Context, n uint64) error {
	current, err := s.GetLastProcessedBlock(ctx, 0)
	if err != nil {
		return err
	}
	if n <= current {
		return nil
	}
	if err := s.rdb.Set(ctx, keyLatestBlock, strconv.FormatUint(n, 10), 0).Err(); err != nil {
		return fmt.Errorf("ledger: set checkpoint: %w", err)
	}
	return nil
}
