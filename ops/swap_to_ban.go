package ops

import (
	"context"
	"fmt"

	"github.com/bananocoin/wban-bridge/address"
	"github.com/bananocoin/wban-bridge/bridgeerr"
	"github.com/bananocoin/wban-bridge/queue"
)

// SwapToBAN implements the chain-originated wBAN→BAN redemption state
// machine of §4.6. It is triggered by the chain scanner observing a
// redemption event and must be idempotent, since the scanner may deliver
// the same event more than once across a crash-restart.
func (p *Processor) SwapToBAN(ctx context.Context, job queue.SwapToBANJob) error {
	if job.NativeAddr == "" {
		return fmt.Errorf("swap to ban: %w: empty native address for hash %s", bridgeerr.ErrInvalidEvent, job.Hash)
	}
	na := address.Native(job.NativeAddr)

	done, err := p.store.ContainsSwapToBAN(ctx, job.BlockchainAddr, job.Hash)
	if err != nil {
		return fmt.Errorf("swap to ban: %w", err)
	}
	if done {
		// Duplicate event delivery: tolerated as a no-op.
		return nil
	}

	amount, err := parseHumanAmount(job.AmountHuman)
	if err != nil {
		return fmt.Errorf("swap to ban: %w: %v", bridgeerr.ErrInvalidEvent, err)
	}

	if err := p.store.StoreSwapToBAN(ctx, na, job.BlockchainAddr, amount, job.EventTimestampSecs, job.Hash); err != nil {
		return err
	}

	if p.metrics != nil {
		p.metrics.ObserveSwapVolume("wban-to-ban", amount)
	}

	return nil
}
