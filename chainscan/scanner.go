// Package chainscan implements the Chain Scanner (CS): the poller that
// observes wBAN-burn-for-BAN redemption events on the EVM chain and
// enqueues one swap-to-BAN job per event, advancing the ledger's
// checkpoint monotonically so that a crash-restart resumes rather than
// reprocesses from genesis.
package chainscan

import (
	"context"
	"fmt"
	"time"

	"github.com/bananocoin/wban-bridge/chain"
	"github.com/bananocoin/wban-bridge/ledger"
	"github.com/bananocoin/wban-bridge/metrics"
	"github.com/bananocoin/wban-bridge/queue"
)

// Scanner polls the EVM collaborator for redemption events in ascending
// block order and turns each into a queued swap-to-BAN job.
type Scanner struct {
	store   *ledger.Store
	evm     chain.EVMClient
	q       *queue.Queue
	metrics *metrics.Recorder

	safetyDepth  uint64
	pollInterval time.Duration
	genesisBlock uint64
}

// New builds a Scanner. safetyDepth is the number of confirmations to hold
// back from the chain head before a block is considered final enough to
// scan; genesisBlock is where scanning starts when no checkpoint exists
// yet.
func New(store *ledger.Store, evm chain.EVMClient, q *queue.Queue, recorder *metrics.Recorder, safetyDepth uint64, pollInterval time.Duration, genesisBlock uint64) *Scanner {
	return &Scanner{
		store:        store,
		evm:          evm,
		q:            q,
		metrics:      recorder,
		safetyDepth:  safetyDepth,
		pollInterval: pollInterval,
		genesisBlock: genesisBlock,
	}
}

// Run polls on pollInterval until ctx is canceled. Each tick's error is
// logged and swallowed so a transient RPC failure does not kill the
// scanner loop; the next tick simply retries from the last committed
// checkpoint.
func (s *Scanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if err := s.Tick(ctx); err != nil {
			log.Errorf("chain scan tick failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Tick performs a single scan-and-advance cycle: it computes the
// scannable window (checkpoint, head-safetyDepth], enqueues one
// swap-to-BAN job per redemption observed, and advances the checkpoint.
// It returns without enqueuing or advancing anything if the window is
// empty.
func (s *Scanner) Tick(ctx context.Context) error {
	checkpoint, err := s.store.GetLastProcessedBlock(ctx, s.genesisBlock)
	if err != nil {
		return fmt.Errorf("chainscan: read checkpoint: %w", err)
	}

	head, err := s.evm.LatestBlock(ctx)
	if err != nil {
		return fmt.Errorf("chainscan: latest block: %w", err)
	}

	if head < s.safetyDepth {
		return nil
	}
	target := head - s.safetyDepth
	if target <= checkpoint {
		return nil
	}

	events, err := s.evm.RedemptionEvents(ctx, checkpoint, target)
	if err != nil {
		return fmt.Errorf("chainscan: redemption events (%d,%d]: %w", checkpoint, target, err)
	}

	for _, ev := range events {
		job := queue.SwapToBANJob{
			BlockchainAddr:     ev.BlockchainAddr,
			NativeAddr:         ev.NativeAddr,
			AmountHuman:        ev.AmountHuman,
			Hash:               ev.TxnHash,
			EventTimestampSecs: ev.EventTimestampSecs,
		}
		if err := s.q.EnqueueSwapToBAN(job); err != nil {
			return fmt.Errorf("chainscan: enqueue swap-to-ban for %s: %w", ev.TxnHash, err)
		}
	}

	if err := s.store.SetLastProcessedBlock(ctx, target); err != nil {
		return fmt.Errorf("chainscan: advance checkpoint to %d: %w", target, err)
	}

	if s.metrics != nil {
		s.metrics.SetCheckpointHeight(target)
	}

	log.Debugf("chain scan advanced checkpoint %d -> %d, enqueued %d redemption(s)",
		checkpoint, target, len(events))
	return nil
}
