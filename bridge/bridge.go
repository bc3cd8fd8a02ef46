// Package bridge wires the Ledger Store, distributed lock manager, claim
// manager, per-account queue, operation processors, and chain scanner into
// a single running process, the way the teacher's root package wires its
// subsystems into the running node.
package bridge

import (
	"context"
	"fmt"
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/bananocoin/wban-bridge/chain"
	"github.com/bananocoin/wban-bridge/chainscan"
	"github.com/bananocoin/wban-bridge/claim"
	"github.com/bananocoin/wban-bridge/config"
	"github.com/bananocoin/wban-bridge/ledger"
	"github.com/bananocoin/wban-bridge/lock"
	"github.com/bananocoin/wban-bridge/metrics"
	"github.com/bananocoin/wban-bridge/ops"
	"github.com/bananocoin/wban-bridge/queue"
)

// Bridge is the fully-wired running instance of the custodial core: the
// operation-serialization and ledger-consistency subsystem described by
// the specification, ready to have its queue workers launched and its
// chain scanner started.
type Bridge struct {
	cfg *config.Config

	Store   *ledger.Store
	Locks   *lock.Manager
	Queue   *queue.Queue
	Claims  *claim.Manager
	Ops     *ops.Processor
	Scanner *chainscan.Scanner
	Metrics *metrics.Recorder
}

// New builds a Bridge from cfg and the chain-facing collaborators the
// caller owns. native, evm, and blacklist are supplied by the caller
// because their concrete implementations live outside the core: the
// specification's component design stops at the chain.NativeClient,
// chain.EVMClient, and chain.Blacklist interfaces.
func New(cfg *config.Config, native chain.NativeClient, evm chain.EVMClient, blacklist chain.Blacklist, reg prometheus.Registerer) (*Bridge, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	locks := lock.NewManager(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	store := ledger.New(rdb, locks)

	recorder := metrics.NewRecorder(reg)

	q, err := queue.New(cfg.Redis.Addr, recorder)
	if err != nil {
		return nil, fmt.Errorf("bridge: new queue: %w", err)
	}

	gaslessCap, ok := new(big.Int).SetString(cfg.GaslessSwapCapBaseUnits, 10)
	if !ok {
		return nil, fmt.Errorf("bridge: invalid gasless swap cap %q", cfg.GaslessSwapCapBaseUnits)
	}

	claims := claim.New(store, evm, blacklist)
	processor := ops.New(store, native, evm, q, recorder, gaslessCap)

	if err := q.RegisterHandlers(processor.Handlers()); err != nil {
		return nil, fmt.Errorf("bridge: register handlers: %w", err)
	}

	scanner := chainscan.New(store, evm, q, recorder, cfg.ScanSafetyDepth, cfg.ScanInterval, cfg.GenesisBlock)

	return &Bridge{
		cfg:     cfg,
		Store:   store,
		Locks:   locks,
		Queue:   q,
		Claims:  claims,
		Ops:     processor,
		Scanner: scanner,
		Metrics: recorder,
	}, nil
}

// Run starts the chain scanner loop; it blocks until ctx is canceled. The
// per-account queue workers are launched lazily by the Queue itself as
// jobs are enqueued, so there is nothing else to start here.
func (b *Bridge) Run(ctx context.Context) {
	brdgLog.Infof("bridge starting chain scan loop (safety depth %d, interval %s)",
		b.cfg.ScanSafetyDepth, b.cfg.ScanInterval)
	b.Scanner.Run(ctx)
}

// Claim runs the claim state machine for a user-submitted link request.
func (b *Bridge) Claim(ctx context.Context, nativeAddr, blockchainAddr, signature string) (claim.Result, error) {
	result, err := b.Claims.Claim(ctx, nativeAddr, blockchainAddr, signature)
	if b.Metrics != nil {
		b.Metrics.ObserveClaim(result.String())
	}
	return result, err
}

// EnqueueWithdrawal submits a withdrawal request to the per-account queue.
func (b *Bridge) EnqueueWithdrawal(job queue.WithdrawalJob) error {
	return b.Queue.EnqueueWithdrawal(job)
}

// EnqueueSwapToWBAN submits a BAN->wBAN swap request to the per-account
// queue.
func (b *Bridge) EnqueueSwapToWBAN(job queue.SwapToWBANJob) error {
	return b.Queue.EnqueueSwapToWBAN(job)
}

// GaslessSwap performs the one-time operator-sponsored wBAN mint for a
// newly claimed account, up to the configured cap.
func (b *Bridge) GaslessSwap(ctx context.Context, nativeAddr, blockchainAddr string) (string, error) {
	return b.Ops.GaslessSwap(ctx, nativeAddr, blockchainAddr)
}

// EVMExplorerLink returns the operator-facing block explorer URL for an
// EVM transaction hash, using the process's configured explorer base URL.
func (b *Bridge) EVMExplorerLink(hash string) string {
	return ledger.EVMExplorerLink(b.cfg.ExplorerBaseURL, hash)
}

// RecordDeposit stores an observed native-coin deposit and, for a
// native address with no confirmed claim yet, promotes its single pending
// claim per §4.7 ("the first deposit binds the claim").
func (b *Bridge) RecordDeposit(ctx context.Context, ev chain.DepositEvent) error {
	if err := b.Store.StoreDeposit(ctx, ev.NativeAddr, ev.Amount, ev.TimestampMs, ev.TxnHash); err != nil {
		return fmt.Errorf("bridge: record deposit: %w", err)
	}
	claimed, err := b.Store.IsClaimed(ctx, ev.NativeAddr)
	if err != nil {
		return fmt.Errorf("bridge: check claim on deposit: %w", err)
	}
	if claimed {
		return nil
	}
	if err := b.Claims.Confirm(ctx, ev.NativeAddr); err != nil {
		return fmt.Errorf("bridge: confirm claim on deposit: %w", err)
	}
	return nil
}
