// Package ops implements the Operation Processors (OP): the three job
// handlers that realize the withdrawal and swap state machines of the
// specification's §4.4–§4.6. Each handler assumes it is running with the
// account's balance lock held across its ledger-mutating edge, which the
// ledger package itself arranges internally.
package ops

import (
	"context"
	"fmt"
	"math/big"

	"github.com/bananocoin/wban-bridge/address"
	"github.com/bananocoin/wban-bridge/bridgeerr"
	"github.com/bananocoin/wban-bridge/chain"
	"github.com/bananocoin/wban-bridge/ledger"
	"github.com/bananocoin/wban-bridge/metrics"
	"github.com/bananocoin/wban-bridge/queue"
)

// canonicalWithdrawalMessage is the literal message the client signs to
// authorize a withdrawal.
const canonicalWithdrawalMessage = `Withdraw %s BAN to my wallet "%s"`

// Processor implements the three job handlers, wired against the ledger,
// the chain collaborators, and the queue (for pending-withdrawal retries).
type Processor struct {
	store   *ledger.Store
	native  chain.NativeClient
	evm     chain.EVMClient
	q       *queue.Queue
	metrics *metrics.Recorder

	// gaslessCap is the maximum amount, in base units, the one-time
	// operator-sponsored wBAN mint (GaslessSwap) may grant. Nil or
	// non-positive disables the feature entirely.
	gaslessCap *big.Int
}

// New builds a Processor. gaslessCap configures the FreeSwapMark cap; pass
// nil to disable gasless swaps.
func New(store *ledger.Store, native chain.NativeClient, evm chain.EVMClient, q *queue.Queue, recorder *metrics.Recorder, gaslessCap *big.Int) *Processor {
	return &Processor{store: store, native: native, evm: evm, q: q, metrics: recorder, gaslessCap: gaslessCap}
}

// Handlers returns the queue.Handlers bundle wiring this processor's
// methods as job handlers.
func (p *Processor) Handlers() queue.Handlers {
	return queue.Handlers{
		Withdrawal: p.Withdraw,
		SwapToWBAN: p.SwapToWBAN,
		SwapToBAN:  p.SwapToBAN,
	}
}

// Withdraw implements the withdrawal state machine of §4.4.
func (p *Processor) Withdraw(ctx context.Context, job queue.WithdrawalJob) (string, error) {
	na := address.Native(job.NativeAddr)

	// 1. Duplicate request rejection.
	dup, err := p.store.ContainsWithdrawalRequest(ctx, na, job.TimestampMs)
	if err != nil {
		return "", fmt.Errorf("withdraw: %w", err)
	}
	if dup {
		return "", bridgeerr.ErrDuplicateRequest
	}

	// 2. Signature verification; a missing signature is rejected too.
	if job.Signature != "" {
		message := fmt.Sprintf(canonicalWithdrawalMessage, job.Amount, na)
		recovered, err := p.evm.VerifySignature(message, job.Signature)
		if err != nil || !addrsEqual(recovered, job.BlockchainAddr) {
			return "", bridgeerr.ErrInvalidSignature
		}
	} else {
		return "", bridgeerr.ErrInvalidSignature
	}

	// 3. Confirmed claim binding required.
	claimed, err := p.store.IsClaimed(ctx, na)
	if err != nil {
		return "", fmt.Errorf("withdraw: %w", err)
	}
	hasClaim, err := p.store.HasClaim(ctx, na, job.BlockchainAddr)
	if err != nil {
		return "", fmt.Errorf("withdraw: %w", err)
	}
	if !claimed || !hasClaim {
		return "", bridgeerr.ErrNotClaimed
	}

	// 4. Amount must be positive.
	amount, ok := new(big.Int).SetString(job.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		return "", bridgeerr.ErrInvalidAmount
	}

	// 5. Ledger balance must cover the amount.
	balance, err := p.store.GetBalance(ctx, na)
	if err != nil {
		return "", fmt.Errorf("withdraw: %w", err)
	}
	if balance.Cmp(amount) < 0 {
		return "", bridgeerr.ErrInsufficientBalance
	}

	// 6. Hot wallet must have funds to send.
	hotBalance, err := p.native.GetBalance(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", bridgeerr.ErrUpstreamChainFailure, err)
	}
	if hotBalance.Cmp(amount) < 0 {
		if job.Attempt == 0 {
			if err := p.q.EnqueuePendingWithdrawal(job); err != nil {
				return "", fmt.Errorf("withdraw: enqueue pending: %w", err)
			}
			log.Debugf("withdrawal for %s superseded by pending-funds retry", na)
			return "", bridgeerr.ErrSuperseded
		}
		// Second (or later) attempt that still cannot send: give up
		// quietly rather than throwing.
		log.Warnf("withdrawal for %s still underfunded on attempt %d, giving up", na, job.Attempt)
		p.q.ResolvePendingWithdrawal(na)
		return "", nil
	}

	// 7. Send the native transaction.
	hash, err := p.native.SendNative(ctx, na, amount)
	if err != nil {
		return "", fmt.Errorf("%w: %v", bridgeerr.ErrUpstreamChainFailure, err)
	}

	// 8. Commit the ledger mutation. A failure here after a successful
	// send is fatal and must not be retried, since replay would
	// double-spend; the ledger error is already wrapped in
	// ErrStoreTransactionFailure by the Store method.
	if err := p.store.StoreWithdrawal(ctx, na, amount, job.TimestampMs, hash); err != nil {
		return "", err
	}

	if job.Attempt > 0 {
		p.q.ResolvePendingWithdrawal(na)
	}

	return hash, nil
}

func addrsEqual(a, b string) bool {
	return address.EqualEVM(a, b)
}
