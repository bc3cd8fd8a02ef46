package ops

import (
	"context"
	"fmt"
	"math/big"

	"github.com/bananocoin/wban-bridge/address"
	"github.com/bananocoin/wban-bridge/bridgeerr"
	"github.com/bananocoin/wban-bridge/queue"
)

// canonicalSwapToWBANMessage is the literal message the client signs to
// authorize a BAN-to-wBAN swap.
const canonicalSwapToWBANMessage = `Swap %s BAN for wBAN with BAN I deposited from my wallet "%s"`

// SwapToWBAN implements the BAN→wBAN mint-receipt state machine of §4.5.
// CreateMintReceipt is a signed authorization, not a chain transaction, so
// it is safe to retry on transient failure before the ledger is debited.
func (p *Processor) SwapToWBAN(ctx context.Context, job queue.SwapToWBANJob) (string, error) {
	na := address.Native(job.NativeAddr)

	message := fmt.Sprintf(canonicalSwapToWBANMessage, job.Amount, na)
	recovered, err := p.evm.VerifySignature(message, job.Signature)
	if err != nil || !addrsEqual(recovered, job.BlockchainAddr) {
		return "", bridgeerr.ErrInvalidSignature
	}

	hasClaim, err := p.store.HasClaim(ctx, na, job.BlockchainAddr)
	if err != nil {
		return "", fmt.Errorf("swap to wban: %w", err)
	}
	if !hasClaim {
		return "", bridgeerr.ErrNotClaimed
	}

	amount, ok := new(big.Int).SetString(job.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		return "", bridgeerr.ErrInvalidAmount
	}

	balance, err := p.store.GetBalance(ctx, na)
	if err != nil {
		return "", fmt.Errorf("swap to wban: %w", err)
	}
	if balance.Cmp(amount) < 0 {
		return "", bridgeerr.ErrInsufficientBalance
	}

	receiptID, uuid, _, err := p.evm.CreateMintReceipt(ctx, job.BlockchainAddr, amount)
	if err != nil {
		return "", fmt.Errorf("%w: %v", bridgeerr.ErrUpstreamChainFailure, err)
	}

	if err := p.store.StoreSwapToWBAN(ctx, na, job.BlockchainAddr, amount, job.TimestampMs, receiptID, uuid); err != nil {
		return "", err
	}

	if p.metrics != nil {
		p.metrics.ObserveSwapVolume("ban-to-wban", amount)
	}

	return receiptID, nil
}
