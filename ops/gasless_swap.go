package ops

import (
	"context"
	"fmt"
	"time"

	"github.com/bananocoin/wban-bridge/address"
	"github.com/bananocoin/wban-bridge/bridgeerr"
)

// GaslessSwap performs the one-time, operator-sponsored wBAN mint for a
// newly claimed account described by the specification's FreeSwapMark: a
// fixed amount, up to the configured cap, minted outright so a new user
// has wBAN to pay gas for their first real transaction. It never touches
// the account's BAN ledger balance, and it can only ever succeed once per
// native address.
func (p *Processor) GaslessSwap(ctx context.Context, nativeAddr, blockchainAddr string) (string, error) {
	na := address.Native(nativeAddr)

	if p.gaslessCap == nil || p.gaslessCap.Sign() <= 0 {
		return "", bridgeerr.ErrGaslessCapExceeded
	}

	hasClaim, err := p.store.HasClaim(ctx, na, blockchainAddr)
	if err != nil {
		return "", fmt.Errorf("gasless swap: %w", err)
	}
	if !hasClaim {
		return "", bridgeerr.ErrNotClaimed
	}

	used, err := p.store.HasUsedGaslessSwap(ctx, na)
	if err != nil {
		return "", fmt.Errorf("gasless swap: %w", err)
	}
	if used {
		return "", bridgeerr.ErrGaslessAllowanceUsed
	}

	receiptID, uuid, _, err := p.evm.CreateMintReceipt(ctx, blockchainAddr, p.gaslessCap)
	if err != nil {
		return "", fmt.Errorf("%w: %v", bridgeerr.ErrUpstreamChainFailure, err)
	}

	claimed, err := p.store.MarkGaslessSwapUsed(ctx, na, receiptID)
	if err != nil {
		return "", fmt.Errorf("gasless swap: %w", err)
	}
	if !claimed {
		// Lost a race against a concurrent gasless swap for the same
		// account; the receipt signed above is simply discarded.
		return "", bridgeerr.ErrGaslessAllowanceUsed
	}

	if err := p.store.StoreGaslessSwap(ctx, na, blockchainAddr, p.gaslessCap, time.Now().UnixMilli(), receiptID, uuid); err != nil {
		return "", err
	}

	if p.metrics != nil {
		p.metrics.ObserveSwapVolume("gasless", p.gaslessCap)
	}

	log.Debugf("gasless swap minted for %s -> %s (receipt %s)", na, blockchainAddr, receiptID)
	return receiptID, nil
}
