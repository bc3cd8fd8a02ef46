package ops

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bananocoin/wban-bridge/bridgeerr"
	"github.com/bananocoin/wban-bridge/queue"
)

func TestSwapToWBANSucceeds(t *testing.T) {
	ctx := context.Background()
	p, store, _ := newTestProcessor(t, big.NewInt(0), "0xblockchain")
	seedClaimedBalance(t, store, "ban_a", "0xblockchain", big.NewInt(1000))

	receiptID, err := p.SwapToWBAN(ctx, queue.SwapToWBANJob{
		NativeAddr:     "ban_a",
		BlockchainAddr: "0xblockchain",
		Amount:         "400",
		TimestampMs:    2000,
		Signature:      "sig_valid",
	})
	require.NoError(t, err)
	require.Equal(t, "receipt-0xblockchain", receiptID)

	balance, err := store.GetBalance(ctx, "ban_a")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(600), balance)
}

func TestSwapToWBANNotClaimed(t *testing.T) {
	ctx := context.Background()
	p, store, _ := newTestProcessor(t, big.NewInt(0), "0xblockchain")
	require.NoError(t, store.StoreDeposit(ctx, "ban_a", big.NewInt(1000), 1, "seed-hash"))

	_, err := p.SwapToWBAN(ctx, queue.SwapToWBANJob{
		NativeAddr:     "ban_a",
		BlockchainAddr: "0xblockchain",
		Amount:         "400",
		TimestampMs:    2000,
		Signature:      "sig_valid",
	})
	require.ErrorIs(t, err, bridgeerr.ErrNotClaimed)
}

func TestSwapToWBANInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	p, store, _ := newTestProcessor(t, big.NewInt(0), "0xblockchain")
	seedClaimedBalance(t, store, "ban_a", "0xblockchain", big.NewInt(100))

	_, err := p.SwapToWBAN(ctx, queue.SwapToWBANJob{
		NativeAddr:     "ban_a",
		BlockchainAddr: "0xblockchain",
		Amount:         "400",
		TimestampMs:    2000,
		Signature:      "sig_valid",
	})
	require.ErrorIs(t, err, bridgeerr.ErrInsufficientBalance)
}

func TestSwapToBANCreditsBalanceAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p, store, _ := newTestProcessor(t, big.NewInt(0), "0xblockchain")

	job := queue.SwapToBANJob{
		BlockchainAddr:     "0xblockchain",
		NativeAddr:         "ban_a",
		AmountHuman:        "1.5",
		Hash:               "h4",
		EventTimestampSecs: 10,
	}

	require.NoError(t, p.SwapToBAN(ctx, job))
	// Redelivery of the same event must be tolerated as a no-op.
	require.NoError(t, p.SwapToBAN(ctx, job))

	balance, err := store.GetBalance(ctx, "ban_a")
	require.NoError(t, err)
	expected := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	expected.Mul(expected, big.NewInt(3))
	expected.Div(expected, big.NewInt(2))
	require.Equal(t, expected, balance)
}

func TestGaslessSwapSucceedsOnceThenExhausted(t *testing.T) {
	ctx := context.Background()
	p, store, _ := newTestProcessor(t, big.NewInt(0), "0xblockchain")
	ok, err := store.StorePendingClaim(ctx, "ban_a", "0xblockchain")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.ConfirmClaim(ctx, "ban_a"))

	receiptID, err := p.GaslessSwap(ctx, "ban_a", "0xblockchain")
	require.NoError(t, err)
	require.Equal(t, "receipt-0xblockchain", receiptID)

	// Balance is untouched: the sponsored mint is not a balance redemption.
	balance, err := store.GetBalance(ctx, "ban_a")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(0), balance)

	_, err = p.GaslessSwap(ctx, "ban_a", "0xblockchain")
	require.ErrorIs(t, err, bridgeerr.ErrGaslessAllowanceUsed)
}

func TestGaslessSwapRequiresClaim(t *testing.T) {
	ctx := context.Background()
	p, _, _ := newTestProcessor(t, big.NewInt(0), "0xblockchain")

	_, err := p.GaslessSwap(ctx, "ban_a", "0xblockchain")
	require.ErrorIs(t, err, bridgeerr.ErrNotClaimed)
}

func TestSwapToBANRejectsEmptyNativeAddr(t *testing.T) {
	ctx := context.Background()
	p, _, _ := newTestProcessor(t, big.NewInt(0), "0xblockchain")

	err := p.SwapToBAN(ctx, queue.SwapToBANJob{
		BlockchainAddr:     "0xblockchain",
		NativeAddr:         "",
		AmountHuman:        "1.5",
		Hash:               "h4",
		EventTimestampSecs: 10,
	})
	require.ErrorIs(t, err, bridgeerr.ErrInvalidEvent)
}
