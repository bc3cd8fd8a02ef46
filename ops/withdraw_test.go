package ops

import (
	"context"
	"math/big"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/bananocoin/wban-bridge/bridgeerr"
	"github.com/bananocoin/wban-bridge/chain"
	"github.com/bananocoin/wban-bridge/ledger"
	"github.com/bananocoin/wban-bridge/lock"
	"github.com/bananocoin/wban-bridge/metrics"
	"github.com/bananocoin/wban-bridge/queue"
)

// stubNative implements chain.NativeClient with caller-controlled balance
// and send behavior.
type stubNative struct {
	balance *big.Int
	sendErr error
	sent    []string
}

func (n *stubNative) SendNative(ctx context.Context, to string, amount *big.Int) (string, error) {
	if n.sendErr != nil {
		return "", n.sendErr
	}
	n.sent = append(n.sent, to)
	return "hash-" + to, nil
}

func (n *stubNative) GetBalance(ctx context.Context) (*big.Int, error) {
	return n.balance, nil
}

func (n *stubNative) SubscribeDeposits(ctx context.Context) (<-chan chain.DepositEvent, error) {
	return nil, nil
}

// stubEVM implements chain.EVMClient, recovering a fixed address for any
// signature so tests can control verification outcomes directly.
type stubEVM struct {
	recovered string
}

func (s *stubEVM) CreateMintReceipt(ctx context.Context, addr string, amount *big.Int) (string, string, *big.Int, error) {
	return "receipt-" + addr, "uuid-" + addr, big.NewInt(0), nil
}

func (s *stubEVM) RedemptionEvents(ctx context.Context, fromBlock, toBlock uint64) ([]chain.RedemptionEvent, error) {
	return nil, nil
}

func (s *stubEVM) LatestBlock(ctx context.Context) (uint64, error) {
	return 0, nil
}

func (s *stubEVM) VerifySignature(message, signature string) (string, error) {
	return s.recovered, nil
}

func (s *stubEVM) NormalizeAddress(addr string) (string, error) {
	return addr, nil
}

func newTestProcessor(t *testing.T, hotBalance *big.Int, recovered string) (*Processor, *ledger.Store, *queue.Queue) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	locks := lock.NewManager(mr.Addr(), "", 0)
	store := ledger.New(rdb, locks)

	recorder := metrics.NewRecorder(prometheus.NewRegistry())
	q, err := queue.New(mr.Addr(), recorder)
	require.NoError(t, err)

	native := &stubNative{balance: hotBalance}
	evm := &stubEVM{recovered: recovered}

	return New(store, native, evm, q, recorder, big.NewInt(50)), store, q
}

func seedClaimedBalance(t *testing.T, store *ledger.Store, native, blockchain string, amount *big.Int) {
	t.Helper()
	ctx := context.Background()
	ok, err := store.StorePendingClaim(ctx, native, blockchain)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.ConfirmClaim(ctx, native))
	require.NoError(t, store.StoreDeposit(ctx, native, amount, 1, "seed-hash"))
}

func TestWithdrawSucceeds(t *testing.T) {
	ctx := context.Background()
	p, store, _ := newTestProcessor(t, big.NewInt(1000), "0xblockchain")
	seedClaimedBalance(t, store, "ban_a", "0xblockchain", big.NewInt(1000))

	hash, err := p.Withdraw(ctx, queue.WithdrawalJob{
		NativeAddr:     "ban_a",
		BlockchainAddr: "0xblockchain",
		Amount:         "300",
		TimestampMs:    2000,
		Signature:      "sig_valid",
	})
	require.NoError(t, err)
	require.Equal(t, "hash-ban_a", hash)

	balance, err := store.GetBalance(ctx, "ban_a")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(700), balance)
}

func TestWithdrawDuplicateRequest(t *testing.T) {
	ctx := context.Background()
	p, store, _ := newTestProcessor(t, big.NewInt(1000), "0xblockchain")
	seedClaimedBalance(t, store, "ban_a", "0xblockchain", big.NewInt(1000))

	job := queue.WithdrawalJob{
		NativeAddr:     "ban_a",
		BlockchainAddr: "0xblockchain",
		Amount:         "300",
		TimestampMs:    2000,
		Signature:      "sig_valid",
	}
	_, err := p.Withdraw(ctx, job)
	require.NoError(t, err)

	_, err = p.Withdraw(ctx, job)
	require.ErrorIs(t, err, bridgeerr.ErrDuplicateRequest)
}

func TestWithdrawInvalidSignature(t *testing.T) {
	ctx := context.Background()
	p, store, _ := newTestProcessor(t, big.NewInt(1000), "0xsomeoneelse")
	seedClaimedBalance(t, store, "ban_a", "0xblockchain", big.NewInt(1000))

	_, err := p.Withdraw(ctx, queue.WithdrawalJob{
		NativeAddr:     "ban_a",
		BlockchainAddr: "0xblockchain",
		Amount:         "300",
		TimestampMs:    2000,
		Signature:      "sig_valid",
	})
	require.ErrorIs(t, err, bridgeerr.ErrInvalidSignature)
}

func TestWithdrawNotClaimed(t *testing.T) {
	ctx := context.Background()
	p, store, _ := newTestProcessor(t, big.NewInt(1000), "0xblockchain")
	require.NoError(t, store.StoreDeposit(ctx, "ban_a", big.NewInt(1000), 1, "seed-hash"))

	_, err := p.Withdraw(ctx, queue.WithdrawalJob{
		NativeAddr:     "ban_a",
		BlockchainAddr: "0xblockchain",
		Amount:         "300",
		TimestampMs:    2000,
		Signature:      "sig_valid",
	})
	require.ErrorIs(t, err, bridgeerr.ErrNotClaimed)
}

func TestWithdrawInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	p, store, _ := newTestProcessor(t, big.NewInt(1000), "0xblockchain")
	seedClaimedBalance(t, store, "ban_a", "0xblockchain", big.NewInt(100))

	_, err := p.Withdraw(ctx, queue.WithdrawalJob{
		NativeAddr:     "ban_a",
		BlockchainAddr: "0xblockchain",
		Amount:         "300",
		TimestampMs:    2000,
		Signature:      "sig_valid",
	})
	require.ErrorIs(t, err, bridgeerr.ErrInsufficientBalance)
}

func TestWithdrawInsufficientHotWalletSupersedes(t *testing.T) {
	ctx := context.Background()
	p, store, q := newTestProcessor(t, big.NewInt(10), "0xblockchain")
	seedClaimedBalance(t, store, "ban_a", "0xblockchain", big.NewInt(1000))

	_, err := p.Withdraw(ctx, queue.WithdrawalJob{
		NativeAddr:     "ban_a",
		BlockchainAddr: "0xblockchain",
		Amount:         "300",
		TimestampMs:    2000,
		Signature:      "sig_valid",
	})
	require.ErrorIs(t, err, bridgeerr.ErrSuperseded)
	require.Equal(t, int64(300), q.PendingWithdrawalsTotal().Int64())
}

func TestWithdrawSecondAttemptStillUnderfundedYieldsEmptyHash(t *testing.T) {
	ctx := context.Background()
	p, store, _ := newTestProcessor(t, big.NewInt(10), "0xblockchain")
	seedClaimedBalance(t, store, "ban_a", "0xblockchain", big.NewInt(1000))

	hash, err := p.Withdraw(ctx, queue.WithdrawalJob{
		NativeAddr:     "ban_a",
		BlockchainAddr: "0xblockchain",
		Amount:         "300",
		TimestampMs:    2000,
		Signature:      "sig_valid",
		Attempt:        1,
	})
	require.NoError(t, err)
	require.Equal(t, "", hash)
}
