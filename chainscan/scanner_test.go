package chainscan

import (
	"context"
	"math/big"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/bananocoin/wban-bridge/chain"
	"github.com/bananocoin/wban-bridge/ledger"
	"github.com/bananocoin/wban-bridge/lock"
	"github.com/bananocoin/wban-bridge/metrics"
	"github.com/bananocoin/wban-bridge/queue"
)

type stubEVM struct {
	head   uint64
	events []chain.RedemptionEvent
}

func (s *stubEVM) CreateMintReceipt(ctx context.Context, addr string, amount *big.Int) (string, string, *big.Int, error) {
	return "", "", nil, nil
}

func (s *stubEVM) RedemptionEvents(ctx context.Context, fromBlock, toBlock uint64) ([]chain.RedemptionEvent, error) {
	var out []chain.RedemptionEvent
	for _, ev := range s.events {
		if ev.BlockHeight > fromBlock && ev.BlockHeight <= toBlock {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *stubEVM) LatestBlock(ctx context.Context) (uint64, error) {
	return s.head, nil
}

func (s *stubEVM) VerifySignature(message, signature string) (string, error) {
	return "", nil
}

func (s *stubEVM) NormalizeAddress(addr string) (string, error) {
	return addr, nil
}

func newTestScanner(t *testing.T, evm *stubEVM, safetyDepth, genesis uint64) (*Scanner, *ledger.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	locks := lock.NewManager(mr.Addr(), "", 0)
	store := ledger.New(rdb, locks)

	recorder := metrics.NewRecorder(prometheus.NewRegistry())
	q, err := queue.New(mr.Addr(), recorder)
	require.NoError(t, err)
	require.NoError(t, q.RegisterHandlers(queue.Handlers{
		Withdrawal: func(ctx context.Context, job queue.WithdrawalJob) (string, error) { return "", nil },
		SwapToWBAN: func(ctx context.Context, job queue.SwapToWBANJob) (string, error) { return "", nil },
		SwapToBAN:  func(ctx context.Context, job queue.SwapToBANJob) error { return nil },
	}))

	return New(store, evm, q, recorder, safetyDepth, 0, genesis), store
}

func TestTickAdvancesCheckpointAndEnqueues(t *testing.T) {
	ctx := context.Background()
	evm := &stubEVM{
		head: 120,
		events: []chain.RedemptionEvent{
			{BlockchainAddr: "0xa", NativeAddr: "ban_a", AmountHuman: "1.5", TxnHash: "h1", BlockHeight: 50, EventTimestampSecs: 10},
		},
	}
	s, store := newTestScanner(t, evm, 12, 0)

	require.NoError(t, s.Tick(ctx))

	checkpoint, err := store.GetLastProcessedBlock(ctx, 0)
	require.NoError(t, err)
	require.EqualValues(t, 108, checkpoint) // 120 - 12
}

func TestTickNoOpWhenWindowEmpty(t *testing.T) {
	ctx := context.Background()
	evm := &stubEVM{head: 5}
	s, store := newTestScanner(t, evm, 12, 0)

	require.NoError(t, s.Tick(ctx))

	checkpoint, err := store.GetLastProcessedBlock(ctx, 0)
	require.NoError(t, err)
	require.EqualValues(t, 0, checkpoint)
}

func TestTickDoesNotRewindOnSecondCallWithSameHead(t *testing.T) {
	ctx := context.Background()
	evm := &stubEVM{head: 120}
	s, store := newTestScanner(t, evm, 12, 0)

	require.NoError(t, s.Tick(ctx))
	first, err := store.GetLastProcessedBlock(ctx, 0)
	require.NoError(t, err)

	require.NoError(t, s.Tick(ctx))
	second, err := store.GetLastProcessedBlock(ctx, 0)
	require.NoError(t, err)

	require.Equal(t, first, second)
}
