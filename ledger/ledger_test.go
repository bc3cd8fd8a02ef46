package ledger

import (
	"context"
	"math/big"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/bananocoin/wban-bridge/lock"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	locks := lock.NewManager(mr.Addr(), "", 0)
	return New(rdb, locks)
}

func TestDepositThenBalance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.StoreDeposit(ctx, "ban_a", big.NewInt(500), 1000, "h1"))

	balance, err := s.GetBalance(ctx, "ban_a")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(500), balance)

	exists, err := s.ContainsDeposit(ctx, "ban_a", "h1")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestDepositIsIdempotentOnReplayedHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, s.StoreDeposit(ctx, "ban_a", big.NewInt(500), 1000, "h1"))
	}

	balance, err := s.GetBalance(ctx, "ban_a")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(500), balance)
}

func TestDuplicateWithdrawalRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.StoreDeposit(ctx, "ban_a", big.NewInt(1000), 500, "h0"))
	require.NoError(t, s.StoreWithdrawal(ctx, "ban_a", big.NewInt(300), 2000, "h2"))

	balance, err := s.GetBalance(ctx, "ban_a")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(700), balance)

	dup, err := s.ContainsWithdrawalRequest(ctx, "ban_a", 2000)
	require.NoError(t, err)
	require.True(t, dup)
}

func TestSwapToBANIdempotency(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	amount := big.NewInt(1500000000000000000) // 1.5 BAN in base units
	for i := 0; i < 2; i++ {
		require.NoError(t, s.StoreSwapToBAN(ctx, "native_a", "blockchain_b", amount, 10, "h4"))
	}

	balance, err := s.GetBalance(ctx, "native_a")
	require.NoError(t, err)
	require.Equal(t, amount, balance)

	swaps, err := s.GetSwaps(ctx, "blockchain_b", "native_a")
	require.NoError(t, err)
	require.Len(t, swaps, 1)
}

func TestSwapToWBANDebitsBalance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.StoreDeposit(ctx, "ban_a", big.NewInt(1000), 1, "h1"))
	require.NoError(t, s.StoreSwapToWBAN(ctx, "ban_a", "0xabc", big.NewInt(400), 2, "receipt-1", "uuid-1"))

	balance, err := s.GetBalance(ctx, "ban_a")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(600), balance)
}

func TestWithdrawalRejectsInsufficientBalance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.StoreDeposit(ctx, "ban_a", big.NewInt(100), 1, "h1"))
	err := s.StoreWithdrawal(ctx, "ban_a", big.NewInt(200), 2, "h2")
	require.Error(t, err)

	balance, err := s.GetBalance(ctx, "ban_a")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(100), balance)
}

func TestCheckpointMonotonicity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetLastProcessedBlock(ctx, 100))
	block, err := s.GetLastProcessedBlock(ctx, 0)
	require.NoError(t, err)
	require.EqualValues(t, 100, block)

	require.NoError(t, s.SetLastProcessedBlock(ctx, 50))
	block, err = s.GetLastProcessedBlock(ctx, 0)
	require.NoError(t, err)
	require.EqualValues(t, 100, block, "checkpoint must not move backward")

	require.NoError(t, s.SetLastProcessedBlock(ctx, 150))
	block, err = s.GetLastProcessedBlock(ctx, 0)
	require.NoError(t, err)
	require.EqualValues(t, 150, block)
}

func TestHistoryOrderingAndCap(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 1200; i++ {
		hash := "h" + strconv.Itoa(i)
		require.NoError(t, s.StoreDeposit(ctx, "ban_a", big.NewInt(1), int64(i), hash))
	}

	deposits, err := s.GetDeposits(ctx, "ban_a")
	require.NoError(t, err)
	require.Len(t, deposits, 1000)

	for i := 1; i < len(deposits); i++ {
		require.GreaterOrEqual(t, deposits[i-1].TimestampMs, deposits[i].TimestampMs)
	}
	require.EqualValues(t, 1199, deposits[0].TimestampMs)
}
