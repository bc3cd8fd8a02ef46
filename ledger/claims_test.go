package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClaimLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	has, err := s.HasPendingClaim(ctx, "ban_a")
	require.NoError(t, err)
	require.False(t, has)

	created, err := s.StorePendingClaim(ctx, "ban_a", "0xblockchainb")
	require.NoError(t, err)
	require.True(t, created)

	has, err = s.HasPendingClaim(ctx, "ban_a")
	require.NoError(t, err)
	require.True(t, has)

	// StorePendingClaim's own conditional create is keyed per (native,
	// blockchain) pair, so it alone only rejects a second attempt at the
	// exact same pair; the package-level "at most one pending claim per
	// native address, regardless of wallet" guard is HasPendingClaim,
	// enforced by the caller (see claim.Manager.Claim).
	createdAgain, err := s.StorePendingClaim(ctx, "ban_a", "0xblockchainb")
	require.NoError(t, err)
	require.False(t, createdAgain)

	require.NoError(t, s.ConfirmClaim(ctx, "ban_a"))

	claimed, err := s.IsClaimed(ctx, "ban_a")
	require.NoError(t, err)
	require.True(t, claimed)

	has, err = s.HasClaim(ctx, "ban_a", "0xblockchainb")
	require.NoError(t, err)
	require.True(t, has)

	natives, err := s.GetNativeAddressesForBlockchainAddress(ctx, "0xblockchainb")
	require.NoError(t, err)
	require.Contains(t, natives, "ban_a")

	// Pending claim must be gone after confirmation.
	has, err = s.HasPendingClaim(ctx, "ban_a")
	require.NoError(t, err)
	require.False(t, has)
}

func TestConfirmClaimWithNoPendingIsNoOp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ConfirmClaim(ctx, "ban_a"))

	claimed, err := s.IsClaimed(ctx, "ban_a")
	require.NoError(t, err)
	require.False(t, claimed)
}
