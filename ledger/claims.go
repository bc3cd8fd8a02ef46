package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bananocoin/wban-bridge/address"
)

// pendingClaimTTL is the window a claim request has to be confirmed by a
// deposit before it expires and the native address becomes free to claim
// a different blockchain address.
const pendingClaimTTL = 5 * time.Minute

// HasPendingClaim reports whether nativeAddr currently has an outstanding,
// unconfirmed claim (for any blockchain address).
func (s *Store) HasPendingClaim(ctx context.Context, nativeAddr string) (bool, error) {
	keys, err := s.scanKeys(ctx, pendingClaimScanPattern(nativeAddr))
	if err != nil {
		return false, err
	}
	return len(keys) > 0, nil
}

// StorePendingClaim creates a pending claim with a 5 minute TTL, guarded by
// a conditional create (SET NX) on the exact (native, blockchain) pair: two
// concurrent requests for the same pair can never both believe they created
// it. It does not by itself enforce "at most one pending claim per native
// address" against a different blockchain address — callers that need that
// (claim.Manager.Claim) must pair this with HasPendingClaim.
func (s *Store) StorePendingClaim(ctx context.Context, nativeAddr, blockchainAddr string) (bool, error) {
	na := address.Native(nativeAddr)
	ok, err := s.rdb.SetNX(ctx, pendingClaimKey(na, blockchainAddr), "1", pendingClaimTTL).Result()
	if err != nil {
		return false, fmt.Errorf("ledger: store pending claim: %w", err)
	}
	return ok, nil
}

// pendingClaimFor returns the single pending claim key for nativeAddr, if
// any, along with the blockchain address segment it was created for.
func (s *Store) pendingClaimFor(ctx context.Context, nativeAddr string) (key, blockchainAddr string, found bool, err error) {
	keys, err := s.scanKeys(ctx, pendingClaimScanPattern(nativeAddr))
	if err != nil {
		return "", "", false, err
	}
	if len(keys) == 0 {
		return "", "", false, nil
	}
	// claim.Manager.Claim checks HasPendingClaim before creating a pending
	// claim, so normally only one exists per native address; take the
	// first match.
	key = keys[0]
	prefixLen := len(keyPendingClaimPrefix) + len(address.Native(nativeAddr)) + 1
	if prefixLen > len(key) {
		return "", "", false, fmt.Errorf("ledger: malformed pending claim key %q", key)
	}
	blockchainAddr = key[prefixLen:]
	return key, blockchainAddr, true, nil
}

// ConfirmClaim promotes the single pending claim for nativeAddr into a
// permanent ConfirmedClaim, writing the forward key, the reverse index
// entry, and deleting the pending key atomically. It is the trigger
// invoked when a first deposit arrives for an account.
func (s *Store) ConfirmClaim(ctx context.Context, nativeAddr string) error {
	na := address.Native(nativeAddr)
	pendingKey, blockchainAddr, found, err := s.pendingClaimFor(ctx, na)
	if err != nil {
		return err
	}
	if !found {
		// No pending claim to confirm; nothing to do. A deposit that
		// arrives for an account with no claim in flight is not an error
		// at the ledger layer.
		return nil
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, claimKey(na, blockchainAddr), "1", 0)
		pipe.SAdd(ctx, claimReverseIndexKey(blockchainAddr), na)
		pipe.Del(ctx, pendingKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ledger: confirm claim: %w", err)
	}
	return nil
}

// IsClaimed reports whether nativeAddr has any confirmed claim, regardless
// of which blockchain address it is bound to.
func (s *Store) IsClaimed(ctx context.Context, nativeAddr string) (bool, error) {
	na := address.Native(nativeAddr)
	keys, err := s.scanKeys(ctx, keyClaimPrefix+na+":*")
	if err != nil {
		return false, err
	}
	return len(keys) > 0, nil
}

// HasClaim reports whether the specific (nativeAddr, blockchainAddr) pair
// is confirmed. Once true for a pair, it remains true: claims are never
// retracted.
func (s *Store) HasClaim(ctx context.Context, nativeAddr, blockchainAddr string) (bool, error) {
	n, err := s.rdb.Exists(ctx, claimKey(nativeAddr, blockchainAddr)).Result()
	if err != nil {
		return false, fmt.Errorf("ledger: has claim: %w", err)
	}
	return n > 0, nil
}

// GetNativeAddressesForBlockchainAddress returns every native address
// currently bound to blockchainAddr, via the explicit reverse index rather
// than a key scan.
func (s *Store) GetNativeAddressesForBlockchainAddress(ctx context.Context, blockchainAddr string) ([]string, error) {
	members, err := s.rdb.SMembers(ctx, claimReverseIndexKey(blockchainAddr)).Result()
	if err != nil {
		return nil, fmt.Errorf("ledger: reverse index lookup: %w", err)
	}
	return members, nil
}

// scanKeys collects every key matching pattern using a cursor-based SCAN,
// avoiding the production hazard of a blocking KEYS call.
func (s *Store) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := s.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("ledger: scan %s: %w", pattern, err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}
