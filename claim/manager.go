// Package claim implements the Claim Manager (CM): the ordered checks that
// bind a native BAN address to an EVM blockchain address, and the
// confirmation step a first deposit triggers.
package claim

import (
	"context"
	"fmt"

	"github.com/bananocoin/wban-bridge/address"
	"github.com/bananocoin/wban-bridge/chain"
	"github.com/bananocoin/wban-bridge/ledger"
)

// canonicalClaimMessage is the literal message format the user must sign
// with the blockchain address's private key to prove ownership.
const canonicalClaimMessage = `I hereby claim that the BAN address "%s" is mine`

// Result enumerates the outcomes of a claim attempt. Ordering of the checks
// that produce these is material and is covered by the package's tests.
type Result int

const (
	// Ok means a new pending claim was created.
	Ok Result = iota
	// AlreadyDone means the pair is already a confirmed claim.
	AlreadyDone
	// InvalidSignature means the signature did not recover to
	// blockchainAddr.
	InvalidSignature
	// InvalidOwner means a pending claim already exists for nativeAddr,
	// whether under a different blockchain address or the same one.
	InvalidOwner
	// Blacklisted means the wallet blacklist rejected nativeAddr.
	Blacklisted
	// Error means an unexpected failure occurred; see the accompanying
	// error value.
	Error
)

// String implements fmt.Stringer for log-friendly result rendering.
func (r Result) String() string {
	switch r {
	case Ok:
		return "Ok"
	case AlreadyDone:
		return "AlreadyDone"
	case InvalidSignature:
		return "InvalidSignature"
	case InvalidOwner:
		return "InvalidOwner"
	case Blacklisted:
		return "Blacklisted"
	default:
		return "Error"
	}
}

// Manager implements the claim/confirm state machine described in the
// specification's §4.7.
type Manager struct {
	store     *ledger.Store
	evm       chain.EVMClient
	blacklist chain.Blacklist
}

// New builds a claim Manager.
func New(store *ledger.Store, evm chain.EVMClient, blacklist chain.Blacklist) *Manager {
	return &Manager{store: store, evm: evm, blacklist: blacklist}
}

// Claim runs the ordered checks of §4.7 against a claim request and, on
// success, creates a pending claim with a 5 minute TTL.
func (m *Manager) Claim(ctx context.Context, nativeAddr, blockchainAddr, signature string) (Result, error) {
	na := address.Native(nativeAddr)

	// 1. Signature must recover to the claimed blockchain address.
	message := fmt.Sprintf(canonicalClaimMessage, na)
	recovered, err := m.evm.VerifySignature(message, signature)
	if err != nil || !addrsEqual(recovered, blockchainAddr) {
		return InvalidSignature, nil
	}

	// 2. Blacklist lookup.
	_, blacklisted, err := m.blacklist.IsBlacklisted(ctx, na)
	if err != nil {
		return Error, fmt.Errorf("claim: blacklist lookup: %w", err)
	}
	if blacklisted {
		return Blacklisted, nil
	}

	// 3. Already a confirmed claim for this exact pair.
	has, err := m.store.HasClaim(ctx, na, blockchainAddr)
	if err != nil {
		return Error, fmt.Errorf("claim: has claim: %w", err)
	}
	if has {
		return AlreadyDone, nil
	}

	// 4/5. At most one pending claim may exist per native address,
	// regardless of which blockchain address it names: a second claim
	// request for na while one is outstanding is InvalidOwner, even if it
	// targets the same pair as the first.
	pending, err := m.store.HasPendingClaim(ctx, na)
	if err != nil {
		return Error, fmt.Errorf("claim: has pending claim: %w", err)
	}
	if pending {
		return InvalidOwner, nil
	}

	created, err := m.store.StorePendingClaim(ctx, na, blockchainAddr)
	if err != nil {
		return Error, fmt.Errorf("claim: store pending claim: %w", err)
	}
	if !created {
		return InvalidOwner, nil
	}

	log.Debugf("pending claim created for %s -> %s", na, blockchainAddr)
	return Ok, nil
}

// Confirm promotes the single pending claim for nativeAddr into a
// permanent ConfirmedClaim. It is invoked by the first deposit that lands
// for nativeAddr; a native address with no pending claim is left alone.
func (m *Manager) Confirm(ctx context.Context, nativeAddr string) error {
	if err := m.store.ConfirmClaim(ctx, address.Native(nativeAddr)); err != nil {
		return fmt.Errorf("claim: confirm: %w", err)
	}
	return nil
}

func addrsEqual(a, b string) bool {
	return address.EqualEVM(a, b)
}
