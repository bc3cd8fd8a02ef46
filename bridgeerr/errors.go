// Package bridgeerr defines the error-kind taxonomy shared by the ledger,
// claim, and operation-processor packages. Sentinel values are wrapped with
// fmt.Errorf("...: %w", ...) at the call site so errors.Is keeps working
// through the job-queue boundary.
package bridgeerr

import "errors"

var (
	// ErrInvalidSignature is returned when a client-supplied signature does
	// not recover to the address the caller claims to control.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidOwner is returned when a pending claim already exists for
	// the native address under a different blockchain address.
	ErrInvalidOwner = errors.New("native address already has a pending claim for a different blockchain address")

	// ErrNotClaimed is returned when an operation requires a confirmed
	// claim binding that does not exist.
	ErrNotClaimed = errors.New("native address has no confirmed claim")

	// ErrBlacklisted is returned when the wallet blacklist rejects the
	// native address involved in a claim.
	ErrBlacklisted = errors.New("native address is blacklisted")

	// ErrInsufficientBalance is a user-facing error: the ledger balance is
	// too low to cover the requested operation.
	ErrInsufficientBalance = errors.New("insufficient ledger balance")

	// ErrInsufficientHotWallet is operational, not user-facing: it signals
	// the withdrawal processor to enqueue a pending-withdrawal successor
	// rather than surface an error.
	ErrInsufficientHotWallet = errors.New("insufficient hot wallet balance")

	// ErrDuplicateRequest is returned for an idempotent no-op: a request
	// whose idempotency key has already been committed.
	ErrDuplicateRequest = errors.New("duplicate request")

	// ErrLockTimeout is returned when the distributed lock manager could
	// not acquire a lock within its configured attempts. It is retryable.
	ErrLockTimeout = errors.New("lock acquisition timed out")

	// ErrStoreTransactionFailure marks a ledger write that failed after an
	// external side effect already committed. Fatal for the job; must not
	// be retried, since replay would double-spend.
	ErrStoreTransactionFailure = errors.New("ledger store transaction failed after external side effect")

	// ErrUpstreamChainFailure wraps a failure from a chain collaborator
	// (native or EVM client). Retryable.
	ErrUpstreamChainFailure = errors.New("upstream chain call failed")

	// ErrSuperseded is thrown by a withdrawal job handler whose successor
	// has already been enqueued; the job queue records it as superseded,
	// not failed.
	ErrSuperseded = errors.New("withdrawal job superseded by pending-funds retry")

	// ErrInvalidAmount is returned for non-positive operation amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidEvent marks a chain-originated event that violates a
	// contract invariant (e.g. a redemption missing its native-address
	// field) and must surface for operator attention rather than be
	// silently dropped.
	ErrInvalidEvent = errors.New("chain event violates contract invariant")

	// ErrGaslessAllowanceUsed is returned when a native address has
	// already consumed its one-time operator-sponsored wBAN mint.
	ErrGaslessAllowanceUsed = errors.New("gasless swap allowance already used")

	// ErrGaslessCapExceeded is returned when no positive gasless swap cap
	// is configured.
	ErrGaslessCapExceeded = errors.New("gasless swap cap exceeded or not configured")
)
