// Package address centralizes the canonicalization rules the bridge applies
// to the two address spaces it bridges. Every ledger entry point normalizes
// on the way in; comparing a raw input to a stored value without going
// through this package first is a bug.
package address

import "strings"

// Native canonicalizes a BAN address for use as a key segment or for
// equality comparison. Native addresses are canonicalized by lowercasing;
// unlike the EVM side there is no checksum form to restore.
func Native(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// EqualNative reports whether two native address strings refer to the same
// account once canonicalized.
func EqualNative(a, b string) bool {
	return Native(a) == Native(b)
}

// EVM canonicalizes an EVM address for use as a key segment or equality
// comparison. The canonical form is lowercase: EIP-55's mixed-case
// checksum is a display convention for wallets, not a stable identity, so
// two checksum renderings of the same address must still key and compare
// identically here.
func EVM(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// EqualEVM reports whether two EVM address strings refer to the same
// account once canonicalized.
func EqualEVM(a, b string) bool {
	return EVM(a) == EVM(b)
}
