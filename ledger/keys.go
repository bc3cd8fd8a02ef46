package ledger

import "github.com/bananocoin/wban-bridge/address"

// Key layout is bit-exact with the specification so an operator migrating
// from the original service finds the same data at the same names.
const (
	keyBalancePrefix       = "ban-balance:"
	keyDepositsPrefix      = "deposits:"
	keyWithdrawalsPrefix   = "withdrawals:"
	keySwapToWBANPrefix    = "swaps:ban-to-wban:"
	keySwapToBANPrefix     = "swaps:wban-to-ban:"
	keyGaslessPrefix       = "swaps:gasless:"
	keyAuditPrefix         = "audit:"
	keyPendingClaimPrefix  = "claims:pending:"
	keyClaimPrefix         = "claims:"
	keyClaimReverseIndex   = "claims:by-blockchain:"
	keyLatestBlock         = "blockchain:blocks:latest"
)

func balanceKey(nativeAddr string) string {
	return keyBalancePrefix + address.Native(nativeAddr)
}

func depositsKey(nativeAddr string) string {
	return keyDepositsPrefix + address.Native(nativeAddr)
}

func withdrawalsKey(nativeAddr string) string {
	return keyWithdrawalsPrefix + address.Native(nativeAddr)
}

func swapToWBANKey(nativeAddr string) string {
	return keySwapToWBANPrefix + address.Native(nativeAddr)
}

func swapToBANKey(blockchainAddr string) string {
	return keySwapToBANPrefix + address.EVM(blockchainAddr)
}

func gaslessKey(nativeAddr string) string {
	return keyGaslessPrefix + address.Native(nativeAddr)
}

func auditKey(hashOrReceipt string) string {
	return keyAuditPrefix + hashOrReceipt
}

func pendingClaimKey(nativeAddr, blockchainAddr string) string {
	return keyPendingClaimPrefix + address.Native(nativeAddr) + ":" + address.EVM(blockchainAddr)
}

// pendingClaimScanPattern matches every pending-claim key for nativeAddr,
// regardless of the blockchain address segment.
func pendingClaimScanPattern(nativeAddr string) string {
	return keyPendingClaimPrefix + address.Native(nativeAddr) + ":*"
}

func claimKey(nativeAddr, blockchainAddr string) string {
	return keyClaimPrefix + address.Native(nativeAddr) + ":" + address.EVM(blockchainAddr)
}

func claimReverseIndexKey(blockchainAddr string) string {
	return keyClaimReverseIndex + address.EVM(blockchainAddr)
}
