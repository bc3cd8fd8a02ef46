package ledger

import "fmt"

const nativeExplorerBase = "https://creeper.banano.cc/explorer/block/"

// NativeExplorerLink returns the block explorer URL for a native BAN
// transaction hash.
func NativeExplorerLink(hash string) string {
	return nativeExplorerBase + hash
}

// EVMExplorerLink returns the block explorer URL for an EVM transaction
// hash, against the operator-configured explorer base URL.
func EVMExplorerLink(baseURL, hash string) string {
	return fmt.Sprintf("%s/tx/%s", baseURL, hash)
}
