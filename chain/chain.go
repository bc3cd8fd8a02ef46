// Package chain declares the external collaborators the bridge core talks
// to: the native-coin node, the EVM node and its wBAN contract, and the
// wallet blacklist lookup. They sit outside the operation-serialization and
// ledger-consistency core, which depends only on these interfaces; the
// concrete clients in this package (EVMNodeClient, NativeNodeClient,
// StaticBlacklist) are wired in by cmd/banbridged.
package chain

import (
	"context"
	"math/big"
)

// DepositEvent is a single BAN deposit observed by the native client's
// subscription.
type DepositEvent struct {
	NativeAddr  string
	TxnHash     string
	Amount      *big.Int
	TimestampMs int64
}

// RedemptionEvent is a single wBAN-burn-for-BAN event observed on the EVM
// chain, as delivered to the chain scanner.
type RedemptionEvent struct {
	BlockchainAddr     string
	NativeAddr         string
	TxnHash            string
	AmountHuman        string // human-readable decimal amount, e.g. "1.5"
	BlockHeight        uint64
	EventTimestampSecs int64
}

// NativeClient is the native-coin (BAN) node RPC collaborator.
type NativeClient interface {
	// SendNative broadcasts a send transaction from the hot wallet and
	// returns its transaction hash once accepted by the node.
	SendNative(ctx context.Context, to string, amount *big.Int) (hash string, err error)

	// GetBalance returns the hot wallet's current confirmed balance.
	GetBalance(ctx context.Context) (*big.Int, error)

	// SubscribeDeposits streams deposit events observed on the hot wallet.
	SubscribeDeposits(ctx context.Context) (<-chan DepositEvent, error)
}

// EVMClient is the EVM node and wBAN contract RPC collaborator.
type EVMClient interface {
	// CreateMintReceipt issues a signed, off-chain mint authorization for
	// amount of wBAN to addr. This is a signature, not a chain
	// transaction, so it is safe to retry on failure.
	CreateMintReceipt(ctx context.Context, addr string, amount *big.Int) (receiptID, uuid string, wbanBalance *big.Int, err error)

	// RedemptionEvents returns wBAN-burn-for-BAN events in the half-open
	// block range (fromBlock, toBlock].
	RedemptionEvents(ctx context.Context, fromBlock, toBlock uint64) ([]RedemptionEvent, error)

	// LatestBlock returns the current chain head height.
	LatestBlock(ctx context.Context) (uint64, error)

	// VerifySignature recovers the signing address of message/signature
	// pair, using the EVM chain's signature scheme.
	VerifySignature(message, signature string) (recoveredAddr string, err error)

	// NormalizeAddress returns the canonical checksum form of addr.
	NormalizeAddress(addr string) (string, error)
}

// Blacklist is the wallet blacklist lookup collaborator.
type Blacklist interface {
	// IsBlacklisted reports whether nativeAddr is blacklisted and, if so,
	// an operator-facing alias identifying the blacklist entry.
	IsBlacklisted(ctx context.Context, nativeAddr string) (alias string, blacklisted bool, err error)
}
