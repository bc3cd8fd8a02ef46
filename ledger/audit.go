package ledger

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// auditDiscriminator tags which record kind an audit entry describes.
type auditDiscriminator string

const (
	auditTypeDeposit    auditDiscriminator = "deposit"
	auditTypeWithdrawal auditDiscriminator = "withdrawal"
	auditTypeSwapToWBAN auditDiscriminator = "swap-to-wban"
	auditTypeSwapToBAN  auditDiscriminator = "swap-to-ban"
	auditTypeGasless    auditDiscriminator = "gasless-swap"
)

// auditEntry is the write-once, descriptive record kept for every
// deposit, withdrawal, and swap, keyed by its txn hash or receipt id.
type auditEntry struct {
	Type           auditDiscriminator
	NativeAddr     string
	BlockchainAddr string
	TxnHash        string
	ReceiptID      string
	UUID           string
	Amount         string
	TimestampMs    int64
}

func (e auditEntry) toFields() map[string]interface{} {
	return map[string]interface{}{
		"type":            string(e.Type),
		"native_addr":     e.NativeAddr,
		"blockchain_addr": e.BlockchainAddr,
		"txn_hash":        e.TxnHash,
		"receipt_id":      e.ReceiptID,
		"uuid":            e.UUID,
		"amount":          e.Amount,
		"timestamp_ms":    e.TimestampMs,
	}
}

func auditEntryFromFields(fields map[string]string) auditEntry {
	var ts int64
	fmt.Sscanf(fields["timestamp_ms"], "%d", &ts)
	return auditEntry{
		Type:           auditDiscriminator(fields["type"]),
		NativeAddr:     fields["native_addr"],
		BlockchainAddr: fields["blockchain_addr"],
		TxnHash:        fields["txn_hash"],
		ReceiptID:      fields["receipt_id"],
		UUID:           fields["uuid"],
		Amount:         fields["amount"],
		TimestampMs:    ts,
	}
}

// writeAuditCmd queues the write-once audit hash write inside an active
// pipeline. It is never called outside a lock-protected multi-write block.
func writeAuditCmd(pipe redis.Pipeliner, hashOrReceipt string, entry auditEntry) {
	pipe.HSet(context.Background(), auditKey(hashOrReceipt), entry.toFields())
}

// getAudit hydrates a single audit entry by its hash or receipt id.
func (s *Store) getAudit(ctx context.Context, hashOrReceipt string) (auditEntry, error) {
	fields, err := s.rdb.HGetAll(ctx, auditKey(hashOrReceipt)).Result()
	if err != nil {
		return auditEntry{}, fmt.Errorf("ledger: get audit %s: %w", hashOrReceipt, err)
	}
	return auditEntryFromFields(fields), nil
}
