package chain

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	googleuuid "github.com/google/uuid"
)

// WBANContract is the subset of the generated wBAN ERC-20 binding the EVM
// client needs. A concrete binding is produced by abigen from the
// contract's ABI; this interface exists so the client can be tested
// without one.
type WBANContract interface {
	MintWithAuthorization(opts *bind.TransactOpts, to common.Address, amount *big.Int, nonce [32]byte) (*types.Transaction, error)
	FilterRedemption(opts *bind.FilterOpts) (RedemptionIterator, error)
}

// RedemptionIterator iterates a contract's Redemption log filter, matching
// the shape of an abigen-generated *ContractRedemptionIterator.
type RedemptionIterator interface {
	Next() bool
	Close() error
	Error() error
	Event() (from common.Address, nativeAddr string, amountHuman string, raw types.Log)
}

// EVMNodeClient implements chain.EVMClient against a real EVM JSON-RPC
// endpoint via go-ethereum's ethclient, signing mint receipts with a
// custodian private key rather than submitting a chain transaction.
type EVMNodeClient struct {
	eth        *ethclient.Client
	signerKey  []byte // ECDSA private key bytes, loaded by the caller
	contract   WBANContract
	contractAt common.Address
}

// NewEVMNodeClient dials rpcURL and returns an EVMNodeClient signing
// receipts with signerKeyHex (a hex-encoded ECDSA private key, no 0x
// prefix) on behalf of contractAddr.
func NewEVMNodeClient(ctx context.Context, rpcURL, signerKeyHex, contractAddr string, contract WBANContract) (*EVMNodeClient, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial evm rpc: %w", err)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(signerKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("chain: parse signer key: %w", err)
	}
	return &EVMNodeClient{
		eth:        eth,
		signerKey:  crypto.FromECDSA(key),
		contract:   contract,
		contractAt: common.HexToAddress(contractAddr),
	}, nil
}

// CreateMintReceipt signs an off-chain mint authorization for amount of
// wBAN to addr. A random 32-byte nonce is folded into the signed payload
// (the same nonce shape MintWithAuthorization takes on-chain) so that two
// separately-debited swaps for the same address and amount never collide
// on the same receipt id.
func (c *EVMNodeClient) CreateMintReceipt(ctx context.Context, addr string, amount *big.Int) (string, string, *big.Int, error) {
	key, err := crypto.ToECDSA(c.signerKey)
	if err != nil {
		return "", "", nil, fmt.Errorf("chain: load signer key: %w", err)
	}

	var nonce [32]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", "", nil, fmt.Errorf("chain: generate mint nonce: %w", err)
	}

	to := common.HexToAddress(addr)
	payload := append(to.Bytes(), common.LeftPadBytes(amount.Bytes(), 32)...)
	payload = append(payload, nonce[:]...)
	digest := crypto.Keccak256(payload)

	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return "", "", nil, fmt.Errorf("chain: sign mint receipt: %w", err)
	}

	receiptID := common.Bytes2Hex(append(digest, sig...))
	uuid := googleuuid.New().String()

	balance, err := c.eth.BalanceAt(ctx, to, nil)
	if err != nil {
		return "", "", nil, fmt.Errorf("chain: read wban balance: %w", err)
	}

	return receiptID, uuid, balance, nil
}

// RedemptionEvents returns wBAN-burn-for-BAN events in (fromBlock, toBlock]
// by filtering the contract's Redemption log.
func (c *EVMNodeClient) RedemptionEvents(ctx context.Context, fromBlock, toBlock uint64) ([]RedemptionEvent, error) {
	from := fromBlock + 1
	iter, err := c.contract.FilterRedemption(&bind.FilterOpts{
		Start:   from,
		End:     &toBlock,
		Context: ctx,
	})
	if err != nil {
		return nil, fmt.Errorf("chain: filter redemption: %w", err)
	}
	defer iter.Close()

	var events []RedemptionEvent
	for iter.Next() {
		fromAddr, nativeAddr, amountHuman, raw := iter.Event()
		header, err := c.eth.HeaderByNumber(ctx, new(big.Int).SetUint64(raw.BlockNumber))
		if err != nil {
			return nil, fmt.Errorf("chain: header for block %d: %w", raw.BlockNumber, err)
		}
		events = append(events, RedemptionEvent{
			BlockchainAddr:     fromAddr.Hex(),
			NativeAddr:         nativeAddr,
			TxnHash:            raw.TxHash.Hex(),
			AmountHuman:        amountHuman,
			BlockHeight:        raw.BlockNumber,
			EventTimestampSecs: int64(header.Time),
		})
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("chain: iterate redemption log: %w", err)
	}

	return events, nil
}

// LatestBlock returns the current chain head height.
func (c *EVMNodeClient) LatestBlock(ctx context.Context) (uint64, error) {
	header, err := c.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("chain: latest header: %w", err)
	}
	return header.Number.Uint64(), nil
}

// personalSignPrefix is the EIP-191 prefix applied before hashing a
// message for personal_sign, matching what MetaMask and similar wallets
// sign client-side.
const personalSignPrefix = "\x19Ethereum Signed Message:\n"

// VerifySignature recovers the EVM address that produced signature over
// message, assuming the standard personal_sign digest.
func (c *EVMNodeClient) VerifySignature(message, signature string) (string, error) {
	sigBytes := common.FromHex(signature)
	if len(sigBytes) != 65 {
		return "", fmt.Errorf("chain: signature must be 65 bytes, got %d", len(sigBytes))
	}
	// go-ethereum's recovery id is 0/1; wallets commonly produce 27/28.
	if sigBytes[64] >= 27 {
		sigBytes[64] -= 27
	}

	digest := crypto.Keccak256([]byte(fmt.Sprintf("%s%d%s", personalSignPrefix, len(message), message)))

	pub, err := crypto.SigToPub(digest, sigBytes)
	if err != nil {
		return "", fmt.Errorf("chain: recover signer: %w", err)
	}

	return crypto.PubkeyToAddress(*pub).Hex(), nil
}

// NormalizeAddress returns the canonical EIP-55 checksum form of addr.
func (c *EVMNodeClient) NormalizeAddress(addr string) (string, error) {
	if !common.IsHexAddress(addr) {
		return "", fmt.Errorf("chain: invalid evm address %q", addr)
	}
	return common.HexToAddress(addr).Hex(), nil
}

var _ EVMClient = (*EVMNodeClient)(nil)
