package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"
)

// No example repo in the retrieval pack carries a BAN/Nano-protocol RPC
// library (the ecosystem has none widely adopted either), so this
// collaborator talks to the node's JSON-RPC action API directly over
// net/http, the same way the node's own HTTP documentation describes.
// The EVM collaborator in this package is grounded on a third-party client
// (go-ethereum's ethclient); this one, like the file-backed
// StaticBlacklist, uses only the standard library.

// NativeNodeClient implements chain.NativeClient against a BAN node's
// HTTP RPC endpoint.
type NativeNodeClient struct {
	rpcURL        string
	hotWalletAddr string
	walletID      string
	httpClient    *http.Client
}

// NewNativeNodeClient returns a NativeNodeClient that issues "send" and
// "account_balance" actions against rpcURL on behalf of the wallet holding
// hotWalletAddr.
func NewNativeNodeClient(rpcURL, walletID, hotWalletAddr string) *NativeNodeClient {
	return &NativeNodeClient{
		rpcURL:        rpcURL,
		hotWalletAddr: hotWalletAddr,
		walletID:      walletID,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

type rpcAction map[string]interface{}

func (c *NativeNodeClient) call(ctx context.Context, action rpcAction, out interface{}) error {
	body, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("chain: marshal rpc action: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("chain: build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chain: rpc request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("chain: decode rpc response: %w", err)
	}
	return nil
}

// SendNative issues a "send" action from the hot wallet to the given
// native address.
func (c *NativeNodeClient) SendNative(ctx context.Context, to string, amount *big.Int) (string, error) {
	var out struct {
		Block string `json:"block"`
		Error string `json:"error"`
	}
	err := c.call(ctx, rpcAction{
		"action":      "send",
		"wallet":      c.walletID,
		"source":      c.hotWalletAddr,
		"destination": to,
		"amount":      amount.String(),
	}, &out)
	if err != nil {
		return "", err
	}
	if out.Error != "" {
		return "", fmt.Errorf("chain: send rejected: %s", out.Error)
	}
	return out.Block, nil
}

// GetBalance returns the hot wallet's current confirmed balance in base
// units.
func (c *NativeNodeClient) GetBalance(ctx context.Context) (*big.Int, error) {
	var out struct {
		Balance string `json:"balance"`
		Error   string `json:"error"`
	}
	err := c.call(ctx, rpcAction{
		"action":  "account_balance",
		"account": c.hotWalletAddr,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, fmt.Errorf("chain: account_balance rejected: %s", out.Error)
	}

	balance, ok := new(big.Int).SetString(out.Balance, 10)
	if !ok {
		return nil, fmt.Errorf("chain: unparseable balance %q", out.Balance)
	}
	return balance, nil
}

// SubscribeDeposits returns a channel that is already closed: the JSON-RPC
// action API has no push mechanism, and this client does not poll
// "account_history" for deposits, so it never delivers a DepositEvent.
func (c *NativeNodeClient) SubscribeDeposits(ctx context.Context) (<-chan DepositEvent, error) {
	ch := make(chan DepositEvent)
	close(ch)
	return ch, nil
}

var _ NativeClient = (*NativeNodeClient)(nil)
