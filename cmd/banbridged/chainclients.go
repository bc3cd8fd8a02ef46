package main

import (
	"context"
	"fmt"

	"github.com/bananocoin/wban-bridge/chain"
	"github.com/bananocoin/wban-bridge/config"
)

// newChainClients builds the external collaborators the specification
// deliberately leaves outside the ledger-consistency core: the native-coin
// node RPC client, the EVM RPC client, and the wallet blacklist.
func newChainClients(cfg *config.Config) (chain.NativeClient, chain.EVMClient, chain.Blacklist, error) {
	native := chain.NewNativeNodeClient(cfg.NativeRPCURL, cfg.NativeWalletID, cfg.HotWalletAddr)

	// TODO(ops): wire in the abigen-generated binding for the deployed
	// wBAN contract once it is vendored; until then RedemptionEvents
	// cannot be called, which only affects the chain scanner.
	evm, err := chain.NewEVMNodeClient(context.Background(), cfg.EVMRPCURL, cfg.EVMSignerKeyHex, cfg.WBANContractAddr, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("new evm client: %w", err)
	}

	var blacklist chain.Blacklist
	if cfg.BlacklistFile != "" {
		blacklist, err = chain.LoadStaticBlacklist(cfg.BlacklistFile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load blacklist: %w", err)
		}
	} else {
		blacklist = emptyBlacklist{}
	}

	return native, evm, blacklist, nil
}

// emptyBlacklist is used when no blacklist file is configured: nothing is
// ever blacklisted.
type emptyBlacklist struct{}

func (emptyBlacklist) IsBlacklisted(ctx context.Context, nativeAddr string) (string, bool, error) {
	return "", false, nil
}
