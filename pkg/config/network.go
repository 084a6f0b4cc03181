package config

import (
	"fmt"
	"strings"
)

// Network identifies the Solana cluster a launch targets.
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkDevnet  Network = "devnet"
	NetworkTestnet Network = "testnet"
)

const explorerTxURL = "https://explorer.solana.com/tx/"

// ParseNetwork accepts the cluster names used by wallets and RPC providers.
func ParseNetwork(value string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "mainnet", "mainnet-beta":
		return NetworkMainnet, nil
	case "devnet":
		return NetworkDevnet, nil
	case "testnet":
		return NetworkTestnet, nil
	default:
		return "", fmt.Errorf("unsupported solana network %q", value)
	}
}

func (n Network) IsMainnet() bool {
	return n == NetworkMainnet
}

// ExplorerURL links a signature on the public explorer. Non-mainnet
// clusters carry a cluster query parameter.
func (n Network) ExplorerURL(signature string) string {
	if n.IsMainnet() {
		return explorerTxURL + signature
	}
	return explorerTxURL + signature + "?cluster=" + string(n)
}

// Endpoints is the set of remote services a network is wired to.
type Endpoints struct {
	RPC        []string
	WebSocket  string
	TradeLocal string
	PumpIPFS   string
	JitoBundle string
}

// DefaultEndpoints returns the public endpoints for a network. The pump.fun
// services only exist on mainnet; the Jito block engine has a testnet
// instance used for every non-mainnet cluster.
func DefaultEndpoints(n Network) Endpoints {
	e := Endpoints{
		TradeLocal: "https://pumpportal.fun/api/trade-local",
		PumpIPFS:   "https://pump.fun/api/ipfs",
		JitoBundle: "https://testnet.block-engine.jito.wtf/api/v1/bundles",
	}
	switch n {
	case NetworkDevnet:
		e.RPC = []string{"https://api.devnet.solana.com"}
		e.WebSocket = "wss://api.devnet.solana.com"
	case NetworkTestnet:
		e.RPC = []string{"https://api.testnet.solana.com"}
		e.WebSocket = "wss://api.testnet.solana.com"
	default:
		e.RPC = []string{"https://api.mainnet-beta.solana.com"}
		e.WebSocket = "wss://api.mainnet-beta.solana.com"
		e.JitoBundle = "https://mainnet.block-engine.jito.wtf/api/v1/bundles"
	}
	return e
}
