package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LaunchConfig carries everything the launch pipeline reads from the
// environment.
type LaunchConfig struct {
	Network   Network
	Endpoints Endpoints

	PinataJWT     string
	PinataGateway string
	GCSBucket     string

	KeystoreDir      string
	KeystorePassword string
	PayerAddress     string

	HeliusAPIKey string

	// MinimumBalanceLamports is the payer balance required before any
	// upload or transaction work starts.
	MinimumBalanceLamports uint64
}

const DefaultMinimumBalanceLamports = 10_000_000 // 0.01 SOL

// LoadLaunchConfig reads the launch configuration from the environment.
func LoadLaunchConfig() (*LaunchConfig, error) {
	network, err := ParseNetwork(os.Getenv("SOLANA_NETWORK"))
	if err != nil {
		return nil, err
	}

	endpoints := DefaultEndpoints(network)
	if rpcList := networkEnv(network, "SOLANA_RPC_URL"); rpcList != "" {
		endpoints.RPC = splitList(rpcList)
	}
	if ws := os.Getenv("SOLANA_WS_URL"); ws != "" {
		endpoints.WebSocket = ws
	}
	if v := os.Getenv("PUMPPORTAL_TRADE_LOCAL_URL"); v != "" {
		endpoints.TradeLocal = v
	}
	if v := os.Getenv("PUMPFUN_IPFS_URL"); v != "" {
		endpoints.PumpIPFS = v
	}
	if v := os.Getenv("JITO_BUNDLE_URL"); v != "" {
		endpoints.JitoBundle = v
	}

	cfg := &LaunchConfig{
		Network:                network,
		Endpoints:              endpoints,
		PinataJWT:              os.Getenv("PINATA_JWT"),
		PinataGateway:          getEnvDefault("PINATA_GATEWAY", "https://gateway.pinata.cloud"),
		GCSBucket:              os.Getenv("GCS_BUCKET"),
		KeystoreDir:            getEnvDefault("KEYSTORE_DIR", "configs/keystore"),
		KeystorePassword:       os.Getenv("KEYSTORE_PASSWORD"),
		PayerAddress:           os.Getenv("PAYER_ADDRESS"),
		HeliusAPIKey:           os.Getenv("HELIUS_API_KEY"),
		MinimumBalanceLamports: DefaultMinimumBalanceLamports,
	}

	if v := os.Getenv("MIN_PAYER_BALANCE_LAMPORTS"); v != "" {
		lamports, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MIN_PAYER_BALANCE_LAMPORTS: %w", err)
		}
		cfg.MinimumBalanceLamports = lamports
	}

	if len(cfg.Endpoints.RPC) == 0 {
		return nil, fmt.Errorf("no RPC endpoint configured for %s", network)
	}
	if cfg.PinataJWT == "" && cfg.GCSBucket == "" {
		return nil, fmt.Errorf("either PINATA_JWT or GCS_BUCKET must be set")
	}
	if cfg.PayerAddress == "" {
		return nil, fmt.Errorf("PAYER_ADDRESS must be set")
	}

	return cfg, nil
}

// networkEnv prefers SOLANA_RPC_URL_DEVNET style overrides over the bare key.
func networkEnv(n Network, key string) string {
	if !n.IsMainnet() {
		if v := os.Getenv(key + "_" + strings.ToUpper(string(n))); v != "" {
			return v
		}
	}
	return os.Getenv(key)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
