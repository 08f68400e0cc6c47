package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"time"
)

// Config holds the runtime configuration for the relayer service. Values are
// read from the environment once at startup; secrets (relayer key, resend API
// key) may be indirected through AWS Secrets Manager ARNs.
type Config struct {
	// DatabaseURL is the Postgres connection string.
	DatabaseURL string

	// RPCURL is the JSON-RPC endpoint used for submission and receipt polling.
	RPCURL string
	// ChainID is the chain this deployment submits to.
	ChainID int64
	// ContractAddress is the deployed attestation contract.
	ContractAddress string
	// EASArtifactPath points at the full contract artifact JSON. When the file
	// is missing or unparseable the engine falls back to the minimal ABI.
	EASArtifactPath string

	// RelayerKeyHex is the relayer's signing key. Loaded via Secrets Manager
	// (RELAYER_KEY_SECRET_ARN) with RELAYER_PRIVATE_KEY as the env fallback.
	RelayerKeyHex string

	// SubmitTimeout bounds the wait for a terminal receipt. A submission that
	// exceeds it is surfaced as timed out, never retried automatically.
	SubmitTimeout time.Duration
	// ReceiptPollInterval is the initial backoff interval for receipt polling.
	ReceiptPollInterval time.Duration
	// RPCRequestsPerSecond throttles outbound ledger calls.
	RPCRequestsPerSecond int

	// RelayerLowBalanceWei triggers a low-balance alert when the relayer
	// account drops below it.
	RelayerLowBalanceWei *big.Int
	// HighCostUsdCents triggers a high-cost alert for a single submission.
	HighCostUsdCents int64

	// AlertFromEmail / AlertToEmail configure the resend alerting channel.
	ResendAPIKey   string
	AlertFromEmail string
	AlertToEmail   string

	// JWKSEndpoint, JWTIssuer and JWTAudience configure verification of the
	// identity provider's bearer tokens.
	JWKSEndpoint string
	JWTIssuer    string
	JWTAudience  string

	// ExchangeRateURL is the price lookup endpoint for USD normalization.
	ExchangeRateURL string

	// Port is the HTTP listen port.
	Port string
}

// Load reads configuration from the environment. It fails fast on missing
// required values so a misconfigured deployment never starts serving.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RPCURL:               os.Getenv("RPC_URL"),
		ContractAddress:      os.Getenv("ATTESTATION_CONTRACT_ADDRESS"),
		EASArtifactPath:      os.Getenv("EAS_ARTIFACT_PATH"),
		RelayerKeyHex:        os.Getenv("RELAYER_PRIVATE_KEY"),
		ResendAPIKey:         os.Getenv("RESEND_API_KEY"),
		AlertFromEmail:       getEnvWithDefault("ALERT_FROM_EMAIL", "alerts@veritix.io"),
		AlertToEmail:         os.Getenv("ALERT_TO_EMAIL"),
		JWKSEndpoint:         os.Getenv("AUTH_JWKS_ENDPOINT"),
		JWTIssuer:            os.Getenv("AUTH_ISSUER"),
		JWTAudience:          os.Getenv("AUTH_AUDIENCE"),
		ExchangeRateURL:      getEnvWithDefault("EXCHANGE_RATE_URL", "https://api.coingecko.com"),
		Port:                 getEnvWithDefault("PORT", "8000"),
		SubmitTimeout:        getEnvDuration("SUBMIT_TIMEOUT", 3*time.Minute),
		ReceiptPollInterval:  getEnvDuration("RECEIPT_POLL_INTERVAL", 2*time.Second),
		RPCRequestsPerSecond: getEnvInt("RPC_REQUESTS_PER_SECOND", 10),
		HighCostUsdCents:     int64(getEnvInt("HIGH_COST_ALERT_USD_CENTS", 500)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	chainID, err := strconv.ParseInt(getEnvWithDefault("CHAIN_ID", "1"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CHAIN_ID: %w", err)
	}
	cfg.ChainID = chainID

	lowBalance := getEnvWithDefault("RELAYER_LOW_BALANCE_WEI", "100000000000000000") // 0.1 ether
	wei, ok := new(big.Int).SetString(lowBalance, 10)
	if !ok {
		return nil, fmt.Errorf("invalid RELAYER_LOW_BALANCE_WEI: %q", lowBalance)
	}
	cfg.RelayerLowBalanceWei = wei

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
