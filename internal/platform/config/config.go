// Package config builds the typed service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the root configuration.
type Config struct {
	Server    Server
	Log       Log
	Storage   Storage
	Ledger    Ledger
	Simulator Simulator
	Redis     RedisConfig
	Postgres  Postgres
	Kafka     Kafka
	Cache     Cache
	Lock      Lock
	RateLimit RateLimit
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr               string
	RequestTimeout     time.Duration
	VerifyTimeout      time.Duration
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string
	// TrustedProxies are CIDRs whose X-Forwarded-For / X-Real-IP headers are believed.
	TrustedProxies []netip.Prefix
	// FirstPartyApp is the requestedBy value that is not recorded as a third-party request.
	FirstPartyApp string
}

type Log struct {
	Level  string
	Format string
}

// Storage configures the Lighthouse content store.
type Storage struct {
	LighthouseAPIKey string
	APIURL           string
	GatewayURL       string
	Timeout          time.Duration
	UploadAttempts   int
	BackoffMin       time.Duration
	BackoffMax       time.Duration
	BreakerFailures  int
}

// Ledger configures the EVM attestation registry client.
type Ledger struct {
	RPCURL            string
	PrivateKey        string
	ContractAddress   string
	ChainID           int64
	SettlementTimeout time.Duration
	GasMarginPercent  int
	ReceiptPoll       time.Duration
}

type Simulator struct {
	Delay time.Duration
}

// RedisConfig is optional; an empty URL disables Redis-backed components.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Postgres is optional; an empty DSN keeps activity in memory.
type Postgres struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Kafka is optional; no brokers disables the activity stream.
type Kafka struct {
	Brokers  []string
	Topic    string
	ClientID string
}

type Cache struct {
	Size     int
	RedisTTL time.Duration
}

// Lock selects the per-address write lock backend: "memory" or "redis".
type Lock struct {
	Backend string
	TTL     time.Duration
	Shards  int
}

// RateLimit sets per-IP request budgets. Counters live in Redis when
// REDIS_URL is set, otherwise in process memory.
type RateLimit struct {
	Enabled        bool
	WritePerMinute int
	ReadPerMinute  int
}

const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

// rpcAllowance covers the estimate, nonce, fee and broadcast calls of one anchor.
const rpcAllowance = 30 * time.Second

// WriteBudget is the longest a locked write may take: the resolve fetch, two
// uploads with every retry, the ledger calls and the settlement wait.
func (c Config) WriteBudget() time.Duration {
	attempts := time.Duration(max(c.Storage.UploadAttempts, 1))
	upload := c.Storage.Timeout*attempts + c.Storage.BackoffMax*(attempts-1)
	return c.Storage.Timeout + 2*upload + rpcAllowance + c.Ledger.SettlementTimeout
}

// HasLedgerCredentials reports whether a real ledger can be dialed.
func (l Ledger) HasLedgerCredentials() bool {
	return l.RPCURL != "" && l.PrivateKey != "" && l.ContractAddress != ""
}

// FromEnv loads an optional .env file and builds the configuration. Legacy
// variable names (PORT, BASE_SEPOLIA_RPC_URL, ...) are accepted.
func FromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	addr := envString("", "KEYSTONE_ADDR")
	if addr == "" {
		addr = ":" + envString("3001", "PORT")
	}

	proxies, proxyErr := parsePrefixes(envList(nil, "TRUSTED_PROXIES"))

	cfg := Config{
		Server: Server{
			Addr:               addr,
			RequestTimeout:     envDuration(30*time.Second, "HTTP_REQUEST_TIMEOUT"),
			VerifyTimeout:      envDuration(3*time.Minute, "HTTP_VERIFY_TIMEOUT"),
			ShutdownTimeout:    envDuration(10*time.Second, "HTTP_SHUTDOWN_TIMEOUT"),
			CORSAllowedOrigins: envList([]string{"*"}, "CORS_ALLOWED_ORIGINS"),
			TrustedProxies:     proxies,
			FirstPartyApp:      envString("keystone", "FIRST_PARTY_APP"),
		},
		Log: Log{
			Level:  envString("info", "LOG_LEVEL"),
			Format: envString("json", "LOG_FORMAT"),
		},
		Storage: Storage{
			LighthouseAPIKey: envString("", "LIGHTHOUSE_API_KEY"),
			APIURL:           envString("https://node.lighthouse.storage", "LIGHTHOUSE_API_URL"),
			GatewayURL:       envString("https://gateway.lighthouse.storage", "LIGHTHOUSE_GATEWAY_URL"),
			Timeout:          envDuration(30*time.Second, "LIGHTHOUSE_TIMEOUT"),
			UploadAttempts:   envInt(3, "STORAGE_UPLOAD_ATTEMPTS"),
			BackoffMin:       envDuration(time.Second, "STORAGE_BACKOFF_MIN"),
			BackoffMax:       envDuration(3*time.Second, "STORAGE_BACKOFF_MAX"),
			BreakerFailures:  envInt(5, "STORAGE_BREAKER_FAILURES"),
		},
		Ledger: Ledger{
			RPCURL:            envString("", "LEDGER_RPC_URL", "BASE_SEPOLIA_RPC_URL"),
			PrivateKey:        envString("", "LEDGER_PRIVATE_KEY", "BACKEND_WALLET_PRIVATE_KEY"),
			ContractAddress:   envString("", "LEDGER_CONTRACT_ADDRESS", "CONTRACT_ADDRESS"),
			ChainID:           int64(envInt(0, "LEDGER_CHAIN_ID")),
			SettlementTimeout: envDuration(120*time.Second, "LEDGER_SETTLEMENT_TIMEOUT"),
			GasMarginPercent:  envInt(20, "LEDGER_GAS_MARGIN_PERCENT"),
			ReceiptPoll:       envDuration(2*time.Second, "LEDGER_RECEIPT_POLL"),
		},
		Simulator: Simulator{
			Delay: envDuration(2*time.Second, "SIMULATOR_DELAY"),
		},
		Redis: RedisConfig{
			URL:          envString("", "REDIS_URL"),
			PoolSize:     envInt(10, "REDIS_POOL_SIZE"),
			MinIdleConns: envInt(2, "REDIS_MIN_IDLE_CONNS"),
			DialTimeout:  envDuration(5*time.Second, "REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  envDuration(3*time.Second, "REDIS_READ_TIMEOUT"),
			WriteTimeout: envDuration(3*time.Second, "REDIS_WRITE_TIMEOUT"),
		},
		Postgres: Postgres{
			DSN:             envString("", "DATABASE_URL"),
			MaxOpenConns:    envInt(10, "DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:    envInt(5, "DATABASE_MAX_IDLE_CONNS"),
			ConnMaxLifetime: envDuration(30*time.Minute, "DATABASE_CONN_MAX_LIFETIME"),
		},
		Kafka: Kafka{
			Brokers:  envList(nil, "KAFKA_BROKERS"),
			Topic:    envString("keystone.activity", "KAFKA_ACTIVITY_TOPIC"),
			ClientID: envString("keystone", "KAFKA_CLIENT_ID"),
		},
		Cache: Cache{
			Size:     envInt(1024, "CACHE_SIZE"),
			RedisTTL: envDuration(24*time.Hour, "CACHE_REDIS_TTL"),
		},
		Lock: Lock{
			Backend: envString(LockBackendMemory, "LOCK_BACKEND"),
			TTL:     envDuration(30*time.Second, "LOCK_TTL"),
			Shards:  envInt(64, "LOCK_SHARDS"),
		},
		RateLimit: RateLimit{
			Enabled:        envBool(true, "RATE_LIMIT_ENABLED"),
			WritePerMinute: envInt(10, "RATE_LIMIT_WRITE_PER_MINUTE"),
			ReadPerMinute:  envInt(120, "RATE_LIMIT_READ_PER_MINUTE"),
		},
	}
	return cfg, errors.Join(proxyErr, cfg.Validate())
}

// parsePrefixes accepts CIDRs or bare addresses.
func parsePrefixes(values []string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, v := range values {
		if p, err := netip.ParsePrefix(v); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: invalid entry %q", v)
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Storage.UploadAttempts < 1 {
		errs = append(errs, errors.New("STORAGE_UPLOAD_ATTEMPTS must be at least 1"))
	}
	if c.Ledger.SettlementTimeout <= 0 {
		errs = append(errs, errors.New("LEDGER_SETTLEMENT_TIMEOUT must be positive"))
	}
	if c.Ledger.GasMarginPercent < 0 {
		errs = append(errs, errors.New("LEDGER_GAS_MARGIN_PERCENT must not be negative"))
	}
	switch c.Lock.Backend {
	case LockBackendMemory:
	case LockBackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("LOCK_BACKEND=redis requires REDIS_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LOCK_BACKEND %q", c.Lock.Backend))
	}
	if c.Lock.Backend == LockBackendRedis && c.Lock.TTL < 3*time.Second {
		errs = append(errs, errors.New("LOCK_TTL must be at least 3s"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.WritePerMinute < 1 || c.RateLimit.ReadPerMinute < 1) {
		errs = append(errs, errors.New("rate limits must be at least 1 request per minute"))
	}
	return errors.Join(errs...)
}

// envString returns the first non-empty variable among keys, or def.
func envString(def string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return def
}

func envInt(def int, keys ...string) int {
	v := envString("", keys...)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(def bool, keys ...string) bool {
	v := envString("", keys...)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envDuration(def time.Duration, keys ...string) time.Duration {
	v := envString("", keys...)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envList(def []string, keys ...string) []string {
	v := envString("", keys...)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
