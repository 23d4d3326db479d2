package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/randomtoy/cyberdamus-go/internal/domain"
)

const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	// LogLevel accepts debug, info, warn or error in any case.
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`

	Store  string `env:"STORE" envDefault:"sqlite"`
	DBPath string `env:"DB_PATH" envDefault:"data/cyberdamus.db"`

	AdminToken      string          `env:"ADMIN_TOKEN"`
	ArtworkAutoseed bool            `env:"ARTWORK_AUTOSEED" envDefault:"false"`
	OracleAuthority domain.Identity `env:"ORACLE_AUTHORITY"`
	OracleTreasury  domain.Identity `env:"ORACLE_TREASURY"`
	OracleFee       uint64          `env:"ORACLE_FEE" envDefault:"10000000"`

	// RoundGenesis is the Unix second at which round 0 began.
	RoundGenesis int64         `env:"ROUND_GENESIS" envDefault:"1700000000"`
	SlotDuration time.Duration `env:"SLOT_DURATION" envDefault:"400ms"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`
	// TrustedProxies lists CIDR ranges whose X-Forwarded-For is honoured.
	// Empty means the TCP peer address identifies the client.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	OpenRouterAPIKey  string        `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string        `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	LLMModel          string        `env:"LLM_MODEL" envDefault:"qwen/qwen3-4b:free"`
	LLMFallbackModels []string      `env:"LLM_FALLBACK_MODELS" envSeparator:","`
	LLMTimeout        time.Duration `env:"LLM_TIMEOUT" envDefault:"10s"`
}

// InterpretationEnabled reports whether an OpenRouter key was configured.
func (c Config) InterpretationEnabled() bool { return c.OpenRouterAPIKey != "" }

func Load() (Config, error) {
	return LoadEnv(nil)
}

// LoadEnv parses configuration from environment. A nil environment reads the
// process environment.
func LoadEnv(environment map[string]string) (Config, error) {
	opts := env.Options{
		Environment: environment,
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(domain.Identity{}): func(v string) (any, error) {
				return domain.ParseIdentity(v)
			},
		},
	}

	c, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	c.LLMFallbackModels = cleanModels(c.LLMFallbackModels)

	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	var errs []error
	switch c.Store {
	case StoreSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required when STORE=sqlite"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("invalid STORE %q: want %s or %s", c.Store, StoreSQLite, StoreMemory))
	}
	if c.SlotDuration <= 0 {
		errs = append(errs, fmt.Errorf("invalid SLOT_DURATION %s", c.SlotDuration))
	}
	if c.LLMTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid LLM_TIMEOUT %s", c.LLMTimeout))
	}
	if _, err := c.TrustedProxyRanges(); err != nil {
		errs = append(errs, err)
	}
	if c.ArtworkAutoseed {
		if c.OracleAuthority.IsZero() || c.OracleTreasury.IsZero() {
			errs = append(errs, errors.New("ORACLE_AUTHORITY and ORACLE_TREASURY are required when ARTWORK_AUTOSEED=true"))
		}
		if err := domain.ValidateFee(c.OracleFee); err != nil {
			errs = append(errs, fmt.Errorf("invalid ORACLE_FEE: %w", err))
		}
	}
	return errors.Join(errs...)
}

// TrustedProxyRanges parses TrustedProxies.
func (c Config) TrustedProxyRanges() ([]*net.IPNet, error) {
	var ranges []*net.IPNet
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		_, r, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", raw, err)
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

func cleanModels(in []string) []string {
	var models []string
	for _, m := range in {
		m = strings.TrimSpace(m)
		if m != "" {
			models = append(models, m)
		}
	}
	return models
}
