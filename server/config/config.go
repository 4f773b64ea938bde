package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/pelletier/go-toml"

	"github.com/sig-0/p2prates/offers"
	"github.com/sig-0/p2prates/provider/currencies"
	"github.com/sig-0/p2prates/spread"
	"github.com/sig-0/p2prates/storage/types"
	"github.com/sig-0/p2prates/trust"
)

const (
	DefaultListenAddress  = "0.0.0.0:8545"
	DefaultVenueTimeout   = "10s"
	DefaultRecordInterval = "30s"
	DefaultWarmInterval   = "0s" // disabled
)

var (
	ErrInvalidListenAddress = errors.New("invalid listen address")
	ErrInvalidDuration      = errors.New("invalid duration")
	ErrInvalidOfferRows     = errors.New("invalid offer rows")
	ErrInvalidSpreadMatrix  = errors.New("invalid spread matrix")
	ErrInvalidTrustStrategy = errors.New("invalid trust strategy")
)

var listenAddressRegex = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}:\d+$`)

// Config defines the base-level server configuration
type Config struct {
	// The associated CORS config, if any
	CORSConfig *CORS `toml:"cors_config"`

	// The per-venue advertiser trust rules
	Trust trust.Table `toml:"trust"`

	// The spread engine matrix
	Spread *Spread `toml:"spread"`

	// The address at which the server will be served.
	// Format should be: <IP>:<PORT>
	ListenAddress string `toml:"listen_address"`

	// The timeout of a single upstream venue request (Go duration)
	VenueTimeout string `toml:"venue_timeout"`

	// The spread recording interval (Go duration)
	RecordInterval string `toml:"record_interval"`

	// The matrix warm-up interval (Go duration).
	// Zero disables the warmer, leaving the cache populated by requests only
	WarmInterval string `toml:"warm_interval"`

	// The fiat currencies advertised by the health check
	SupportedFiats []types.Currency `toml:"supported_fiats"`

	// The number of offers requested per venue fetch
	OfferRows int `toml:"offer_rows"`
}

// CORS defines the server CORS configuration
type CORS struct {
	AllowedOrigins []string `toml:"allowed_origins"`
	AllowedMethods []string `toml:"allowed_methods"`
	AllowedHeaders []string `toml:"allowed_headers"`
}

// Spread defines the spread engine matrix, in iteration order
type Spread struct {
	Pairs  []spread.Pair `toml:"pairs"`
	Venues []string      `toml:"venues"`
}

// DefaultCORSConfig returns the default (permissive) CORS configuration
func DefaultCORSConfig() *CORS {
	return &CORS{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}
}

// DefaultSpreadConfig returns the default spread engine matrix
func DefaultSpreadConfig() *Spread {
	return &Spread{
		Pairs:  spread.DefaultPairs(),
		Venues: spread.DefaultVenues(),
	}
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddress:  DefaultListenAddress,
		CORSConfig:     DefaultCORSConfig(),
		Trust:          trust.DefaultTable(),
		Spread:         DefaultSpreadConfig(),
		SupportedFiats: currencies.Supported(),
		OfferRows:      offers.DefaultRows,
		VenueTimeout:   DefaultVenueTimeout,
		RecordInterval: DefaultRecordInterval,
		WarmInterval:   DefaultWarmInterval,
	}
}

// ValidateConfig validates the server configuration
func ValidateConfig(config *Config) error {
	// Validate the listen address
	if !listenAddressRegex.MatchString(config.ListenAddress) {
		return ErrInvalidListenAddress
	}

	// Validate the intervals
	if d, err := time.ParseDuration(config.VenueTimeout); err != nil || d <= 0 {
		return fmt.Errorf("%w: venue_timeout %q", ErrInvalidDuration, config.VenueTimeout)
	}

	if d, err := time.ParseDuration(config.RecordInterval); err != nil || d <= 0 {
		return fmt.Errorf("%w: record_interval %q", ErrInvalidDuration, config.RecordInterval)
	}

	if d, err := time.ParseDuration(config.WarmInterval); err != nil || d < 0 {
		return fmt.Errorf("%w: warm_interval %q", ErrInvalidDuration, config.WarmInterval)
	}

	if config.OfferRows <= 0 {
		return ErrInvalidOfferRows
	}

	// Validate the spread matrix
	if config.Spread == nil || len(config.Spread.Pairs) == 0 || len(config.Spread.Venues) == 0 {
		return ErrInvalidSpreadMatrix
	}

	for _, pair := range config.Spread.Pairs {
		if pair.Fiat == "" || pair.Crypto == "" {
			return fmt.Errorf("%w: empty pair currency", ErrInvalidSpreadMatrix)
		}
	}

	// Validate the trust rules
	for venue, rule := range config.Trust {
		if !rule.Strategy.Valid() {
			return fmt.Errorf("%w: %q for venue %q", ErrInvalidTrustStrategy, rule.Strategy, venue)
		}
	}

	return nil
}

// Durations returns the parsed venue timeout, record and warm intervals.
// The config is expected to be validated
func (c *Config) Durations() (venueTimeout, record, warm time.Duration) {
	venueTimeout, _ = time.ParseDuration(c.VenueTimeout)
	record, _ = time.ParseDuration(c.RecordInterval)
	warm, _ = time.ParseDuration(c.WarmInterval)

	return venueTimeout, record, warm
}

// Read reads the configuration from the given path.
// Omitted values are set to their defaults
func Read(path string) (*Config, error) {
	// Read the config file
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Parse it
	var cfg Config

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// applyDefaults fills in the omitted values
func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = defaults.ListenAddress
	}

	if cfg.CORSConfig == nil {
		cfg.CORSConfig = defaults.CORSConfig
	}

	if len(cfg.Trust) == 0 {
		cfg.Trust = defaults.Trust
	}

	if cfg.Spread == nil {
		cfg.Spread = defaults.Spread
	}

	if len(cfg.Spread.Pairs) == 0 {
		cfg.Spread.Pairs = defaults.Spread.Pairs
	}

	if len(cfg.Spread.Venues) == 0 {
		cfg.Spread.Venues = defaults.Spread.Venues
	}

	if len(cfg.SupportedFiats) == 0 {
		cfg.SupportedFiats = defaults.SupportedFiats
	}

	if cfg.OfferRows == 0 {
		cfg.OfferRows = defaults.OfferRows
	}

	if cfg.VenueTimeout == "" {
		cfg.VenueTimeout = defaults.VenueTimeout
	}

	if cfg.RecordInterval == "" {
		cfg.RecordInterval = defaults.RecordInterval
	}

	if cfg.WarmInterval == "" {
		cfg.WarmInterval = defaults.WarmInterval
	}
}
