package config

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Risk      RiskConfig      `mapstructure:"risk"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Otp       OtpConfig       `mapstructure:"otp"`
	Sweeper   SweeperConfig   `mapstructure:"sweeper"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// RiskConfig holds risk scoring configuration
type RiskConfig struct {
	// Kill switch: when disabled every event scores as not suspicious
	Enabled bool `mapstructure:"enabled"`

	// Amount thresholds (strings for YAML compatibility)
	HighAmountThreshold   string `mapstructure:"high_amount_threshold"`
	MediumAmountThreshold string `mapstructure:"medium_amount_threshold"`

	// Windowed frequency check
	FrequencyThreshold int `mapstructure:"frequency_threshold"`
	TimeWindowMinutes  int `mapstructure:"time_window_minutes"`

	// Score at or above which a suspicious case is opened.
	// Deliberately lower than the medium level cutoff: a low-level
	// assessment can still be case-worthy.
	CaseWorthyScoreThreshold int `mapstructure:"case_worthy_score_threshold"`

	// Level cutoffs
	HighLevelScore   int `mapstructure:"high_level_score"`
	MediumLevelScore int `mapstructure:"medium_level_score"`

	// User agents scored as automated abuse
	BlockedUserAgents []string `mapstructure:"blocked_user_agents"`
}

// GetHighAmountThreshold returns the high amount threshold as decimal
func (c *RiskConfig) GetHighAmountThreshold() decimal.Decimal {
	d, err := decimal.NewFromString(c.HighAmountThreshold)
	if err != nil {
		return decimal.NewFromInt(50000)
	}
	return d
}

// GetMediumAmountThreshold returns the medium amount threshold as decimal
func (c *RiskConfig) GetMediumAmountThreshold() decimal.Decimal {
	d, err := decimal.NewFromString(c.MediumAmountThreshold)
	if err != nil {
		return decimal.NewFromInt(10000)
	}
	return d
}

// Window returns the counting window as a duration
func (c *RiskConfig) Window() time.Duration {
	return time.Duration(c.TimeWindowMinutes) * time.Minute
}

// RateLimitConfig holds token bucket configuration
type RateLimitConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	Burst           int     `mapstructure:"burst"`
	RefillPerSecond float64 `mapstructure:"refill_per_second"`
}

// OtpConfig holds one-time password configuration
type OtpConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Length      int    `mapstructure:"length"`
	TtlMinutes  int    `mapstructure:"ttl_minutes"`
	MaxAttempts int    `mapstructure:"max_attempts"`
	TotpIssuer  string `mapstructure:"totp_issuer"`
}

// Ttl returns the code lifetime as a duration
func (c *OtpConfig) Ttl() time.Duration {
	return time.Duration(c.TtlMinutes) * time.Minute
}

// SweeperConfig holds cleanup sweeper configuration
type SweeperConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	CounterInterval time.Duration `mapstructure:"counter_interval"`
	OtpInterval     time.Duration `mapstructure:"otp_interval"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "risk_user",
			Password:        "",
			Name:            "credit_risk",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Host:         "localhost",
			Port:         6379,
			Password:     "",
			DB:           0,
			PoolSize:     10,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Risk: RiskConfig{
			Enabled:                  true,
			HighAmountThreshold:      "50000",
			MediumAmountThreshold:    "10000",
			FrequencyThreshold:       5,
			TimeWindowMinutes:        60,
			CaseWorthyScoreThreshold: 30,
			HighLevelScore:           70,
			MediumLevelScore:         40,
			BlockedUserAgents:        []string{"curl", "python-requests", "okhttp"},
		},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			Burst:           20,
			RefillPerSecond: 10,
		},
		Otp: OtpConfig{
			Enabled:     true,
			Length:      6,
			TtlMinutes:  5,
			MaxAttempts: 3,
			TotpIssuer:  "credit-risk-core",
		},
		Sweeper: SweeperConfig{
			Enabled:         true,
			CounterInterval: time.Hour,
			OtpInterval:     24 * time.Hour,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
