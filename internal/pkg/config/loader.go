package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()

	setDefaults(v, cfg)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Config file not found is ok - defaults and env vars apply
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("RISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	// Server defaults
	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)

	// Database defaults
	v.SetDefault("database.host", cfg.Database.Host)
	v.SetDefault("database.port", cfg.Database.Port)
	v.SetDefault("database.user", cfg.Database.User)
	v.SetDefault("database.name", cfg.Database.Name)
	v.SetDefault("database.ssl_mode", cfg.Database.SSLMode)

	// Redis defaults
	v.SetDefault("redis.host", cfg.Redis.Host)
	v.SetDefault("redis.port", cfg.Redis.Port)
	v.SetDefault("redis.db", cfg.Redis.DB)
	v.SetDefault("redis.pool_size", cfg.Redis.PoolSize)

	// Risk defaults
	v.SetDefault("risk.enabled", cfg.Risk.Enabled)
	v.SetDefault("risk.high_amount_threshold", cfg.Risk.HighAmountThreshold)
	v.SetDefault("risk.medium_amount_threshold", cfg.Risk.MediumAmountThreshold)
	v.SetDefault("risk.frequency_threshold", cfg.Risk.FrequencyThreshold)
	v.SetDefault("risk.time_window_minutes", cfg.Risk.TimeWindowMinutes)
	v.SetDefault("risk.case_worthy_score_threshold", cfg.Risk.CaseWorthyScoreThreshold)
	v.SetDefault("risk.high_level_score", cfg.Risk.HighLevelScore)
	v.SetDefault("risk.medium_level_score", cfg.Risk.MediumLevelScore)
	v.SetDefault("risk.blocked_user_agents", cfg.Risk.BlockedUserAgents)

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", cfg.RateLimit.Enabled)
	v.SetDefault("rate_limit.burst", cfg.RateLimit.Burst)
	v.SetDefault("rate_limit.refill_per_second", cfg.RateLimit.RefillPerSecond)

	// OTP defaults
	v.SetDefault("otp.enabled", cfg.Otp.Enabled)
	v.SetDefault("otp.length", cfg.Otp.Length)
	v.SetDefault("otp.ttl_minutes", cfg.Otp.TtlMinutes)
	v.SetDefault("otp.max_attempts", cfg.Otp.MaxAttempts)
	v.SetDefault("otp.totp_issuer", cfg.Otp.TotpIssuer)

	// Sweeper defaults
	v.SetDefault("sweeper.enabled", cfg.Sweeper.Enabled)
	v.SetDefault("sweeper.counter_interval", cfg.Sweeper.CounterInterval)
	v.SetDefault("sweeper.otp_interval", cfg.Sweeper.OtpInterval)

	// Metrics defaults
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.path", cfg.Metrics.Path)

	// Log defaults
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}
