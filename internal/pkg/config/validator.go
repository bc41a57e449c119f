package config

import (
	"errors"
)

// Validate validates the configuration. Violations are fatal at startup.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	high := c.Risk.GetHighAmountThreshold()
	medium := c.Risk.GetMediumAmountThreshold()

	if high.IsNegative() || medium.IsNegative() {
		return errors.New("amount thresholds must not be negative")
	}
	if medium.GreaterThan(high) {
		return errors.New("medium_amount_threshold must not exceed high_amount_threshold")
	}
	if c.Risk.FrequencyThreshold < 0 {
		return errors.New("frequency_threshold must not be negative")
	}
	if c.Risk.TimeWindowMinutes <= 0 {
		return errors.New("time_window_minutes must be positive")
	}
	if c.Risk.CaseWorthyScoreThreshold < 0 {
		return errors.New("case_worthy_score_threshold must not be negative")
	}
	if c.Risk.MediumLevelScore >= c.Risk.HighLevelScore {
		return errors.New("medium_level_score must be less than high_level_score")
	}

	if c.RateLimit.Burst <= 0 {
		return errors.New("rate_limit burst must be positive")
	}
	if c.RateLimit.RefillPerSecond <= 0 {
		return errors.New("rate_limit refill_per_second must be positive")
	}

	if c.Otp.Length <= 0 {
		return errors.New("otp length must be positive")
	}
	if c.Otp.TtlMinutes <= 0 {
		return errors.New("otp ttl_minutes must be positive")
	}

	if c.Sweeper.CounterInterval <= 0 || c.Sweeper.OtpInterval <= 0 {
		return errors.New("sweeper intervals must be positive")
	}

	return nil
}
