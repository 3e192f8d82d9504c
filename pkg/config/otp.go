package config

import "time"

// OTPConfig configures the verification code lifecycle.
type OTPConfig struct {
	CodeLength    int
	TTL           time.Duration
	MaxAttempts   int
	Cooldown      time.Duration
	GraceWindow   time.Duration
	SweepInterval time.Duration
	StoreBackend  string // "memory" or "redis"
}

func loadOTPConfig() OTPConfig {
	return OTPConfig{
		CodeLength:    getEnvInt("OTP_CODE_LENGTH", 4),
		TTL:           getEnvDuration("OTP_TTL", 120*time.Second),
		MaxAttempts:   getEnvInt("OTP_MAX_ATTEMPTS", 3),
		Cooldown:      getEnvDuration("OTP_COOLDOWN", 60*time.Second),
		GraceWindow:   getEnvDuration("OTP_GRACE_WINDOW", 10*time.Second),
		SweepInterval: getEnvDuration("OTP_SWEEP_INTERVAL", 5*time.Minute),
		StoreBackend:  getEnv("OTP_STORE_BACKEND", "memory"),
	}
}
