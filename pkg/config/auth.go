package config

import "time"

// AuthConfig configures the verification proof token issued after a
// successful phone verification.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	Issuer    string
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("VERIFICATION_TOKEN_TTL", 15*time.Minute),
		Issuer:    getEnv("JWT_ISSUER", "phonex"),
	}
}
