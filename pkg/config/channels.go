package config

// TelegramConfig configures the Telegram Gateway verification channel.
// The channel is considered unconfigured when the token is empty, in
// which case all sends go straight to SMS.
type TelegramConfig struct {
	GatewayToken string
}

func loadTelegramConfig() TelegramConfig {
	return TelegramConfig{
		GatewayToken: getEnv("TELEGRAM_GATEWAY_TOKEN", ""),
	}
}

// Configured reports whether the Telegram Gateway channel is usable.
func (t TelegramConfig) Configured() bool {
	return t.GatewayToken != ""
}

// EskizConfig configures the Eskiz SMS provider.
type EskizConfig struct {
	Email    string
	Password string
	Sender   string
}

func loadEskizConfig() EskizConfig {
	return EskizConfig{
		Email:    getEnv("ESKIZ_EMAIL", ""),
		Password: getEnv("ESKIZ_PASSWORD", ""),
		Sender:   getEnv("ESKIZ_SENDER", "4546"),
	}
}

// Configured reports whether SMS credentials are present.
func (e EskizConfig) Configured() bool {
	return e.Email != "" && e.Password != ""
}
