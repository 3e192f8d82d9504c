package otp

import "time"

// Channel identifies a delivery channel for verification codes.
type Channel string

const (
	// ChannelTelegram delivers through the Telegram Gateway API. No bot
	// or prior registration is required; Telegram messages the phone
	// number directly.
	ChannelTelegram Channel = "telegram"

	// ChannelSMS delivers through the SMS provider. Always available,
	// paid per message.
	ChannelSMS Channel = "sms"
)

// ParseChannel maps a request value to a Channel, defaulting to SMS.
func ParseChannel(s string) Channel {
	if Channel(s) == ChannelTelegram {
		return ChannelTelegram
	}
	return ChannelSMS
}

// Entry represents one pending or recently-resolved verification
// challenge for a phone number. At most one live Entry exists per phone;
// a new send overwrites the previous one.
type Entry struct {
	Phone     string    `json:"phone"`
	Code      string    `json:"code"`
	Attempts  int       `json:"attempts"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the entry is past its TTL at the given
// instant. An expired entry is never valid, regardless of attempts or
// the verified flag.
func (e *Entry) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// DispatchResult reports which channel ultimately delivered a code.
type DispatchResult struct {
	Channel Channel
	// ID is the provider-side identifier for the message: the gateway
	// request ID for Telegram, the message ID for SMS.
	ID string
}
