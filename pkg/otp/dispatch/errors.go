package dispatch

import (
	"net/http"

	"github.com/Abraxas-365/phonex/pkg/errx"
)

var dispatchErrors = errx.NewRegistry("DISPATCH")

var (
	// ErrRecipientUnreachable means the gateway definitively reported
	// that the phone is not reachable on that channel (e.g. the number
	// has no Telegram account). It triggers SMS fallback.
	ErrRecipientUnreachable = dispatchErrors.Register("RECIPIENT_UNREACHABLE", errx.TypeExternal, http.StatusBadGateway, "Recipient is not reachable on this channel")

	// ErrGatewayFailure is any other Telegram Gateway failure.
	ErrGatewayFailure = dispatchErrors.Register("GATEWAY_FAILURE", errx.TypeExternal, http.StatusBadGateway, "Telegram Gateway request failed")

	// ErrSMSFailure is a failed SMS provider send.
	ErrSMSFailure = dispatchErrors.Register("SMS_FAILURE", errx.TypeExternal, http.StatusBadGateway, "SMS provider request failed")

	// ErrAuthFailure means the SMS provider rejected our credentials
	// even after a fresh login.
	ErrAuthFailure = dispatchErrors.Register("AUTH_FAILURE", errx.TypeExternal, http.StatusBadGateway, "SMS provider authentication failed")

	// ErrNoChannel means no delivery channel is configured at all.
	ErrNoChannel = dispatchErrors.Register("NO_CHANNEL", errx.TypeInternal, http.StatusInternalServerError, "No delivery channel is configured")
)

// IsRecipientUnreachable reports whether err is the definitive
// "not on this channel" gateway outcome.
func IsRecipientUnreachable(err error) bool {
	return errx.IsCode(err, ErrRecipientUnreachable)
}
