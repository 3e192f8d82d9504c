// Package dispatch decides which channel carries a verification code
// and performs the fallback chain: Telegram Gateway first when
// preferred and configured, SMS otherwise or on any gateway failure.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/Abraxas-365/phonex/pkg/logx"
	"github.com/Abraxas-365/phonex/pkg/otp"
)

// VerificationSender is the rich primary channel: it addresses the
// phone number directly and needs no user action.
type VerificationSender interface {
	SendVerification(ctx context.Context, phone, code string, ttl time.Duration) (requestID string, err error)
}

// SMSSender is the always-available paid fallback.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (messageID string, err error)
}

// ChannelDispatcher implements otp.Dispatcher over a primary sender and
// an SMS sender. The primary may be nil when unconfigured.
type ChannelDispatcher struct {
	primary VerificationSender
	sms     SMSSender
}

// NewChannelDispatcher wires the dispatcher. sms must not be nil;
// primary may be.
func NewChannelDispatcher(primary VerificationSender, sms SMSSender) *ChannelDispatcher {
	return &ChannelDispatcher{primary: primary, sms: sms}
}

// Send delivers code to phone. The fallback reuses the exact code the
// caller stored, so a user who later receives a delayed message from
// the failed channel still holds a working code. At most one provider
// send succeeds per call: a gateway success returns immediately and SMS
// is never attempted.
func (d *ChannelDispatcher) Send(ctx context.Context, phone, code string, ttl time.Duration, preferred otp.Channel) (otp.DispatchResult, error) {
	if preferred == otp.ChannelTelegram && d.primary != nil {
		requestID, err := d.primary.SendVerification(ctx, phone, code, ttl)
		if err == nil {
			return otp.DispatchResult{Channel: otp.ChannelTelegram, ID: requestID}, nil
		}

		entry := logx.WithField("phone", maskPhone(phone)).WithError(err)
		if IsRecipientUnreachable(err) {
			entry.Info("phone not reachable on telegram, falling back to sms")
		} else {
			entry.Warn("telegram gateway failed, falling back to sms")
		}
	}

	if d.sms == nil {
		return otp.DispatchResult{}, dispatchErrors.New(ErrNoChannel)
	}

	messageID, err := d.sms.SendSMS(ctx, phone, smsMessage(code, ttl))
	if err != nil {
		return otp.DispatchResult{Channel: otp.ChannelSMS}, err
	}
	return otp.DispatchResult{Channel: otp.ChannelSMS, ID: messageID}, nil
}

// smsMessage formats the SMS body with the code and its validity,
// in minutes when the TTL divides evenly, in seconds otherwise.
func smsMessage(code string, ttl time.Duration) string {
	seconds := int(ttl.Seconds())
	if seconds >= 60 && seconds%60 == 0 {
		minutes := seconds / 60
		unit := "minutes"
		if minutes == 1 {
			unit = "minute"
		}
		return fmt.Sprintf("Phonex verification code: %s. Valid for %d %s.", code, minutes, unit)
	}
	return fmt.Sprintf("Phonex verification code: %s. Valid for %d seconds.", code, seconds)
}
