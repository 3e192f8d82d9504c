// Package otpsrv hosts the verification engine: it orchestrates the
// rate limiter, code generator, entry store and channel dispatcher for
// sends, and drives the per-phone verification state machine.
package otpsrv

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/Abraxas-365/phonex/pkg/errx"
	"github.com/Abraxas-365/phonex/pkg/logx"
	"github.com/Abraxas-365/phonex/pkg/otp"
)

// Config carries the tunables of the verification flow.
type Config struct {
	CodeLength  int
	TTL         time.Duration
	MaxAttempts int

	// AllowCodePeek enables the dev-only endpoint that exposes live
	// codes to test tooling. Never set in production.
	AllowCodePeek bool
}

func (c Config) withDefaults() Config {
	if c.CodeLength <= 0 {
		c.CodeLength = otp.DefaultCodeLength
	}
	if c.TTL <= 0 {
		c.TTL = 120 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	return c
}

// lockStripes is the size of the striped per-phone mutex table.
const lockStripes = 64

// Service implements the send and verify operations.
type Service struct {
	store      otp.Store
	limiter    otp.RateLimiter
	dispatcher otp.Dispatcher
	cfg        Config

	// locks serializes the verification state machine per phone so two
	// concurrent attempts cannot both pass the attempts-cap check.
	locks [lockStripes]sync.Mutex
}

// NewService wires the verification engine.
func NewService(store otp.Store, limiter otp.RateLimiter, dispatcher otp.Dispatcher, cfg Config) *Service {
	return &Service{
		store:      store,
		limiter:    limiter,
		dispatcher: dispatcher,
		cfg:        cfg.withDefaults(),
	}
}

// SendOTP generates a code for phone, stores the pending entry and
// dispatches it over the preferred channel. The rate limiter is charged
// only after a confirmed delivery; on dispatch failure the entry is
// deleted so no undeliverable code stays valid, and the caller may
// retry immediately.
func (s *Service) SendOTP(ctx context.Context, phone string, preferred otp.Channel) (otp.DispatchResult, error) {
	allowed, retryAfter, err := s.limiter.Check(ctx, phone)
	if err != nil {
		return otp.DispatchResult{}, errx.Wrap(err, "rate limiter check failed", errx.TypeInternal)
	}
	if !allowed {
		return otp.DispatchResult{}, otp.ErrRateLimited().
			WithMessage(fmt.Sprintf("Please wait %d seconds before requesting another code", retryAfter)).
			WithDetail("retry_after_seconds", retryAfter)
	}

	code := otp.GenerateCode(s.cfg.CodeLength)

	lock := s.lockFor(phone)
	lock.Lock()
	err = s.store.Put(ctx, phone, code, s.cfg.TTL)
	lock.Unlock()
	if err != nil {
		return otp.DispatchResult{}, errx.Wrap(err, "failed to store verification entry", errx.TypeInternal)
	}

	result, err := s.dispatcher.Send(ctx, phone, code, s.cfg.TTL, preferred)
	if err != nil {
		// No channel delivered the code: remove the entry and leave the
		// cooldown unarmed.
		if delErr := s.store.Delete(ctx, phone); delErr != nil {
			logx.WithError(delErr).Warn("failed to delete undeliverable verification entry")
		}
		return result, otp.ErrRegistry.NewWithCause(otp.CodeDeliveryFailed, err)
	}

	if err := s.limiter.RecordSuccess(ctx, phone); err != nil {
		logx.WithError(err).Warn("failed to record send for rate limiting")
	}

	logx.WithFields(logx.Fields{
		"phone":   maskPhone(phone),
		"channel": result.Channel,
	}).Info("verification code sent")
	return result, nil
}

// Verify runs the state machine for one submitted code. It performs no
// network I/O. A nil return means the code was accepted; repeated
// correct submissions inside the grace window succeed again without any
// state change.
func (s *Service) Verify(ctx context.Context, phone, code string) error {
	lock := s.lockFor(phone)
	lock.Lock()
	defer lock.Unlock()

	entry, err := s.store.Get(ctx, phone)
	if err != nil {
		return errx.Wrap(err, "failed to load verification entry", errx.TypeInternal)
	}
	if entry == nil {
		return otp.ErrCodeNotFound()
	}

	now := time.Now()
	if entry.IsExpired(now) {
		s.discard(ctx, phone)
		return otp.ErrCodeExpired()
	}
	if entry.Attempts >= s.cfg.MaxAttempts {
		s.discard(ctx, phone)
		return otp.ErrTooManyAttempts()
	}
	if entry.Verified {
		return nil
	}

	if entry.Code != code {
		attempts, incErr := s.store.IncrementAttempts(ctx, phone)
		if incErr != nil {
			return errx.Wrap(incErr, "failed to count verification attempt", errx.TypeInternal)
		}
		remaining := s.cfg.MaxAttempts - attempts
		if remaining < 0 {
			remaining = 0
		}
		return otp.ErrRegistry.
			NewWithMessage(otp.CodeInvalid, fmt.Sprintf("Incorrect code, %d attempts left", remaining)).
			WithDetail("attempts_remaining", remaining)
	}

	if err := s.store.MarkVerified(ctx, phone); err != nil {
		return errx.Wrap(err, "failed to mark entry verified", errx.TypeInternal)
	}

	logx.WithField("phone", maskPhone(phone)).Info("phone verified")
	return nil
}

// PeekCode returns the live code for phone. Only available when
// AllowCodePeek is set; production configurations never enable it.
func (s *Service) PeekCode(ctx context.Context, phone string) (string, error) {
	if !s.cfg.AllowCodePeek {
		return "", errx.New("code peek is disabled", errx.TypeAuthorization)
	}
	entry, err := s.store.Get(ctx, phone)
	if err != nil {
		return "", errx.Wrap(err, "failed to load verification entry", errx.TypeInternal)
	}
	if entry == nil {
		return "", otp.ErrCodeNotFound()
	}
	return entry.Code, nil
}

// CodePeekEnabled reports whether the dev code endpoint is on.
func (s *Service) CodePeekEnabled() bool {
	return s.cfg.AllowCodePeek
}

// discard drops an entry that reached a terminal failure state.
func (s *Service) discard(ctx context.Context, phone string) {
	if err := s.store.Delete(ctx, phone); err != nil {
		logx.WithError(err).Warn("failed to delete terminal verification entry")
	}
}

func (s *Service) lockFor(phone string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(phone))
	return &s.locks[h.Sum32()%lockStripes]
}

func maskPhone(phone string) string {
	if len(phone) <= 7 {
		return phone
	}
	return phone[:7] + "***"
}
