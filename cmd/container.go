// cmd/container.go
//
// Composition root. Owns infrastructure (Redis when configured) and
// wires the OTP module: store, rate limiter, channel clients,
// dispatcher, engine, handlers.
package main

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/Abraxas-365/phonex/pkg/auth"
	"github.com/Abraxas-365/phonex/pkg/config"
	"github.com/Abraxas-365/phonex/pkg/logx"
	"github.com/Abraxas-365/phonex/pkg/otp"
	"github.com/Abraxas-365/phonex/pkg/otp/dispatch"
	"github.com/Abraxas-365/phonex/pkg/otp/otpsrv"
	"github.com/Abraxas-365/phonex/pkg/otp/otpstore"
	"github.com/Abraxas-365/phonex/pkg/otp/ratelimit"
)

// Container holds shared infrastructure and the composed OTP module.
type Container struct {
	Config *config.Config

	// Infrastructure
	Redis *redis.Client // nil with the in-memory backend

	// OTP module
	Store       otp.Store
	Limiter     otp.RateLimiter
	OTPService  *otpsrv.Service
	OTPHandlers *otpsrv.Handlers
	Tokens      *auth.TokenService
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("Initializing application container...")

	c := &Container{Config: cfg}

	c.checkStartupConditions()
	c.initInfrastructure()
	c.initOTPModule()

	logx.Info("Application container initialized")
	return c
}

// checkStartupConditions turns misconfiguration into a boot failure
// instead of a per-request surprise.
func (c *Container) checkStartupConditions() {
	if err := otp.ProbeEntropy(); err != nil {
		logx.Fatalf("Entropy probe failed: %v", err)
	}
	// SMS is the mandatory fallback channel; without credentials no
	// code could ever be delivered.
	if !c.Config.Eskiz.Configured() {
		logx.Fatal("ESKIZ_EMAIL and ESKIZ_PASSWORD must be set (SMS is the fallback channel)")
	}
	if !c.Config.Telegram.Configured() {
		logx.Warn("TELEGRAM_GATEWAY_TOKEN not set, all codes will go out via SMS")
	}
	if c.Config.Auth.JWTSecret == "" && c.Config.Server.IsProduction() {
		logx.Fatal("JWT_SECRET must be set in production")
	}
}

func (c *Container) initInfrastructure() {
	if c.Config.OTP.StoreBackend != "redis" {
		return
	}

	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logx.Fatalf("Failed to connect to Redis: %v (required for the redis store backend)", err)
	}
	logx.Info("Redis connected")
}

func (c *Container) initOTPModule() {
	otpCfg := c.Config.OTP

	if c.Redis != nil {
		c.Store = otpstore.NewRedisStore(c.Redis, otpCfg.GraceWindow)
		c.Limiter = ratelimit.NewRedisLimiter(c.Redis, otpCfg.Cooldown)
		logx.Info("OTP store backend: redis")
	} else {
		c.Store = otpstore.NewMemoryStore(otpCfg.GraceWindow, otpCfg.SweepInterval)
		c.Limiter = ratelimit.NewMemoryLimiter(otpCfg.Cooldown, otpCfg.SweepInterval)
		logx.Info("OTP store backend: memory")
	}

	var primary dispatch.VerificationSender
	if c.Config.Telegram.Configured() {
		primary = dispatch.NewGatewayClient(c.Config.Telegram.GatewayToken)
	}
	sms := dispatch.NewEskizClient(c.Config.Eskiz.Email, c.Config.Eskiz.Password, c.Config.Eskiz.Sender)
	dispatcher := dispatch.NewChannelDispatcher(primary, sms)

	c.OTPService = otpsrv.NewService(c.Store, c.Limiter, dispatcher, otpsrv.Config{
		CodeLength:    otpCfg.CodeLength,
		TTL:           otpCfg.TTL,
		MaxAttempts:   otpCfg.MaxAttempts,
		AllowCodePeek: !c.Config.Server.IsProduction(),
	})

	if c.Config.Auth.JWTSecret != "" {
		c.Tokens = auth.NewTokenService(c.Config.Auth.JWTSecret, c.Config.Auth.TokenTTL, c.Config.Auth.Issuer)
	} else {
		logx.Warn("JWT_SECRET not set, verify responses will carry no proof token")
	}

	c.OTPHandlers = otpsrv.NewHandlers(c.OTPService, c.Tokens)
}

// Cleanup stops background sweepers and closes connections.
func (c *Container) Cleanup() {
	logx.Info("Cleaning up resources...")

	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			logx.Errorf("Error closing OTP store: %v", err)
		}
	}
	if c.Limiter != nil {
		if err := c.Limiter.Close(); err != nil {
			logx.Errorf("Error closing rate limiter: %v", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		}
	}

	logx.Info("Cleanup complete")
}
