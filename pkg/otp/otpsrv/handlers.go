package otpsrv

import (
	"regexp"

	"github.com/gofiber/fiber/v2"

	"github.com/Abraxas-365/phonex/pkg/auth"
	"github.com/Abraxas-365/phonex/pkg/otp"
)

// phonePattern is a pragmatic E.164 check: optional +, 8-15 digits, no
// leading zero.
var phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{7,14}$`)

// codePattern accepts any code length this service can be configured
// to generate.
var codePattern = regexp.MustCompile(`^[0-9]{4,10}$`)

// Handlers binds the verification engine to the HTTP surface.
type Handlers struct {
	service *Service
	tokens  *auth.TokenService
}

// NewHandlers creates the route handlers. tokens may be nil, in which
// case verify responses carry no proof token.
func NewHandlers(service *Service, tokens *auth.TokenService) *Handlers {
	return &Handlers{service: service, tokens: tokens}
}

// RegisterRoutes mounts the verification endpoints on the app.
func (h *Handlers) RegisterRoutes(app *fiber.App) {
	group := app.Group("/auth")
	group.Post("/send-otp", h.sendOTP)
	group.Post("/verify-otp", h.verifyOTP)
	if h.service.CodePeekEnabled() {
		group.Get("/otp/:phone", h.peekCode)
	}
}

type sendOTPRequest struct {
	Phone   string `json:"phone"`
	Channel string `json:"channel"`
}

func (h *Handlers) sendOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return otp.ErrInvalidPhone().WithDetail("reason", "malformed request body")
	}
	if !phonePattern.MatchString(req.Phone) {
		return otp.ErrInvalidPhone()
	}

	result, err := h.service.SendOTP(c.Context(), req.Phone, otp.ParseChannel(req.Channel))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"channel": result.Channel,
	})
}

type verifyOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

func (h *Handlers) verifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return otp.ErrInvalidPhone().WithDetail("reason", "malformed request body")
	}
	if !phonePattern.MatchString(req.Phone) {
		return otp.ErrInvalidPhone()
	}
	if !codePattern.MatchString(req.Code) {
		return otp.ErrInvalidCode()
	}

	if err := h.service.Verify(c.Context(), req.Phone, req.Code); err != nil {
		return err
	}

	response := fiber.Map{"valid": true}
	if h.tokens != nil {
		token, expiresAt, err := h.tokens.Issue(req.Phone)
		if err != nil {
			return err
		}
		response["token"] = token
		response["expires_at"] = expiresAt.Unix()
	}
	return c.JSON(response)
}

// peekCode exposes the live code for test tooling. Mounted only when
// code peeking is enabled, which production configs never do.
func (h *Handlers) peekCode(c *fiber.Ctx) error {
	phone := c.Params("phone")
	code, err := h.service.PeekCode(c.Context(), phone)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"phone": phone, "code": code})
}
