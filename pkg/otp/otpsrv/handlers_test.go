package otpsrv_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Abraxas-365/phonex/pkg/auth"
	"github.com/Abraxas-365/phonex/pkg/errx"
	"github.com/Abraxas-365/phonex/pkg/otp/otpsrv"
)

func newTestApp(t *testing.T, f *fixture, tokens *auth.TokenService) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *errx.Error
			if errx.As(err, &e) {
				return c.Status(e.HTTPStatus).JSON(e)
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	otpsrv.NewHandlers(f.service, tokens).RegisterRoutes(app)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, int(5*time.Second/time.Millisecond))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, body
}

func peekViaHTTP(t *testing.T, app *fiber.App, phone string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/auth/otp/"+phone, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("peek request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("peek returned %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode peek response: %v", err)
	}
	return body["code"]
}

func TestHandlers_SendOTP(t *testing.T) {
	f := newFixture(t, otpsrv.Config{})
	app := newTestApp(t, f, nil)

	resp, body := postJSON(t, app, "/auth/send-otp", fiber.Map{"phone": testPhone})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["success"] != true {
		t.Fatalf("expected success, got %v", body)
	}
	if body["channel"] != "sms" {
		t.Fatalf("expected sms channel, got %v", body["channel"])
	}
}

func TestHandlers_SendOTPRejectsBadPhone(t *testing.T) {
	f := newFixture(t, otpsrv.Config{})
	app := newTestApp(t, f, nil)

	for _, phone := range []string{"", "abc", "0123", "+0998901234567", "12345"} {
		resp, body := postJSON(t, app, "/auth/send-otp", fiber.Map{"phone": phone})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("phone %q: expected 400, got %d", phone, resp.StatusCode)
		}
		if body["code"] != "OTP_INVALID_PHONE" {
			t.Fatalf("phone %q: expected OTP_INVALID_PHONE, got %v", phone, body["code"])
		}
	}
}

func TestHandlers_VerifyOTPWithProofToken(t *testing.T) {
	f := newFixture(t, otpsrv.Config{})
	tokens := auth.NewTokenService("test-secret", 15*time.Minute, "")
	app := newTestApp(t, f, tokens)

	if resp, _ := postJSON(t, app, "/auth/send-otp", fiber.Map{"phone": testPhone}); resp.StatusCode != http.StatusOK {
		t.Fatalf("send returned %d", resp.StatusCode)
	}
	code := peekViaHTTP(t, app, testPhone)

	resp, body := postJSON(t, app, "/auth/verify-otp", fiber.Map{"phone": testPhone, "code": code})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["valid"] != true {
		t.Fatalf("expected valid, got %v", body)
	}

	signed, _ := body["token"].(string)
	if signed == "" {
		t.Fatal("expected a proof token in the response")
	}
	claims, err := tokens.Validate(signed)
	if err != nil {
		t.Fatalf("proof token did not validate: %v", err)
	}
	if claims.Phone != testPhone {
		t.Fatalf("expected phone claim %q, got %q", testPhone, claims.Phone)
	}
}

func TestHandlers_VerifyOTPWrongCode(t *testing.T) {
	f := newFixture(t, otpsrv.Config{})
	app := newTestApp(t, f, nil)

	if resp, _ := postJSON(t, app, "/auth/send-otp", fiber.Map{"phone": testPhone}); resp.StatusCode != http.StatusOK {
		t.Fatal("send failed")
	}
	code := peekViaHTTP(t, app, testPhone)
	wrong := "0000"
	if wrong == code {
		wrong = "0001"
	}

	resp, body := postJSON(t, app, "/auth/verify-otp", fiber.Map{"phone": testPhone, "code": wrong})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body["code"] != "OTP_INVALID_CODE" {
		t.Fatalf("expected OTP_INVALID_CODE, got %v", body["code"])
	}
}

func TestHandlers_VerifyOTPRejectsMalformedCode(t *testing.T) {
	f := newFixture(t, otpsrv.Config{})
	app := newTestApp(t, f, nil)

	resp, _ := postJSON(t, app, "/auth/verify-otp", fiber.Map{"phone": testPhone, "code": "12ab"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandlers_PeekRouteHiddenWhenDisabled(t *testing.T) {
	f := newFixture(t, otpsrv.Config{})
	service := otpsrv.NewService(f.store, f.limiter, &fakeDispatcher{}, otpsrv.Config{})

	app := fiber.New()
	otpsrv.NewHandlers(service, nil).RegisterRoutes(app)

	req := httptest.NewRequest(http.MethodGet, "/auth/otp/"+testPhone, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for hidden route, got %d", resp.StatusCode)
	}
}
