package otp

import (
	"net/http"

	"github.com/Abraxas-365/phonex/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("OTP")

var (
	CodeNotFound        = ErrRegistry.Register("CODE_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "No verification code found, request a new one")
	CodeExpired         = ErrRegistry.Register("CODE_EXPIRED", errx.TypeValidation, http.StatusBadRequest, "Verification code has expired, request a new one")
	CodeInvalid         = ErrRegistry.Register("INVALID_CODE", errx.TypeValidation, http.StatusBadRequest, "Incorrect verification code")
	CodeTooManyAttempts = ErrRegistry.Register("TOO_MANY_ATTEMPTS", errx.TypeBusiness, http.StatusTooManyRequests, "Too many verification attempts, request a new code")
	CodeRateLimited     = ErrRegistry.Register("TOO_MANY_REQUESTS", errx.TypeBusiness, http.StatusTooManyRequests, "Please wait before requesting another code")
	CodeDeliveryFailed  = ErrRegistry.Register("DELIVERY_FAILED", errx.TypeExternal, http.StatusBadGateway, "Could not deliver the verification code")
	CodeInvalidPhone    = ErrRegistry.Register("INVALID_PHONE", errx.TypeValidation, http.StatusBadRequest, "Invalid phone number")
	CodeStoreFailure    = ErrRegistry.Register("STORE_FAILURE", errx.TypeInternal, http.StatusInternalServerError, "Verification storage failed")
)

func ErrCodeNotFound() *errx.Error    { return ErrRegistry.New(CodeNotFound) }
func ErrCodeExpired() *errx.Error     { return ErrRegistry.New(CodeExpired) }
func ErrInvalidCode() *errx.Error     { return ErrRegistry.New(CodeInvalid) }
func ErrTooManyAttempts() *errx.Error { return ErrRegistry.New(CodeTooManyAttempts) }
func ErrRateLimited() *errx.Error     { return ErrRegistry.New(CodeRateLimited) }
func ErrDeliveryFailed() *errx.Error  { return ErrRegistry.New(CodeDeliveryFailed) }
func ErrInvalidPhone() *errx.Error    { return ErrRegistry.New(CodeInvalidPhone) }
