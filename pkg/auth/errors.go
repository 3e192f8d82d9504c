package auth

import (
	"net/http"

	"github.com/Abraxas-365/phonex/pkg/errx"
)

var authErrors = errx.NewRegistry("AUTH")

var (
	ErrTokenGeneration = authErrors.Register("TOKEN_GENERATION", errx.TypeInternal, http.StatusInternalServerError, "Failed to generate verification token")
	ErrTokenInvalid    = authErrors.Register("TOKEN_INVALID", errx.TypeAuthorization, http.StatusUnauthorized, "Verification token is invalid or expired")
)
