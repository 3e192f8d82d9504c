package otpstore

import (
	"net/http"

	"github.com/Abraxas-365/phonex/pkg/errx"
)

var storeErrors = errx.NewRegistry("OTPSTORE")

var (
	ErrEntryMissing = storeErrors.Register("ENTRY_MISSING", errx.TypeNotFound, http.StatusNotFound, "No verification entry for this phone")
	ErrBackend      = storeErrors.Register("BACKEND", errx.TypeInternal, http.StatusInternalServerError, "Verification store backend failure")
	ErrDecode       = storeErrors.Register("DECODE", errx.TypeInternal, http.StatusInternalServerError, "Failed to decode verification entry")
)
