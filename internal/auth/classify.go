package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/fpang/calm-imagegen/internal/apiframe"
	"github.com/fpang/calm-imagegen/internal/apperr"
	"github.com/rs/zerolog/log"
)

// Classify maps a gateway error onto an apperr kind. Credential problems are
// always AuthenticationFailed; everything else gets the fallback kind for the
// phase the caller is in (submission, polling, download).
func Classify(err error, fallback apperr.Kind, message string) error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, apiframe.ErrNoAPIKey) {
		return apperr.Wrap(apperr.KindAuthenticationFailed, "no API key configured", err)
	}

	var statusErr *apiframe.StatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(statusErr, fallback, message)
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	return apperr.Wrap(fallback, message, err)
}

// IsAuthFailure reports whether err is a credential rejection.
func IsAuthFailure(err error) bool {
	if errors.Is(err, apiframe.ErrNoAPIKey) {
		return true
	}
	var statusErr *apiframe.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusUnauthorized || statusErr.Code == http.StatusForbidden
	}
	return apperr.IsKind(err, apperr.KindAuthenticationFailed)
}

func classifyStatus(err *apiframe.StatusError, fallback apperr.Kind, message string) error {
	switch err.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		log.Error().Int("code", err.Code).Msg("Authentication failed - invalid API key")
		return apperr.Wrap(apperr.KindAuthenticationFailed, "API key is invalid, expired, or lacks permissions", err)

	case http.StatusTooManyRequests:
		log.Error().Int("code", err.Code).Msg("Rate limit exceeded")
		return apperr.Wrap(fallback, message+" (rate limited, try again later)", err)

	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		log.Error().Int("code", err.Code).Msg("APIframe server error")
		return apperr.Wrap(fallback, message+" (gateway server error)", err)

	default:
		log.Error().Int("code", err.Code).Str("body", err.Body).Msg("APIframe error")
		return apperr.Wrap(fallback, message, err)
	}
}
