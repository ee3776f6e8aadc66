package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fpang/calm-imagegen/internal/apperr"
	"github.com/rs/zerolog/log"
)

// Exit codes. Local validation failures share one code; every remote failure
// kind has its own so scripts can branch on them.
const (
	ExitOK               = 0
	ExitUnknown          = 1
	ExitUsage            = 2
	ExitAuthentication   = 3
	ExitSubmission       = 4
	ExitPolling          = 5
	ExitTimedOut         = 6
	ExitGenerationFailed = 7
	ExitDownload         = 8
	ExitInterrupted      = 130
)

// ResolveOutputDirectory returns the absolute output path. The directory may
// not exist yet, but the path must not name an existing file.
func ResolveOutputDirectory(dir string) (string, error) {
	if dir == "" {
		return "", apperr.New(apperr.KindInvalidParameter, "output directory must not be empty")
	}

	info, err := os.Stat(dir)
	if err == nil && !info.IsDir() {
		return "", apperr.New(apperr.KindInvalidParameter, fmt.Sprintf("output path %s is not a directory", dir))
	}
	if err != nil && !os.IsNotExist(err) {
		return "", apperr.Wrap(apperr.KindInvalidParameter, "failed to access output directory", err)
	}

	absPath, err := filepath.Abs(dir)
	if err == nil {
		dir = absPath
	}
	return dir, nil
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}

	switch apperr.KindOf(err) {
	case apperr.KindInvalidTemplate, apperr.KindMissingRequiredParameter, apperr.KindInvalidParameter:
		return ExitUsage
	case apperr.KindAuthenticationFailed:
		return ExitAuthentication
	case apperr.KindSubmissionFailed:
		return ExitSubmission
	case apperr.KindPollingFailed:
		return ExitPolling
	case apperr.KindTimedOut:
		return ExitTimedOut
	case apperr.KindGenerationFailed:
		return ExitGenerationFailed
	case apperr.KindDownloadFailed:
		return ExitDownload
	}
	return ExitUnknown
}

// HandleError logs err with guidance for its kind and returns the exit code.
func HandleError(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		log.Error().Msg("Interrupted")
		return ExitInterrupted
	}

	kind := apperr.KindOf(err)
	evt := log.Error().Err(err).Str("kind", kind.String())

	switch kind {
	case apperr.KindInvalidTemplate:
		evt.Msg("Unknown template. Run with --list to see available templates")
	case apperr.KindMissingRequiredParameter:
		evt.Msg("Missing required parameter")
	case apperr.KindInvalidParameter:
		evt.Msg("Invalid parameter")
	case apperr.KindAuthenticationFailed:
		evt.Msg("Authentication failed. Check APIFRAME_API_KEY in your environment or .env file")
	case apperr.KindSubmissionFailed:
		evt.Msg("Failed to submit prompt")
	case apperr.KindPollingFailed:
		evt.Msg("Lost contact with the gateway while waiting for the job")
	case apperr.KindTimedOut:
		evt.Msg("Timed out waiting for generation. Increase --timeout or check the job later")
	case apperr.KindGenerationFailed:
		evt.Msg("Generation failed")
	case apperr.KindDownloadFailed:
		evt.Msg("Failed to download generated images")
	default:
		evt.Msg("Unexpected error")
	}

	return ExitCode(err)
}
