package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fpang/calm-imagegen/internal/apperr"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// EnvAPIKey is the variable holding the APIframe key.
const EnvAPIKey = "APIFRAME_API_KEY"

// GetAPIKey retrieves the APIframe API key from available sources.
// Priority order:
//  1. APIFRAME_API_KEY environment variable
//  2. APIFRAME_API_KEY entry in the given .env files (read, not exported)
//
// A missing key is an AuthenticationFailed error so the caller can stop
// before any request is made.
func GetAPIKey(envFiles ...string) (string, error) {
	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		log.Debug().Msg("Using API key from environment variable")
		return key, nil
	}

	key, err := getFromDotEnv(envFiles)
	if err == nil && key != "" {
		log.Debug().Msg("Using API key from .env file")
		return key, nil
	}

	if err != nil {
		log.Debug().Err(err).Msg("No API key in .env files")
	}
	return "", apperr.New(apperr.KindAuthenticationFailed,
		fmt.Sprintf("API key not found. Set %s in the environment or add %s=your_key_here to your .env file", EnvAPIKey, EnvAPIKey))
}

// getFromDotEnv returns the first non-empty key found in files that exist.
func getFromDotEnv(files []string) (string, error) {
	var errs []error
	for _, path := range files {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			if !os.IsNotExist(err) {
				errs = append(errs, err)
			}
			continue
		}

		values, err := godotenv.Read(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", path, err))
			continue
		}
		if key := strings.TrimSpace(values[EnvAPIKey]); key != "" {
			return key, nil
		}
	}
	return "", errors.Join(errs...)
}
