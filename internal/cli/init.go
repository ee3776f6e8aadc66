package cli

import (
	"github.com/fpang/calm-imagegen/internal/apiframe"
	"github.com/fpang/calm-imagegen/internal/config"
	"github.com/fpang/calm-imagegen/internal/httpclient"
	"github.com/fpang/calm-imagegen/internal/job"
	"github.com/rs/zerolog/log"
)

// InitJobClient wires the gateway client and the job client from configuration.
// The API key is passed in explicitly; this function never reads the environment.
func InitJobClient(cfg config.Config, apiKey string, progress job.ProgressFunc) *job.Client {
	gateway := apiframe.New(apiframe.Options{
		APIKey:  apiKey,
		BaseURL: cfg.BaseURL,
		HTTPClient: httpclient.New(httpclient.Options{
			PreferIPv4: cfg.PreferIPv4,
			Timeout:    cfg.HTTPTimeout,
		}),
	})

	log.Debug().Str("base_url", gateway.BaseURL()).Msg("APIframe client initialized")

	return job.NewClient(gateway, job.Config{
		OutputDir:     cfg.OutputDir,
		PollInterval:  cfg.PollInterval,
		MaxPollErrors: cfg.MaxPollErrors,
		Progress:      progress,
	})
}
