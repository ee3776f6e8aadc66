// Package job drives one generation end to end: submit the composed prompt,
// poll until the remote job is terminal or the timeout passes, then download
// the variants. Each Run handles exactly one job, serially.
package job

import (
	"context"
	"fmt"
	"time"

	"github.com/fpang/calm-imagegen/internal/apiframe"
	"github.com/fpang/calm-imagegen/internal/apperr"
	"github.com/fpang/calm-imagegen/internal/asset"
	"github.com/fpang/calm-imagegen/internal/auth"
	"github.com/fpang/calm-imagegen/internal/prompt"
	"github.com/rs/zerolog/log"
)

// Defaults for Config and Options.
const (
	DefaultTimeout       = 300 * time.Second
	DefaultPollInterval  = 5 * time.Second
	DefaultMaxPollErrors = 3
	DefaultOutputDir     = "generated-assets"
)

// Gateway is the remote API the client drives. *apiframe.Client satisfies it.
type Gateway interface {
	Imagine(ctx context.Context, req apiframe.ImagineRequest) (apiframe.ImagineResponse, error)
	Fetch(ctx context.Context, taskID string) (apiframe.FetchResponse, error)
	Download(ctx context.Context, rawURL string) (*apiframe.Download, error)
}

// ProgressFunc is called after every successful poll.
type ProgressFunc func(job Job, elapsed time.Duration)

// Config holds the settings shared by every Run of a Client.
type Config struct {
	OutputDir     string
	PollInterval  time.Duration
	MaxPollErrors int
	Clock         Clock
	Progress      ProgressFunc
}

// Options are per-invocation settings.
type Options struct {
	Timeout    time.Duration
	NoDownload bool
	// Prefix names downloaded files; the template name is used when empty.
	Prefix string
}

// Result is the outcome of a successful Run.
type Result struct {
	JobID     string
	ImageURLs []string
	Assets    []asset.Asset
}

// Client submits, polls and downloads generation jobs.
type Client struct {
	gateway       Gateway
	outputDir     string
	pollInterval  time.Duration
	maxPollErrors int
	clock         Clock
	progress      ProgressFunc
}

// NewClient creates a Client with defaults filled in.
func NewClient(gateway Gateway, cfg Config) *Client {
	c := &Client{
		gateway:       gateway,
		outputDir:     cfg.OutputDir,
		pollInterval:  cfg.PollInterval,
		maxPollErrors: cfg.MaxPollErrors,
		clock:         cfg.Clock,
		progress:      cfg.Progress,
	}
	if c.outputDir == "" {
		c.outputDir = DefaultOutputDir
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.maxPollErrors <= 0 {
		c.maxPollErrors = DefaultMaxPollErrors
	}
	if c.clock == nil {
		c.clock = SystemClock{}
	}
	return c
}

// State is a step of the per-invocation state machine.
type State int

const (
	StateSubmitting State = iota
	StatePolling
	StateDownloading
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSubmitting:
		return "submitting"
	case StatePolling:
		return "polling"
	case StateDownloading:
		return "downloading"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Run executes one job end to end.
func (c *Client) Run(ctx context.Context, req prompt.Request, opts Options) (Result, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = req.Template
	}

	var (
		job    *Job
		result Result
		err    error
	)

	state := StateSubmitting
	for state != StateDone && state != StateFailed {
		log.Debug().Str("state", state.String()).Msg("Job state")

		switch state {
		case StateSubmitting:
			job, err = c.Submit(ctx, req)
			if err != nil {
				state = StateFailed
				continue
			}
			result.JobID = job.ID
			state = StatePolling

		case StatePolling:
			if err = c.Poll(ctx, job, timeout); err != nil {
				state = StateFailed
				continue
			}
			if job.Status == StatusFailed {
				err = generationFailed(job)
				state = StateFailed
				continue
			}
			if len(job.ImageURLs) == 0 {
				err = apperr.New(apperr.KindGenerationFailed, fmt.Sprintf("job %s completed without result URLs", job.ID))
				state = StateFailed
				continue
			}
			result.ImageURLs = append([]string(nil), job.ImageURLs...)
			if opts.NoDownload {
				state = StateDone
				continue
			}
			state = StateDownloading

		case StateDownloading:
			result.Assets, err = c.Download(ctx, job.ImageURLs, prefix)
			if err != nil {
				state = StateFailed
				continue
			}
			state = StateDone
		}
	}

	return result, err
}

// Submit sends the prompt and returns a pending job.
func (c *Client) Submit(ctx context.Context, req prompt.Request) (*Job, error) {
	log.Info().
		Str("template", req.Template).
		Str("aspect_ratio", req.AspectRatio).
		Str("prompt", truncate(req.Prompt, 100)).
		Msg("Submitting prompt to Midjourney")

	resp, err := c.gateway.Imagine(ctx, apiframe.ImagineRequest{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
	})
	if err != nil {
		return nil, auth.Classify(err, apperr.KindSubmissionFailed, "submit imagine request")
	}
	if resp.TaskID == "" {
		msg := "gateway response did not include a task_id"
		if reason := resp.Reason(); reason != "" {
			msg += ": " + reason
		}
		return nil, apperr.New(apperr.KindSubmissionFailed, msg)
	}

	log.Info().Str("task_id", resp.TaskID).Msg("Task submitted")
	return &Job{ID: resp.TaskID, Status: StatusPending}, nil
}

// Poll fetches the job status every poll interval until it is terminal or
// timeout has elapsed. A terminal job is never fetched again.
func (c *Client) Poll(ctx context.Context, job *Job, timeout time.Duration) error {
	if job.Status.Terminal() {
		return nil
	}

	start := c.clock.Now()
	failures := 0

	log.Info().
		Str("task_id", job.ID).
		Dur("timeout", timeout).
		Dur("interval", c.pollInterval).
		Msg("Waiting for generation to complete")

	for {
		resp, err := c.gateway.Fetch(ctx, job.ID)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()

		case err != nil && auth.IsAuthFailure(err):
			return auth.Classify(err, apperr.KindPollingFailed, "fetch job status")

		case err != nil:
			failures++
			log.Warn().
				Err(err).
				Str("task_id", job.ID).
				Int("consecutive_failures", failures).
				Int("max_failures", c.maxPollErrors).
				Msg("Status poll failed")
			if failures > c.maxPollErrors {
				return apperr.Wrap(apperr.KindPollingFailed,
					fmt.Sprintf("status poll failed %d times in a row", failures), err)
			}

		default:
			failures = 0
			if job.apply(resp) {
				log.Info().
					Str("task_id", job.ID).
					Str("status", job.Status.String()).
					Str("remote_status", job.RawStatus).
					Msg("Job status changed")
			}
			if c.progress != nil {
				c.progress(*job, c.clock.Now().Sub(start))
			}
			if job.Status.Terminal() {
				return nil
			}
		}

		elapsed := c.clock.Now().Sub(start)
		if elapsed >= timeout {
			return apperr.New(apperr.KindTimedOut,
				fmt.Sprintf("job %s reached no terminal status within %s (last status: %s); it may still complete remotely",
					job.ID, timeout, job.Status))
		}

		wait := c.pollInterval
		if remaining := timeout - elapsed; remaining < wait {
			wait = remaining
		}
		if err := c.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func generationFailed(job *Job) error {
	msg := fmt.Sprintf("job %s failed remotely", job.ID)
	if job.Message != "" {
		msg += ": " + job.Message
	}
	return apperr.New(apperr.KindGenerationFailed, msg)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
