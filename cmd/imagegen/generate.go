package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fpang/calm-imagegen/internal/apperr"
	"github.com/fpang/calm-imagegen/internal/auth"
	"github.com/fpang/calm-imagegen/internal/cli"
	"github.com/fpang/calm-imagegen/internal/config"
	"github.com/fpang/calm-imagegen/internal/job"
	"github.com/fpang/calm-imagegen/internal/logging"
	"github.com/fpang/calm-imagegen/internal/metrics"
	"github.com/fpang/calm-imagegen/internal/prompt"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// defaultInterviewMode is used when interview-banner is run without --mode.
const defaultInterviewMode = "human-human"

// runMain is the main execution logic called by Cobra.
func runMain(cmd *cobra.Command, args []string) error {
	if listFlag {
		cli.RenderTemplates(cmd.OutOrStdout(), prompt.Templates())
		return nil
	}
	if len(args) == 0 {
		return apperr.New(apperr.KindMissingRequiredParameter,
			"a template name is required (run with --list to see templates)")
	}
	name := args[0]

	cfg, err := setup()
	if err != nil {
		return err
	}

	req, err := prompt.Compose(name, composeOptions(cmd, name))
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir = outputDirFlag
	}
	if cfg.OutputDir, err = cli.ResolveOutputDirectory(cfg.OutputDir); err != nil {
		return err
	}
	timeout := cfg.Timeout
	if cmd.Flags().Changed("timeout") {
		if timeout, err = timeoutFromSeconds(timeoutFlag); err != nil {
			return err
		}
	}

	apiKey, err := auth.GetAPIKey(envFileFlag)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	log.Logger = log.With().Str("run_id", runID).Logger()

	logging.NewRunSummary(runID).
		Version(version).
		Request("template", req.Template).
		Request("aspect_ratio", req.AspectRatio).
		Request("output_prefix", outputPrefixFlag).
		Request("sref", req.References.StyleURL).
		Request("cref", req.References.CharacterURL).
		Request("image_prompt", req.References.ImageURL).
		Config("base_url", cfg.BaseURL).
		Config("output_dir", cfg.OutputDir).
		Config("env_file", envFileFlag).
		Feature("download", !noDownloadFlag).
		Feature("references", !req.References.Empty()).
		Feature("prefer_ipv4", cfg.PreferIPv4).
		Limit("timeout", timeout).
		Limit("poll_interval", cfg.PollInterval).
		Limit("http_timeout", cfg.HTTPTimeout).
		Log()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := metrics.New("imagegen").Dimension("template", req.Template)
	printer := cli.ProgressPrinter(cmd.ErrOrStderr())
	progress := func(j job.Job, elapsed time.Duration) {
		rec.Count("polls")
		printer(j, elapsed)
	}

	client := cli.InitJobClient(cfg, apiKey, progress)
	start := time.Now()
	result, err := client.Run(ctx, req, job.Options{
		Timeout:    timeout,
		NoDownload: noDownloadFlag,
		Prefix:     outputPrefixFlag,
	})
	recordRun(rec, result, err, time.Since(start)).Flush(log.Logger)

	printResult(cmd.OutOrStdout(), result, noDownloadFlag)
	return err
}

// recordRun adds the outcome of a finished run to rec.
func recordRun(rec *metrics.Recorder, result job.Result, err error, elapsed time.Duration) *metrics.Recorder {
	outcome := "ok"
	switch {
	case errors.Is(err, context.Canceled):
		outcome = "interrupted"
	case err != nil:
		outcome = apperr.KindOf(err).String()
	}

	var written int64
	for _, a := range result.Assets {
		written += a.Size
	}

	return rec.
		Dimension("outcome", outcome).
		Duration("duration", elapsed).
		Metric("variants", float64(len(result.ImageURLs)), metrics.UnitCount).
		Metric("files", float64(len(result.Assets)), metrics.UnitCount).
		Metric("written", float64(written), metrics.UnitBytes)
}

// maxTimeoutSeconds is the largest --timeout that fits in a time.Duration.
const maxTimeoutSeconds = math.MaxInt64 / int64(time.Second)

// timeoutFromSeconds converts --timeout into a duration.
func timeoutFromSeconds(seconds int) (time.Duration, error) {
	if seconds <= 0 || int64(seconds) > maxTimeoutSeconds {
		return 0, apperr.New(apperr.KindInvalidParameter,
			fmt.Sprintf("--timeout must be between 1 and %d seconds, got %d", maxTimeoutSeconds, seconds))
	}
	return time.Duration(seconds) * time.Second, nil
}

// setup loads configuration and initializes logging. --log-level wins over
// IMAGEGEN_LOG_LEVEL.
func setup() (config.Config, error) {
	cfg, err := config.Load(envFileFlag)
	if err != nil {
		return config.Config{}, apperr.Wrap(apperr.KindInvalidParameter, "invalid configuration", err)
	}
	level := cfg.LogLevel
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	logging.Init(level)
	return cfg, nil
}

// composeOptions maps flags onto prompt options. Weights are only set when
// their flag was given, so an explicit 0 is distinguishable from absent.
func composeOptions(cmd *cobra.Command, name string) prompt.Options {
	flags := cmd.Flags()

	text := promptFlag
	if text == "" && (name == prompt.Custom || name == prompt.Raw) && cli.IsInteractive() {
		label := "Describe the image"
		if name == prompt.Raw {
			label = "Full Midjourney prompt"
		}
		text = cli.PromptForText(cmd.InOrStdin(), cmd.ErrOrStderr(), label)
	}

	mode := modeFlag
	if t, ok := prompt.Lookup(name); ok && mode == "" && t.Requirement(prompt.ParamMode) {
		log.Info().Str("mode", defaultInterviewMode).Msg("No --mode given, using default")
		mode = defaultInterviewMode
	}

	opts := prompt.Options{
		Text:        text,
		Feature:     featureFlag,
		Mode:        mode,
		AspectRatio: aspectRatioFlag,
		References: prompt.References{
			ImageURL:     imagePromptFlag,
			StyleURL:     styleRefFlag,
			CharacterURL: charRefFlag,
		},
	}
	if flags.Changed("sw") {
		v := styleWeightFlag
		opts.References.StyleWeight = &v
	}
	if flags.Changed("cw") {
		v := charWeightFlag
		opts.References.CharacterWeight = &v
	}
	if flags.Changed("iw") {
		v := imageWeightFlag
		opts.References.ImageWeight = &v
	}
	return opts
}

// printResult writes one line per result to w: URLs in no-download mode,
// file paths otherwise. Assets written before a download failure are listed.
func printResult(w io.Writer, result job.Result, noDownload bool) {
	if noDownload {
		for _, u := range result.ImageURLs {
			fmt.Fprintln(w, u)
		}
		return
	}
	for _, a := range result.Assets {
		fmt.Fprintln(w, a.Path)
	}
}
