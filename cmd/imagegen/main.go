package main

import (
	"os"

	"github.com/fpang/calm-imagegen/internal/apperr"
	"github.com/fpang/calm-imagegen/internal/cli"
	"github.com/fpang/calm-imagegen/internal/config"
	"github.com/fpang/calm-imagegen/internal/logging"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// CLI flags
var (
	promptFlag       string
	aspectRatioFlag  string
	featureFlag      string
	modeFlag         string
	styleRefFlag     string
	styleWeightFlag  int
	charRefFlag      string
	charWeightFlag   int
	imagePromptFlag  string
	imageWeightFlag  float64
	noDownloadFlag   bool
	outputPrefixFlag string
	outputDirFlag    string
	timeoutFlag      int
	listFlag         bool
	envFileFlag      string
	logLevelFlag     string
)

// rootCmd is the main Cobra command for the imagegen CLI.
var rootCmd = &cobra.Command{
	Use:   "imagegen [template|custom|raw]",
	Short: "Generate Calm Confidence assets with Midjourney",
	Long: `imagegen composes a Midjourney prompt in the Calm Confidence visual identity,
submits it through the APIframe gateway, waits for the job to finish and
downloads every variant into the output directory as
{prefix}_{timestamp}_{variant}.{ext}.

The API key is read from APIFRAME_API_KEY in the environment or the .env file.

Examples:
  imagegen --list
  imagegen hero-banner
  imagegen feature-banner --feature "Smart Scheduling"
  imagegen interview-banner --mode bot-human
  imagegen custom -p "a lighthouse at dawn" --ar 3:2
  imagegen raw -p "minimal abstract waves --ar 16:9 --style raw"
  imagegen hero-banner --sref https://example.com/style.png --sw 250
  imagegen og-card --no-download`,
	Args:          maxArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runMain,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&promptFlag, "prompt", "p", "", "Concept for custom prompts, or the full prompt for raw")
	f.StringVar(&aspectRatioFlag, "ar", "", "Aspect ratio override (W:H)")
	f.StringVar(&aspectRatioFlag, "aspect-ratio", "", "Aspect ratio override (W:H)")
	f.StringVarP(&featureFlag, "feature", "f", "", "Feature name for feature-banner")
	f.StringVarP(&modeFlag, "mode", "m", "", "Interview mode for interview-banner (human-human, bot-human, bot-bot)")
	f.StringVar(&styleRefFlag, "sref", "", "Style reference image URL")
	f.IntVar(&styleWeightFlag, "sw", 0, "Style reference weight (0-1000)")
	f.StringVar(&charRefFlag, "cref", "", "Character reference image URL")
	f.IntVar(&charWeightFlag, "cw", 0, "Character reference weight (0-100)")
	f.StringVar(&imagePromptFlag, "image", "", "Image prompt URL placed before the text")
	f.StringVar(&imagePromptFlag, "image-prompt", "", "Image prompt URL placed before the text")
	f.Float64Var(&imageWeightFlag, "iw", 0, "Image prompt weight (0-2)")
	f.BoolVar(&noDownloadFlag, "no-download", false, "Print result URLs without downloading")
	f.StringVarP(&outputPrefixFlag, "output-prefix", "o", "", "File name prefix (default: template name)")
	f.StringVar(&outputDirFlag, "output-dir", "", "Output directory (default: $IMAGEGEN_OUTPUT_DIR or generated-assets)")
	f.IntVar(&timeoutFlag, "timeout", 0, "Seconds to wait for generation (default: $IMAGEGEN_TIMEOUT or 300)")
	f.BoolVarP(&listFlag, "list", "l", false, "List available templates and exit")

	_ = f.MarkHidden("aspect-ratio")
	_ = f.MarkHidden("image-prompt")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFileFlag, "env-file", config.DefaultEnvFile, "Path to a .env file")
	pf.StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error (default: $IMAGEGEN_LOG_LEVEL or info)")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperr.Wrap(apperr.KindInvalidParameter, "invalid flag", err)
	})
	rootCmd.AddCommand(assetsCmd)
}

// maxArgs is cobra.MaximumNArgs with the error classified as a usage error.
func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return apperr.Wrap(apperr.KindInvalidParameter, "too many arguments", err)
		}
		return nil
	}
}

func main() {
	logging.Init("info")
	err := rootCmd.Execute()
	os.Exit(cli.HandleError(err))
}
