package main

import (
	"fmt"

	"github.com/fpang/calm-imagegen/internal/apperr"
	"github.com/fpang/calm-imagegen/internal/asset"
	"github.com/fpang/calm-imagegen/internal/cli"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var assetsOutputDirFlag string

var assetsCmd = &cobra.Command{
	Use:   "assets [prefix]",
	Short: "List downloaded assets, newest first",
	Long: `List the images in the output directory whose names follow
{prefix}_{timestamp}_{variant}.{ext}. Pass a prefix to filter.

Examples:
  imagegen assets
  imagegen assets hero-banner
  imagegen assets --output-dir ./public/images`,
	Args: maxArgs(1),
	RunE: runAssets,
}

func init() {
	assetsCmd.Flags().StringVar(&assetsOutputDirFlag, "output-dir", "", "Output directory (default: $IMAGEGEN_OUTPUT_DIR or generated-assets)")
}

func runAssets(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	dir := cfg.OutputDir
	if assetsOutputDirFlag != "" {
		dir = assetsOutputDirFlag
	}

	var prefix string
	if len(args) == 1 {
		prefix = args[0]
	}

	assets, err := asset.List(dir, prefix)
	if err != nil {
		return apperr.Wrap(apperr.KindInvalidParameter, fmt.Sprintf("failed to list %s", dir), err)
	}
	if len(assets) == 0 {
		log.Info().Str("dir", dir).Str("prefix", prefix).Msg("No assets found")
		return nil
	}

	cli.RenderAssets(cmd.OutOrStdout(), assets)
	return nil
}
