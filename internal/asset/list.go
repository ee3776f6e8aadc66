package asset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

var imageExts = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"webp": true,
	"gif":  true,
}

// List scans dir (non-recursively) for files named by FileName and returns
// them newest first. A non-empty prefix keeps only assets with that prefix.
// The prefix is sanitised the same way FileName does. A missing directory
// yields an empty list.
func List(dir, prefix string) ([]Asset, error) {
	if strings.TrimSpace(prefix) != "" {
		prefix = SanitizePrefix(prefix)
	}

	log.Debug().
		Str("path", dir).
		Str("prefix", prefix).
		Msg("Scanning output directory for assets")

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var assets []Asset
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		p, ts, variant, ext, err := ParseFileName(entry.Name())
		if err != nil || !imageExts[ext] {
			continue
		}
		if prefix != "" && p != prefix {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("Error accessing file, skipping")
			continue
		}

		assets = append(assets, Asset{
			Path:      filepath.Join(dir, entry.Name()),
			Prefix:    p,
			Timestamp: ts,
			Variant:   variant,
			Ext:       ext,
			Size:      info.Size(),
		})
	}

	sort.Slice(assets, func(i, j int) bool {
		a, b := assets[i], assets[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		if a.Prefix != b.Prefix {
			return strings.Compare(a.Prefix, b.Prefix) < 0
		}
		return a.Variant < b.Variant
	})

	log.Debug().Int("count", len(assets)).Msg("Asset scan complete")
	return assets, nil
}
