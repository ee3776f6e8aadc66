package job

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/fpang/calm-imagegen/internal/apiframe"
	"github.com/fpang/calm-imagegen/internal/apperr"
	"github.com/fpang/calm-imagegen/internal/asset"
	"github.com/fpang/calm-imagegen/internal/auth"
	"github.com/rs/zerolog/log"
)

var errEmptyBody = errors.New("empty response body")

// Download fetches each URL in order and writes it to the output directory.
// All variants of one job share a timestamp. On failure the assets written so
// far are returned alongside the error and left on disk.
func (c *Client) Download(ctx context.Context, urls []string, prefix string) ([]asset.Asset, error) {
	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.KindDownloadFailed, "create output directory", err)
	}

	ts := c.clock.Now()
	prefix = asset.SanitizePrefix(prefix)
	assets := make([]asset.Asset, 0, len(urls))

	for i, u := range urls {
		variant := i + 1

		dl, err := c.gateway.Download(ctx, u)
		if err != nil {
			return assets, auth.Classify(err, apperr.KindDownloadFailed, fmt.Sprintf("download variant %d", variant))
		}
		if len(dl.Data) == 0 {
			return assets, apperr.Wrap(apperr.KindDownloadFailed, fmt.Sprintf("download variant %d", variant), errEmptyBody)
		}

		ext := asset.ExtFor(contentType(dl), u)
		name := asset.FileName(prefix, ts, variant, ext)
		path := filepath.Join(c.outputDir, name)

		if err := writeFile(path, dl.Data); err != nil {
			return assets, apperr.Wrap(apperr.KindDownloadFailed, fmt.Sprintf("write %s", name), err)
		}

		log.Info().
			Str("file", name).
			Int("bytes", len(dl.Data)).
			Msg("Downloaded variant")

		assets = append(assets, asset.Asset{
			Path:      path,
			Prefix:    prefix,
			Timestamp: ts,
			Variant:   variant,
			Ext:       ext,
			Size:      int64(len(dl.Data)),
		})
	}

	return assets, nil
}

// contentType prefers the sniffed type over the CDN header, which is often
// application/octet-stream.
func contentType(dl *apiframe.Download) string {
	if sniffed := http.DetectContentType(dl.Data); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	return dl.ContentType
}

// writeFile writes through a temp file in the same directory so a failed
// write never leaves a half-written file under the final name.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
