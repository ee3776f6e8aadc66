// Package asset names and lists downloaded images. The output directory is
// the only record of past generations, so the file name itself carries the
// template or prefix, the unix timestamp and the 1-based variant index:
//
//	{prefix}_{timestamp}_{variant}.{ext}
package asset

import (
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultExt is used when neither the response nor the URL reveal a format.
const DefaultExt = "png"

// DefaultPrefix is used when no template or prefix is known.
const DefaultPrefix = "generated"

// Asset is a downloaded result image.
type Asset struct {
	Path      string
	Prefix    string
	Timestamp time.Time
	Variant   int
	Ext       string
	Size      int64
}

// FileName builds the deterministic file name for one variant.
func FileName(prefix string, ts time.Time, variant int, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		ext = DefaultExt
	}
	return fmt.Sprintf("%s_%d_%d.%s", SanitizePrefix(prefix), ts.Unix(), variant, ext)
}

// ParseFileName splits a file name produced by FileName. The prefix may itself
// contain underscores; the timestamp and variant are taken from the right.
func ParseFileName(name string) (prefix string, ts time.Time, variant int, ext string, err error) {
	base := filepath.Base(name)
	ext = strings.TrimPrefix(filepath.Ext(base), ".")
	if ext == "" {
		return "", time.Time{}, 0, "", fmt.Errorf("asset name %q has no extension", name)
	}
	stem := strings.TrimSuffix(base, "."+ext)

	variantIdx := strings.LastIndex(stem, "_")
	if variantIdx <= 0 {
		return "", time.Time{}, 0, "", fmt.Errorf("asset name %q is missing the variant index", name)
	}
	tsIdx := strings.LastIndex(stem[:variantIdx], "_")
	if tsIdx <= 0 {
		return "", time.Time{}, 0, "", fmt.Errorf("asset name %q is missing the timestamp", name)
	}

	variant, err = strconv.Atoi(stem[variantIdx+1:])
	if err != nil || variant < 1 {
		return "", time.Time{}, 0, "", fmt.Errorf("asset name %q has invalid variant %q", name, stem[variantIdx+1:])
	}
	unix, err := strconv.ParseInt(stem[tsIdx+1:variantIdx], 10, 64)
	if err != nil || unix < 0 {
		return "", time.Time{}, 0, "", fmt.Errorf("asset name %q has invalid timestamp %q", name, stem[tsIdx+1:variantIdx])
	}

	return stem[:tsIdx], time.Unix(unix, 0), variant, strings.ToLower(ext), nil
}

// SanitizePrefix makes a prefix safe to use as a file name component.
func SanitizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return DefaultPrefix
	}
	prefix = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ', '\t', '\n', '\r':
			return '-'
		}
		return r
	}, prefix)
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return DefaultPrefix
	}
	return prefix
}

// ExtFor picks a file extension from a content type, falling back to the
// extension in the URL path and finally DefaultExt.
func ExtFor(contentType, rawURL string) string {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch mediaType {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	}

	u := rawURL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	switch ext := strings.ToLower(strings.TrimPrefix(path.Ext(u), ".")); ext {
	case "png", "webp", "gif":
		return ext
	case "jpg", "jpeg":
		return "jpg"
	}

	return DefaultExt
}
