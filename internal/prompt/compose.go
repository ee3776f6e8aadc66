// Package prompt builds Midjourney prompt strings in the Calm Confidence
// visual identity. Composition is purely local: it never touches the network,
// the clock or the environment, so identical inputs always produce identical
// prompts.
package prompt

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/fpang/calm-imagegen/internal/apperr"
)

// DefaultAspectRatio is used by custom and raw prompts without an override.
const DefaultAspectRatio = "1:1"

// Weight bounds accepted by the gateway.
const (
	MaxStyleWeight     = 1000
	MaxCharacterWeight = 100
	MaxImageWeight     = 2.0
)

// References are optional reference images that bias the generator.
type References struct {
	ImageURL    string
	ImageWeight *float64

	StyleURL    string
	StyleWeight *int

	CharacterURL    string
	CharacterWeight *int
}

// Empty reports whether no reference was supplied.
func (r References) Empty() bool {
	return r.ImageURL == "" && r.ImageWeight == nil &&
		r.StyleURL == "" && r.StyleWeight == nil &&
		r.CharacterURL == "" && r.CharacterWeight == nil
}

// Options are the caller-supplied inputs to Compose.
type Options struct {
	// Text is the concept for custom prompts and the full prompt for raw ones.
	Text        string
	Feature     string
	Mode        string
	AspectRatio string
	References  References
}

// Request is a fully composed generation request.
type Request struct {
	Template    string
	Prompt      string
	AspectRatio string
	References  References
}

var aspectRatioPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?):(\d+(?:\.\d+)?)$`)

// Compose produces the prompt and aspect ratio for a template name or one of
// the reserved names Custom and Raw.
func Compose(name string, opts Options) (Request, error) {
	name = strings.TrimSpace(name)

	var (
		body   string
		aspect string
		err    error
	)

	switch name {
	case Raw:
		if strings.TrimSpace(opts.Text) == "" {
			return Request{}, apperr.New(apperr.KindMissingRequiredParameter, "template 'raw' requires --prompt")
		}
		body = opts.Text
		aspect = DefaultAspectRatio
	case Custom:
		if strings.TrimSpace(opts.Text) == "" {
			return Request{}, apperr.New(apperr.KindMissingRequiredParameter, "template 'custom' requires --prompt")
		}
		body = applyArtDirection(opts.Text)
		aspect = DefaultAspectRatio
	default:
		body, aspect, err = fromTemplate(name, opts)
		if err != nil {
			return Request{}, err
		}
	}

	if opts.AspectRatio != "" {
		aspect = strings.TrimSpace(opts.AspectRatio)
	}
	if err := ValidateAspectRatio(aspect); err != nil {
		return Request{}, err
	}

	final, err := withReferences(body, opts.References)
	if err != nil {
		return Request{}, err
	}

	return Request{
		Template:    name,
		Prompt:      final,
		AspectRatio: aspect,
		References:  opts.References,
	}, nil
}

func fromTemplate(name string, opts Options) (string, string, error) {
	t, ok := catalog[name]
	if !ok {
		return "", "", apperr.New(apperr.KindInvalidTemplate,
			fmt.Sprintf("unknown template %q (available: %s)", name, strings.Join(Names(), ", ")))
	}

	feature := strings.TrimSpace(opts.Feature)
	mode := strings.TrimSpace(opts.Mode)

	if t.Requirement(ParamFeature) && feature == "" {
		return "", "", apperr.New(apperr.KindMissingRequiredParameter,
			fmt.Sprintf("template %q requires --%s", name, ParamFeature))
	}
	if t.Requirement(ParamMode) && mode == "" {
		return "", "", apperr.New(apperr.KindMissingRequiredParameter,
			fmt.Sprintf("template %q requires --%s", name, ParamMode))
	}

	text := t.Prompt
	if len(t.Variants) > 0 {
		variant, ok := t.Variants[mode]
		if !ok {
			return "", "", apperr.New(apperr.KindInvalidParameter,
				fmt.Sprintf("unknown mode %q for template %q (available: %s)", mode, name, strings.Join(t.Modes(), ", ")))
		}
		text = variant
	}

	if strings.Contains(text, FeaturePlaceholder) {
		text = strings.ReplaceAll(text, FeaturePlaceholder, feature)
	}

	return collapseWhitespace(text), t.AspectRatio, nil
}

// applyArtDirection wraps a custom concept in the shared style vocabulary.
// A concept that already sets --style keeps its own flags.
func applyArtDirection(concept string) string {
	concept = collapseWhitespace(concept)
	styled := StyleBase + ", " + concept
	if strings.Contains(strings.ToLower(concept), "--style") {
		return styled
	}
	return styled + " " + StyleSuffix
}

func withReferences(body string, refs References) (string, error) {
	if err := ValidateReferences(refs); err != nil {
		return "", err
	}

	var parts []string
	if refs.ImageURL != "" {
		parts = append(parts, refs.ImageURL)
	}
	parts = append(parts, body)

	if refs.ImageWeight != nil {
		parts = append(parts, "--iw", strconv.FormatFloat(*refs.ImageWeight, 'f', -1, 64))
	}
	if refs.StyleURL != "" {
		parts = append(parts, "--sref", refs.StyleURL)
	}
	if refs.StyleWeight != nil {
		parts = append(parts, "--sw", strconv.Itoa(*refs.StyleWeight))
	}
	if refs.CharacterURL != "" {
		parts = append(parts, "--cref", refs.CharacterURL)
	}
	if refs.CharacterWeight != nil {
		parts = append(parts, "--cw", strconv.Itoa(*refs.CharacterWeight))
	}

	return strings.Join(parts, " "), nil
}

// ValidateReferences checks reference URLs and weight ranges.
func ValidateReferences(refs References) error {
	for _, ref := range []struct{ flag, value string }{
		{"image", refs.ImageURL},
		{"sref", refs.StyleURL},
		{"cref", refs.CharacterURL},
	} {
		if ref.value == "" {
			continue
		}
		if err := validateURL(ref.value); err != nil {
			return apperr.Wrap(apperr.KindInvalidParameter, fmt.Sprintf("--%s must be an absolute http(s) URL", ref.flag), err)
		}
	}

	if w := refs.ImageWeight; w != nil {
		if refs.ImageURL == "" {
			return apperr.New(apperr.KindInvalidParameter, "--iw requires an image prompt URL")
		}
		if !(*w >= 0 && *w <= MaxImageWeight) {
			return apperr.New(apperr.KindInvalidParameter,
				fmt.Sprintf("image weight %s out of range [0, %s]", strconv.FormatFloat(*w, 'f', -1, 64), strconv.FormatFloat(MaxImageWeight, 'f', -1, 64)))
		}
	}
	if w := refs.StyleWeight; w != nil {
		if refs.StyleURL == "" {
			return apperr.New(apperr.KindInvalidParameter, "--sw requires a style reference URL")
		}
		if *w < 0 || *w > MaxStyleWeight {
			return apperr.New(apperr.KindInvalidParameter,
				fmt.Sprintf("style weight %d out of range [0, %d]", *w, MaxStyleWeight))
		}
	}
	if w := refs.CharacterWeight; w != nil {
		if refs.CharacterURL == "" {
			return apperr.New(apperr.KindInvalidParameter, "--cw requires a character reference URL")
		}
		if *w < 0 || *w > MaxCharacterWeight {
			return apperr.New(apperr.KindInvalidParameter,
				fmt.Sprintf("character weight %d out of range [0, %d]", *w, MaxCharacterWeight))
		}
	}

	return nil
}

// ValidateAspectRatio accepts W:H with positive, optionally decimal, sides.
func ValidateAspectRatio(ar string) error {
	m := aspectRatioPattern.FindStringSubmatch(ar)
	if m == nil {
		return apperr.New(apperr.KindInvalidParameter, fmt.Sprintf("invalid aspect ratio %q (expected W:H, e.g. 16:9)", ar))
	}
	for _, side := range m[1:] {
		v, err := strconv.ParseFloat(side, 64)
		if err != nil || v <= 0 {
			return apperr.New(apperr.KindInvalidParameter, fmt.Sprintf("invalid aspect ratio %q: sides must be positive", ar))
		}
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("unsupported URL %q", raw)
	}
	return nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
