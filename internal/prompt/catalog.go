package prompt

import (
	"sort"
	"strings"
)

// Param names a template parameter that must be supplied by the caller.
type Param string

const (
	ParamFeature Param = "feature"
	ParamMode    Param = "mode"
)

// Template is a named, pre-configured combination of aspect ratio and fixed
// prompt fragments. Templates with Variants pick their prompt by mode.
type Template struct {
	Name        string
	Description string
	AspectRatio string
	Prompt      string
	Variants    map[string]string
	Requires    []Param
}

// Requirement reports whether the template requires p.
func (t Template) Requirement(p Param) bool {
	for _, r := range t.Requires {
		if r == p {
			return true
		}
	}
	return false
}

// Modes returns the variant names in sorted order.
func (t Template) Modes() []string {
	modes := make([]string, 0, len(t.Variants))
	for m := range t.Variants {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	return modes
}

func (t Template) clone() Template {
	c := t
	if t.Variants != nil {
		c.Variants = make(map[string]string, len(t.Variants))
		for k, v := range t.Variants {
			c.Variants[k] = v
		}
	}
	c.Requires = append([]Param(nil), t.Requires...)
	return c
}

// Reserved template names.
const (
	Custom = "custom"
	Raw    = "raw"
)

// FeaturePlaceholder is replaced with the feature name in templates that require one.
const FeaturePlaceholder = "[FEATURE]"

// StyleBase is the Calm Confidence vocabulary shared by every styled prompt.
const StyleBase = "soft golden ambient light, subtle paper texture, " +
	"muted warm earth tones, artisanal crafted quality, " +
	"atmospheric depth, layered elements"

// StyleSuffix is the negative/style flag block appended to styled prompts.
const StyleSuffix = "--style raw --no people faces text"

var catalog = buildCatalog()

func buildCatalog() map[string]Template {
	templates := []Template{
		{
			Name:        "hero-banner",
			Description: "Landing page hero banner (2560x1440)",
			AspectRatio: "16:9",
			Prompt: `atmospheric developer sanctuary, ` + StyleBase + `,
depth of field, code editor glow in distance,
feeling of quiet preparation before important moment,
CENTER-WEIGHTED composition for responsive cropping,
cinematic ` + StyleSuffix,
		},
		{
			Name:        "og-card",
			Description: "Social/OG card for sharing (1200x630)",
			AspectRatio: "1.91:1",
			Prompt: `abstract developer workspace essence, warm amber glow,
layered paper textures, soft geometric code symbols,
calm focused atmosphere, premium handcrafted feel,
TEXT-SAFE MARGINS (keep edges clear for platform overlays),
golden hour lighting --style raw`,
		},
		{
			Name:        "twitter-card",
			Description: "Twitter/X card (1200x600)",
			AspectRatio: "2:1",
			Prompt: `abstract developer workspace essence, warm amber glow,
layered paper textures, soft geometric code symbols,
calm focused atmosphere, premium handcrafted feel,
TEXT-SAFE MARGINS, golden hour lighting --style raw`,
		},
		{
			Name:        "icon-sheet",
			Description: "Developer icon concept sheet (1024x1024)",
			AspectRatio: "1:1",
			Prompt: `minimal developer icon set, monoline style with organic curves,
subtle hand-drawn imperfection, warm golden accent color,
dark background, code brackets and flow symbols,
consistent stroke weight, soft rounded terminals,
HIGH CONTRAST for small size legibility,
artisanal quality --style raw --no 3d realistic gradient`,
		},
		{
			Name:        "feature-banner",
			Description: "Feature section banner (1920x640)",
			AspectRatio: "3:1",
			Prompt: `abstract representation of ` + FeaturePlaceholder + `, atmospheric depth,
soft focus layers, warm amber and deep charcoal palette,
subtle noise texture overlay, feeling of calm confidence,
HORIZONTAL composition optimized for wide banner,
developer-focused visual metaphor --style raw`,
			Requires: []Param{ParamFeature},
		},
		{
			Name:        "mobile-hero",
			Description: "Mobile hero vertical (750x1334)",
			AspectRatio: "9:16",
			Prompt: `atmospheric developer moment, vertical composition,
soft golden light from above, subtle paper grain texture,
CENTERED focal point for safe cropping,
calm preparation feeling, artisanal warmth,
muted earth tones --style raw --no text`,
		},
		{
			Name:        "interview-banner",
			Description: "Interview mode specific banner",
			AspectRatio: "16:9",
			Variants: map[string]string{
				"human-human": `two abstract warm glowing forms in conversation,
soft golden ambient light, collaborative atmosphere,
subtle paper texture, depth and warmth,
feeling of mutual respect and preparation,
muted earth tones ` + StyleSuffix,
				"bot-human": `abstract warm glow meeting geometric form,
soft amber light bridging organic and structured,
subtle texture, atmospheric depth,
feeling of supportive AI presence,
human warmth despite technology --style raw --no faces robots`,
				"bot-bot": `two geometric forms in harmonic dialogue,
soft golden light, structured but warm,
subtle paper texture, layered depth,
feeling of precise orchestration,
technical elegance --style raw --no robots faces`,
			},
			Requires: []Param{ParamMode},
		},
		{
			Name:        "card-background",
			Description: "Card/tile background (800x600)",
			AspectRatio: "4:3",
			Prompt: `abstract atmospheric background, ` + StyleBase + `,
soft focus, subtle geometric patterns,
warm charcoal base with amber accents,
premium texture overlay --style raw --no text objects`,
		},
	}

	m := make(map[string]Template, len(templates))
	for _, t := range templates {
		m[t.Name] = t
	}
	return m
}

// Lookup returns a copy of the named template.
func Lookup(name string) (Template, bool) {
	t, ok := catalog[strings.TrimSpace(name)]
	if !ok {
		return Template{}, false
	}
	return t.clone(), true
}

// Templates returns copies of all templates sorted by name.
func Templates() []Template {
	out := make([]Template, 0, len(catalog))
	for _, t := range catalog {
		out = append(out, t.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the template names in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
