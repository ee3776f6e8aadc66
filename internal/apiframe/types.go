package apiframe

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ImagineRequest is the /imagine payload.
type ImagineRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
}

// ImagineResponse is the /imagine reply.
type ImagineResponse struct {
	TaskID string `json:"task_id"`
	Errors []any  `json:"errors,omitempty"`
}

// Reason joins the gateway's error entries into one line. Entries are
// usually {"msg": "..."} objects; anything else is rendered as JSON.
func (r ImagineResponse) Reason() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		switch v := e.(type) {
		case string:
			parts = append(parts, v)
			continue
		case map[string]any:
			if msg, ok := v["msg"].(string); ok && msg != "" {
				parts = append(parts, msg)
				continue
			}
			if msg, ok := v["message"].(string); ok && msg != "" {
				parts = append(parts, msg)
				continue
			}
		}
		if b, err := json.Marshal(e); err == nil {
			parts = append(parts, string(b))
		}
	}
	return strings.Join(parts, "; ")
}

// FetchRequest is the /fetch payload.
type FetchRequest struct {
	TaskID string `json:"task_id"`
}

// FetchResponse is the /fetch reply. Fields not relevant to imagine tasks are omitted.
type FetchResponse struct {
	TaskID           string   `json:"task_id"`
	TaskType         string   `json:"task_type,omitempty"`
	Status           string   `json:"status"`
	Percentage       Percent  `json:"percentage"`
	ImageURLs        []string `json:"image_urls,omitempty"`
	OriginalImageURL string   `json:"original_image_url,omitempty"`
	Message          string   `json:"message,omitempty"`
	Error            string   `json:"error,omitempty"`
}

// ResultURLs returns the variant URLs, falling back to the grid image.
func (r FetchResponse) ResultURLs() []string {
	urls := make([]string, 0, len(r.ImageURLs))
	for _, u := range r.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 && strings.TrimSpace(r.OriginalImageURL) != "" {
		urls = append(urls, strings.TrimSpace(r.OriginalImageURL))
	}
	return urls
}

// Reason returns the most specific failure text the gateway provided.
func (r FetchResponse) Reason() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Error
}

// Percent is a progress value the gateway sends either as a number or a string.
type Percent int

// UnmarshalJSON accepts 42, "42", "42%" and null.
func (p *Percent) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*p = 0
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if s == "" {
			*p = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*p = Percent(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = Percent(v)
	return nil
}

// Download is a fetched result image.
type Download struct {
	Data        []byte
	ContentType string
}
