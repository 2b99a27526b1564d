package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrUnknownSource   = errors.New("unknown source")
	ErrSourceDisabled  = errors.New("source disabled")
	ErrUnsupportedType = errors.New("unsupported content type")
)

type ContentType string

const (
	Novel  ContentType = "novel"
	Manga  ContentType = "manga"
	Manhwa ContentType = "manhwa"
	Manhua ContentType = "manhua"
)

// IsImageBased reports whether chapters of this type are image trees.
func (t ContentType) IsImageBased() bool {
	return t == Manga || t == Manhwa || t == Manhua
}

// Selector is an ordered list of CSS selectors. In JSON it may be written as
// a single string or as a list.
type Selector []string

func (s *Selector) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = nil
		return nil
	}

	if b[0] == '"' {
		var one string
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		*s = compact([]string{one})
		return nil
	}

	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("selector must be a string or a list of strings: %w", err)
	}
	*s = compact(many)
	return nil
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}

	return out
}

type Source struct {
	Name           string              `json:"name"`
	BaseURL        string              `json:"base_url"`
	Enabled        *bool               `json:"enabled,omitempty"`
	ContentTypes   []ContentType       `json:"content_types"`
	SearchEndpoint string              `json:"search_endpoint"`
	Strategy       string              `json:"strategy,omitempty"`
	Language       string              `json:"language,omitempty"`
	Selectors      map[string]Selector `json:"selectors"`
}

// IsEnabled treats a missing "enabled" key as true.
func (s Source) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

func (s Source) Supports(t ContentType) bool {
	for _, c := range s.ContentTypes {
		if strings.EqualFold(string(c), string(t)) {
			return true
		}
	}

	return false
}

// SupportsImages reports whether any configured content type is image based.
func (s Source) SupportsImages() bool {
	for _, c := range s.ContentTypes {
		if ContentType(strings.ToLower(string(c))).IsImageBased() {
			return true
		}
	}

	return false
}

// Selector returns the configured selectors for key, or def when none are set.
func (s Source) Selector(key string, def ...string) []string {
	if v := s.Selectors[key]; len(v) > 0 {
		return v
	}

	return def
}

// StrategyKey names the strategy used for this source.
func (s Source) StrategyKey() string {
	if s.Strategy != "" {
		return strings.ToLower(s.Strategy)
	}

	return strings.ToLower(strings.ReplaceAll(s.Name, " ", ""))
}

type Sources struct {
	Sources []Source `json:"sources"`
}

func LoadSources(path string) (*Sources, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources %s: %w", path, err)
	}

	return ParseSources(b)
}

func ParseSources(b []byte) (*Sources, error) {
	var s Sources
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("failed to parse sources: %w", err)
	}

	for i, src := range s.Sources {
		if strings.TrimSpace(src.Name) == "" {
			return nil, fmt.Errorf("source #%d has no name", i+1)
		}
		s.Sources[i].BaseURL = strings.TrimRight(src.BaseURL, "/")
	}

	return &s, nil
}

func (s *Sources) Names() []string {
	out := make([]string, 0, len(s.Sources))
	for _, src := range s.Sources {
		out = append(out, src.Name)
	}

	return out
}

// Find looks a source up by exact name.
func (s *Sources) Find(name string) (Source, error) {
	for _, src := range s.Sources {
		if src.Name != name {
			continue
		}
		if !src.IsEnabled() {
			return Source{}, fmt.Errorf("%w: %s", ErrSourceDisabled, name)
		}
		return src, nil
	}

	return Source{}, fmt.Errorf("%w: %s. Available sources: %s",
		ErrUnknownSource, name, strings.Join(s.Names(), ", "))
}
