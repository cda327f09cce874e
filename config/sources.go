package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SourceSettings overrides one source. Nil fields keep the env value.
type SourceSettings struct {
	Enabled *bool  `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
}

// SourcesFile is the optional YAML file describing the sources.
//
//	pages: 2
//	sources:
//	  mercadolibre: {enabled: true}
//	  kavak: {enabled: true, base_url: https://www.kavak.com/api/ar/catalog/search}
//	  kavak-web: {enabled: false}
type SourcesFile struct {
	Pages   int                       `yaml:"pages"`
	Sources map[string]SourceSettings `yaml:"sources"`
}

var knownSources = map[string]bool{"mercadolibre": true, "kavak": true, "kavak-web": true}

// LoadSources reads and validates a sources file.
func LoadSources(path string) (*SourcesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read sources file: %w", err)
	}
	return ParseSources(data)
}

// ParseSources decodes a sources document. Unknown source names are rejected.
func ParseSources(data []byte) (*SourcesFile, error) {
	var sf SourcesFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("config: parse sources file: %w", err)
	}
	for name := range sf.Sources {
		if !knownSources[name] {
			return nil, fmt.Errorf("config: unknown source %q", name)
		}
	}
	if sf.Pages < 0 {
		return nil, fmt.Errorf("config: pages must not be negative, got %d", sf.Pages)
	}
	return &sf, nil
}

// Apply overlays the file onto cfg.
func (sf *SourcesFile) Apply(cfg *Config) {
	if sf.Pages > 0 {
		cfg.PagesToScrape = sf.Pages
	}
	apply := func(name string, enabled *bool, baseURL *string) {
		s, ok := sf.Sources[name]
		if !ok {
			return
		}
		if s.Enabled != nil {
			*enabled = *s.Enabled
		}
		if s.BaseURL != "" {
			*baseURL = s.BaseURL
		}
	}
	apply("mercadolibre", &cfg.IncludeML, &cfg.MercadoLibreURL)
	apply("kavak", &cfg.IncludeKavak, &cfg.KavakAPIURL)
	apply("kavak-web", &cfg.IncludeKavakWeb, &cfg.KavakWebURL)
}
