package config

import "strings"

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// URLDefaultApplier normalizes the base URLs.
type URLDefaultApplier struct{}

func (URLDefaultApplier) Domain() string { return "urls" }

func (URLDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.BaseURLDevelop = strings.TrimRight(strings.TrimSpace(cfg.BaseURLDevelop), "/")
	if cfg.BaseURLDevelop == "" {
		cfg.BaseURLDevelop = cfg.BaseURL
	}
	return nil
}

// HighlightDefaultApplier fills in the highlighting style.
type HighlightDefaultApplier struct{}

func (HighlightDefaultApplier) Domain() string { return "highlight" }

func (HighlightDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Highlight.Style == "" {
		cfg.Highlight.Style = DefaultHighlightStyle
	}
	return nil
}

// DefaultHighlightStyle is the chroma style used when none is configured.
const DefaultHighlightStyle = "github"

func applyDefaults(cfg *Config) error {
	appliers := []DefaultApplier{
		URLDefaultApplier{},
		HighlightDefaultApplier{},
	}
	for _, a := range appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}
