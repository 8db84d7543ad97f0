package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
)

// FileName is the site configuration file expected at the site root.
const FileName = "sprokkel.toml"

// Config represents the site configuration read from sprokkel.toml.
type Config struct {
	BaseURL        string          `toml:"base-url"`
	BaseURLDevelop string          `toml:"base-url-develop"`
	Ignore         []string        `toml:"ignore"`
	KeepGoing      bool            `toml:"keep-going"`
	Links          LinksConfig     `toml:"links"`
	Highlight      HighlightConfig `toml:"highlight"`
}

// LinksConfig controls permalink construction.
type LinksConfig struct {
	// TrimIndexHTML drops a trailing "index.html" from generated URLs. A pointer keeps
	// an explicit false distinguishable from an absent key.
	TrimIndexHTML *bool `toml:"trim-index-html"`
}

// Trim reports whether "index.html" is trimmed from URLs.
func (l LinksConfig) Trim() bool {
	return l.TrimIndexHTML == nil || *l.TrimIndexHTML
}

// HighlightConfig selects the syntax highlighting style.
type HighlightConfig struct {
	Style string `toml:"style"`
	// CSSFile, when set, is the output path the style's stylesheet is written to.
	CSSFile string `toml:"css-file"`
}

// Load reads, expands, defaults and validates the configuration of the site at root.
// It is called at the start of every build so edits take effect in watch mode.
func Load(root string) (*Config, error) {
	if err := loadEnvFile(root); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to load .env file").
			Fatal().
			WithContext("path", root).
			Build()
	}

	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, foundationerrors.ConfigError("configuration file not found").
				WithContext("path", path).
				Build()
		}
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", path).
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		if classified, ok := foundationerrors.AsClassified(err); ok {
			return nil, classified.WithContext("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes configuration from TOML, expanding ${VAR} references from the environment.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to unmarshal config").
			Fatal().
			WithContext("detail", describeDecodeError(err)).
			Build()
	}

	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func describeDecodeError(err error) string {
	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		row, col := decodeErr.Position()
		return fmt.Sprintf("line %d column %d", row, col)
	}
	var strictErr *toml.StrictMissingError
	if errors.As(err, &strictErr) {
		return strictErr.String()
	}
	return err.Error()
}
