package config

import (
	"net/url"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
)

// ValidateConfig validates a defaulted configuration.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateURLs(); err != nil {
		return err
	}
	if err := cv.validateIgnore(); err != nil {
		return err
	}
	return cv.validateHighlight()
}

func (cv *configurationValidator) validateURLs() error {
	if cv.config.BaseURL == "" {
		return foundationerrors.ConfigError("base-url is required").Build()
	}
	for key, raw := range map[string]string{
		"base-url":         cv.config.BaseURL,
		"base-url-develop": cv.config.BaseURLDevelop,
	} {
		if _, err := url.Parse(raw); err != nil {
			return foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "invalid URL").
				Fatal().
				WithContext("key", key).
				WithContext("value", raw).
				Build()
		}
	}
	return nil
}

func (cv *configurationValidator) validateIgnore() error {
	for _, pattern := range cv.config.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return foundationerrors.ConfigError("invalid ignore pattern").
				WithContext("pattern", pattern).
				Build()
		}
	}
	return nil
}

func (cv *configurationValidator) validateHighlight() error {
	file := cv.config.Highlight.CSSFile
	if file == "" {
		return nil
	}
	clean := path.Clean(file)
	if path.IsAbs(file) || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return foundationerrors.ConfigError("highlight css-file must be a relative path inside the output directory").
			WithContext("value", file).
			Build()
	}
	cv.config.Highlight.CSSFile = clean
	return nil
}
