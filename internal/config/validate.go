package config

import (
	"fmt"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// ValidationResult separates errors that must block startup from ones that
// are recoverable by clamping.
type ValidationResult struct {
	Fatals   []error
	Warnings []error
}

func (r *ValidationResult) HasFatals() bool {
	return len(r.Fatals) > 0
}

// ValidateTiered checks the config. Out-of-range fps/quality are clamped
// with a warning; a malformed auth value or zero port is fatal.
func (c *Config) ValidateTiered() *ValidationResult {
	result := &ValidationResult{}

	if c.Port == 0 {
		result.Fatals = append(result.Fatals, fmt.Errorf("port must be 1-65535"))
	}

	if c.Auth != "" {
		if _, _, err := SplitAuth(c.Auth); err != nil {
			result.Fatals = append(result.Fatals, err)
		}
	}

	if c.Fps < 0 {
		result.Warnings = append(result.Warnings, fmt.Errorf("fps %d is negative, using the mode default", c.Fps))
		c.Fps = 0
	}

	if c.Quality < 1 {
		result.Warnings = append(result.Warnings, fmt.Errorf("quality %d is below minimum 1, clamping", c.Quality))
		c.Quality = 1
	} else if c.Quality > 100 {
		result.Warnings = append(result.Warnings, fmt.Errorf("quality %d exceeds maximum 100, clamping", c.Quality))
		c.Quality = 100
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		result.Warnings = append(result.Warnings, fmt.Errorf("log_format %q is not text or json, using text", c.LogFormat))
		c.LogFormat = "text"
	}

	return result
}

// SplitAuth parses a "user:pass" credential string. Both halves must be
// non-empty.
func SplitAuth(s string) (user, pass string, err error) {
	user, pass, ok := strings.Cut(s, ":")
	if !ok || user == "" || pass == "" {
		return "", "", fmt.Errorf("bad auth value %q, expected user:pass", s)
	}
	return user, pass, nil
}
