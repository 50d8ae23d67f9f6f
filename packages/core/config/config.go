package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings that can come from the environment or flags.
type Config struct {
	Timeout         int    `json:"timeout,omitempty"` // milliseconds, 0 disables
	FollowRedirects *bool  `json:"followRedirects,omitempty"`
	MaxRedirects    int    `json:"maxRedirects,omitempty"`
	Verify          string `json:"verify,omitempty"` // true, false or a CA bundle path
	Proxy           string `json:"proxy,omitempty"`
	Pretty          string `json:"pretty,omitempty"`
	TestMode        *bool  `json:"testMode,omitempty"`
	NoColor         *bool  `json:"noColor,omitempty"`
	Debug           *bool  `json:"debug,omitempty"`
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Environment variables read by FromEnv
const (
	EnvTestMode     = "HT_TEST_MODE"
	EnvTimeout      = "HT_TIMEOUT"
	EnvProxy        = "HT_PROXY"
	EnvMaxRedirects = "HT_MAX_REDIRECTS"
	EnvPretty       = "HT_PRETTY"
	EnvVerify       = "HT_VERIFY"
	EnvDebug        = "HT_DEBUG"
	EnvNoColor      = "NO_COLOR"
)

// boolPtr returns a pointer to a bool value
func boolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to false
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, false)
}

// GetTestMode returns the test mode setting, defaulting to false
func (c *Config) GetTestMode() bool {
	return getBool(c.TestMode, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetDebug returns the debug setting, defaulting to false
func (c *Config) GetDebug() bool {
	return getBool(c.Debug, false)
}

// GetVerify splits the verify setting into a toggle and an optional CA
// bundle path.
func (c *Config) GetVerify() (bool, string) {
	return ParseVerify(c.Verify)
}

// TimeoutDuration converts the millisecond timeout.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// ParseVerify reads a --verify value. Anything that is not a boolean word
// names a CA bundle and keeps verification on.
func ParseVerify(s string) (bool, string) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "true", "yes", "1", "on":
		return true, ""
	case "false", "no", "0", "off":
		return false, ""
	}
	return true, s
}

// ParseTimeout accepts a Go duration ("1m30s") or a number of seconds ("2.5").
func ParseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			return 0, fmt.Errorf("invalid timeout %q: negative", s)
		}
		return d, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("invalid timeout %q", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}

// FromEnv builds a Config from environment variables. Unset variables
// leave their fields zero so the result can be merged over defaults.
func FromEnv(lookup LookupFunc) (*Config, error) {
	c := &Config{}

	if v, ok := lookup(EnvTestMode); ok {
		c.TestMode = boolPtr(parseFlag(v))
	}
	if v, ok := lookup(EnvNoColor); ok && v != "" {
		c.NoColor = boolPtr(true)
	}
	if v, ok := lookup(EnvDebug); ok {
		c.Debug = boolPtr(parseFlag(v))
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := ParseTimeout(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = int(d.Milliseconds())
	}
	if v, ok := lookup(EnvMaxRedirects); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%s: invalid number %q", EnvMaxRedirects, v)
		}
		c.MaxRedirects = n
	}
	if v, ok := lookup(EnvProxy); ok {
		c.Proxy = v
	}
	if v, ok := lookup(EnvPretty); ok {
		c.Pretty = v
	}
	if v, ok := lookup(EnvVerify); ok {
		c.Verify = v
	}

	return c, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Verify != "" {
		result.Verify = other.Verify
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.Pretty != "" {
		result.Pretty = other.Pretty
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.TestMode != nil {
		result.TestMode = other.TestMode
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}
	if other.Debug != nil {
		result.Debug = other.Debug
	}

	return &result
}
