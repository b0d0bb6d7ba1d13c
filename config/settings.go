package config

import (
	"github.com/spf13/viper"
)

// Settings exposes loaded configuration values by key.
type Settings struct {
	v *viper.Viper
}

// Get returns the string value for key, or "" when unset.
func (s *Settings) Get(key string) string {
	if s == nil || s.v == nil {
		return ""
	}
	return s.v.GetString(key)
}

// IsSet reports whether key has a value from any source.
func (s *Settings) IsSet(key string) bool {
	return s != nil && s.v != nil && s.v.IsSet(key)
}

// SetDefault registers a fallback used when no source sets key.
func (s *Settings) SetDefault(key string, value any) {
	s.v.SetDefault(key, value)
}

// StaticSettings is a fixed key/value settings source.
type StaticSettings map[string]string

// Get returns the value for key.
func (s StaticSettings) Get(key string) string {
	return s[key]
}
