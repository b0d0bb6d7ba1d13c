// Package config loads the cloudreq configuration.
//
// Values come from a config.yml, a .env file, environment variables and
// command-line flags, in increasing order of precedence. Environment
// variables map onto nested keys by splitting on underscores, so
// TOKEN_REFRESH_INTERVAL sets token.refresh_interval.
//
//	cfg, settings, err := config.Load("cloudreq")
//
// The returned Settings answers key lookups (such as "api_url") for the
// request client.
package config
