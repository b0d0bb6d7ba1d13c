// Package validation validates configuration records.
//
// Struct tags go through go-playground/validator:
//
//	type Config struct {
//	    APIURL string `mapstructure:"api_url" validate:"required,url"`
//	}
//	err := validation.Validate(cfg)
//
// Rules that span several fields are collected programmatically:
//
//	v := validation.New()
//	v.Custom(cfg.Key == "" || cfg.File != "", "token.key", "requires token.file")
//	err := v.Err()
package validation
