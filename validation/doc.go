// Package validation checks configuration and request input.
//
// Struct tag validation uses go-playground/validator and reports fields by
// their config key, so an error reads "batch.concurrency: must be at least 1".
//
//	type BatchConfig struct {
//	    Concurrency int `mapstructure:"concurrency" validate:"min=1"`
//	}
//	err := validation.Validate(cfg)
//
// Programmatic validation collects errors for request parameters:
//
//	err := validation.New().
//	    UUID("id", c.Param("id")).
//	    Check(len(files) <= max, "files", "too many files").
//	    Err()
package validation
