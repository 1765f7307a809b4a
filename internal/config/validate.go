package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/adamancini/sidecar/internal/update"
)

// repoPartPattern matches a GitHub owner or repository name.
var repoPartPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for required fields and valid values.
// All problems are reported together.
func Validate(c *Config) error {
	var errors []string

	for _, err := range validateRepo(c.Repo) {
		errors = append(errors, err.Error())
	}

	if err := validateAPIURL(c.APIURL); err != nil {
		errors = append(errors, err.Error())
	}

	if err := validateFilename("executable", c.Executable); err != nil {
		errors = append(errors, err.Error())
	}

	if err := validateFilename("manifest", c.Manifest); err != nil {
		errors = append(errors, err.Error())
	}

	// Validate compare mode using the type's Validate method
	if err := c.Compare.Validate(); err != nil {
		errors = append(errors, ValidationError{Field: "compare", Message: err.Error()}.Error())
	}

	if err := validateTimeout(c.Timeout); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func validateRepo(r Repo) []error {
	fields := []struct{ name, value string }{
		{"repo.owner", r.Owner},
		{"repo.name", r.Name},
	}

	var errs []error
	for _, f := range fields {
		if f.value == "" {
			errs = append(errs, ValidationError{Field: f.name, Message: "is required"})
			continue
		}
		if !repoPartPattern.MatchString(f.value) {
			errs = append(errs, ValidationError{
				Field:   f.name,
				Message: fmt.Sprintf("invalid value '%s'", f.value),
			})
		}
	}
	return errs
}

func validateAPIURL(raw string) error {
	if raw == "" {
		return ValidationError{Field: "api_url", Message: "is required"}
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ValidationError{
			Field:   "api_url",
			Message: fmt.Sprintf("must be an absolute http(s) URL, got '%s'", raw),
		}
	}
	return nil
}

func validateFilename(field, name string) error {
	// The executable's platform policy performs the same check
	if err := (update.Policy{ExecutableName: name}).Validate(); err != nil {
		return ValidationError{Field: field, Message: err.Error()}
	}
	return nil
}

func validateTimeout(raw string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return ValidationError{Field: "timeout", Message: fmt.Sprintf("invalid duration '%s'", raw)}
	}
	if d < 0 {
		return ValidationError{Field: "timeout", Message: "must not be negative"}
	}
	return nil
}
