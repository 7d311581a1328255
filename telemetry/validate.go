package telemetry

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateSample rejects malformed samples at the boundary: out-of-range
// coordinates or heading, negative speed, missing vehicle ID or timestamp.
// Everything past this check may assume well-formed input.
func ValidateSample(s Sample) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid telemetry sample: %w", err)
	}
	return nil
}
