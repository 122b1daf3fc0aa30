package validation

import (
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// register struct-level validation for ProductQuery: the identifier may
	// arrive in either of two parameters, so the "at least one" rule cannot
	// be expressed with per-field tags.
	v.RegisterStructValidation(productQueryStructValidation, ProductQuery{})

	return v
}

// productQueryStructValidation verifies at least one identifier parameter carries a value.
func productQueryStructValidation(sl validatorv10.StructLevel) {
	q := sl.Current().Interface().(ProductQuery)

	if strings.TrimSpace(q.SKU) == "" && strings.TrimSpace(q.ID) == "" {
		sl.ReportError(q.SKU, "sku", "SKU", "identifier_required", "")
	}
}
