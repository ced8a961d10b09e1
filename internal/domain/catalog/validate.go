package catalog

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	maxSKULen         = 50
	maxNameLen        = 100
	maxDescriptionLen = 500
)

var skuPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Violation is a single field-level validation failure.
type Violation struct {
	Field   string
	Message string
}

// ValidationError aggregates every violation found in a payload. It is
// produced before any persistence call; a payload that fails validation has
// no side effects.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Field + ": " + v.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// CreateProductRequest is the raw create-product payload. Price is kept as
// the JSON literal so the decimal-places check sees what the client sent,
// not a float re-render. A nil Translations slice means the key was absent
// or null, which Validate rejects; an empty array is valid.
type CreateProductRequest struct {
	SKU          string               `json:"sku"`
	Price        json.Number          `json:"price"`
	Translations []TranslationRequest `json:"translations"`
}

// TranslationRequest is the raw translation payload, used both nested in a
// create-product request and standalone for the append operation.
type TranslationRequest struct {
	Language    string `json:"language"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate checks the create-product payload and returns a *ValidationError
// listing every violation, or nil.
func (r CreateProductRequest) Validate() error {
	var violations []Violation

	switch {
	case r.SKU == "":
		violations = append(violations, Violation{"sku", "SKU must not be empty."})
	case utf8.RuneCountInString(r.SKU) > maxSKULen:
		violations = append(violations, Violation{"sku", "SKU must be at most 50 characters long."})
	case !skuPattern.MatchString(r.SKU):
		violations = append(violations, Violation{"sku", "SKU can only contain letters, numbers, underscores, and hyphens."})
	}

	violations = append(violations, validatePrice(r.Price)...)

	if r.Translations == nil {
		violations = append(violations, Violation{"translations", "Translations must be an array."})
	}
	for i, t := range r.Translations {
		prefix := fmt.Sprintf("translations[%d].", i)
		violations = append(violations, t.violations(prefix)...)
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// Validate checks a standalone translation payload.
func (r TranslationRequest) Validate() error {
	if violations := r.violations(""); len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func (r TranslationRequest) violations(prefix string) []Violation {
	var violations []Violation

	if utf8.RuneCountInString(r.Language) != 2 {
		violations = append(violations, Violation{prefix + "language", "Language code must be exactly 2 characters long."})
	}

	switch {
	case r.Name == "":
		violations = append(violations, Violation{prefix + "name", "Product name must not be empty."})
	case utf8.RuneCountInString(r.Name) > maxNameLen:
		violations = append(violations, Violation{prefix + "name", "Product name must be at most 100 characters long."})
	}

	switch {
	case r.Description == "":
		violations = append(violations, Violation{prefix + "description", "Product description must not be empty."})
	case utf8.RuneCountInString(r.Description) > maxDescriptionLen:
		violations = append(violations, Violation{prefix + "description", "Product description must be at most 500 characters long."})
	}

	return violations
}

func validatePrice(raw json.Number) []Violation {
	price, err := decimal.NewFromString(raw.String())
	if err != nil {
		return []Violation{{"price", "Price must be a number with up to two decimal places."}}
	}

	var violations []Violation
	// Compare against the truncated value rather than the literal's exponent
	// so trailing zeros ("10.000") stay valid.
	if !price.Equal(price.Truncate(2)) {
		violations = append(violations, Violation{"price", "Price must be a number with up to two decimal places."})
	}
	if !price.IsPositive() {
		violations = append(violations, Violation{"price", "Price must be a positive number."})
	}
	return violations
}
