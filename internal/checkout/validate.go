package checkout

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError indicates a malformed or missing checkout field, caught
// before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var (
	emailRe  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	digitsRe = regexp.MustCompile(`^[0-9]+$`)
	expiryRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
)

// Validate checks that all required contact, address, and payment fields are
// present and syntactically plausible.
func Validate(d Details) error {
	required := []struct {
		field string
		value string
	}{
		{"email", d.Email},
		{"first_name", d.FirstName},
		{"last_name", d.LastName},
		{"address", d.Address},
		{"city", d.City},
		{"postal_code", d.PostalCode},
		{"phone", d.Phone},
		{"payment_method", d.Payment.Method},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Reason: "is required"}
		}
	}

	if !emailRe.MatchString(d.Email) {
		return &ValidationError{Field: "email", Reason: "is not a valid email address"}
	}

	if d.Payment.Method == MethodCard {
		return validateCard(d.Payment)
	}
	return nil
}

func validateCard(p Payment) error {
	number := strings.ReplaceAll(p.CardNumber, " ", "")
	if number == "" {
		return &ValidationError{Field: "card_number", Reason: "is required"}
	}
	if !digitsRe.MatchString(number) || len(number) < 13 || len(number) > 19 {
		return &ValidationError{Field: "card_number", Reason: "must be 13 to 19 digits"}
	}

	if p.Expiry == "" {
		return &ValidationError{Field: "expiry", Reason: "is required"}
	}
	if !expiryRe.MatchString(p.Expiry) {
		return &ValidationError{Field: "expiry", Reason: "must be in MM/YY format"}
	}

	if p.CVV == "" {
		return &ValidationError{Field: "cvv", Reason: "is required"}
	}
	if !digitsRe.MatchString(p.CVV) || len(p.CVV) < 3 || len(p.CVV) > 4 {
		return &ValidationError{Field: "cvv", Reason: "must be 3 or 4 digits"}
	}
	return nil
}
