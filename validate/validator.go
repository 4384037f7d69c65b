// Package validate implements heuristic contact validation. It is
// syntax-only: a valid result means the value is well-formed, not that
// the mailbox or number exists.
package validate

import (
	"context"
	"net/mail"
	"strings"

	"github.com/fwojciec/leadcrawl"
)

// Ensure Validator implements leadcrawl.Validator at compile time.
var _ leadcrawl.Validator = (*Validator)(nil)

// Validator validates email and phone values syntactically.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks the value for the given contact kind.
func (v *Validator) Validate(_ context.Context, kind leadcrawl.ContactKind, value string) (leadcrawl.Validity, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return leadcrawl.ValidityInvalid, nil
	}

	switch kind {
	case leadcrawl.ContactEmail:
		return validateEmail(value), nil
	case leadcrawl.ContactPhone:
		return validatePhone(value), nil
	default:
		return "", leadcrawl.Errorf(leadcrawl.EINVALID, "unknown contact kind %q", kind)
	}
}

func validateEmail(value string) leadcrawl.Validity {
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return leadcrawl.ValidityInvalid
	}

	// ParseAddress accepts local-only addresses; require a dotted domain.
	at := strings.LastIndex(value, "@")
	domain := value[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return leadcrawl.ValidityInvalid
	}
	return leadcrawl.ValidityValid
}

// validatePhone accepts loosely formatted numbers with 7 to 15 digits,
// the ITU-T E.164 length range. Formatting characters are ignored.
func validatePhone(value string) leadcrawl.Validity {
	digits := 0
	for i, r := range value {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+':
			if i != 0 {
				return leadcrawl.ValidityInvalid
			}
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return leadcrawl.ValidityUnknown
		}
	}
	if digits < 7 || digits > 15 {
		return leadcrawl.ValidityInvalid
	}
	return leadcrawl.ValidityValid
}
