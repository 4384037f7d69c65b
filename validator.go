package leadcrawl

import "context"

// Validity is the outcome of validating a contact value.
type Validity string

// Validation outcomes. Unknown means the validator could not decide; the
// value is kept but does not count as a strong identity.
const (
	ValidityValid   Validity = "valid"
	ValidityInvalid Validity = "invalid"
	ValidityUnknown Validity = "unknown"
)

// ContactKind identifies the kind of contact value being validated.
type ContactKind string

// Contact kinds.
const (
	ContactEmail ContactKind = "email"
	ContactPhone ContactKind = "phone"
)

// Validator checks email and phone values. A ValidityValid email is a
// strong-identity value for merge precedence and UID assignment.
type Validator interface {
	Validate(ctx context.Context, kind ContactKind, value string) (Validity, error)
}
