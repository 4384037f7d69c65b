package mock

import (
	"context"

	"github.com/fwojciec/leadcrawl"
)

var _ leadcrawl.Validator = (*Validator)(nil)

// Validator is a mock implementation of leadcrawl.Validator.
type Validator struct {
	ValidateFn func(ctx context.Context, kind leadcrawl.ContactKind, value string) (leadcrawl.Validity, error)
}

func (v *Validator) Validate(ctx context.Context, kind leadcrawl.ContactKind, value string) (leadcrawl.Validity, error) {
	return v.ValidateFn(ctx, kind, value)
}
