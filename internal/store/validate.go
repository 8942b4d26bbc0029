package store

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/matthewbaird/nightwatch/internal/policy"
	"github.com/matthewbaird/nightwatch/internal/types"
)

func checkProperty(p types.Property) error {
	return types.Validate(p)
}

// preparePolicy assigns an id and rejects policies that would not parse.
func preparePolicy(p types.Policy) (types.Policy, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, err := policy.Parse(p); err != nil {
		return types.Policy{}, fmt.Errorf("saving policy: %w", err)
	}
	return p, nil
}
