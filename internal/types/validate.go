package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRecord is returned (wrapped) for records that fail validation.
var ErrInvalidRecord = errors.New("invalid record")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags on any record in this package.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidRecord, strings.Join(msgs, "; "))
}

// ValidateTenant checks the tenant's own fields and, when it is assigned,
// that the property belongs to the same organization.
func ValidateTenant(t Tenant, property *Property) error {
	if err := Validate(t); err != nil {
		return err
	}
	if t.PropertyID == nil {
		return nil
	}
	if property == nil || property.ID != *t.PropertyID {
		return fmt.Errorf("%w: tenant %s references unknown property %s", ErrInvalidRecord, t.ID, *t.PropertyID)
	}
	if property.OrganizationID != t.OrganizationID {
		return fmt.Errorf("%w: tenant %s and property %s belong to different organizations", ErrInvalidRecord, t.ID, property.ID)
	}
	return nil
}
