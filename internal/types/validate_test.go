package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestValidate_Property(t *testing.T) {
	p := Property{ID: "p1", OrganizationID: "org", Address: "1 Main St", RentDueDay: intPtr(31)}
	require.NoError(t, Validate(p))

	p.RentDueDay = intPtr(32)
	err := Validate(p)
	require.ErrorIs(t, err, ErrInvalidRecord)
	assert.Contains(t, err.Error(), "RentDueDay")

	p.RentDueDay = intPtr(0)
	assert.Error(t, Validate(p))
}

func TestValidate_PropertyTypeGlobalReserved(t *testing.T) {
	p := Property{ID: "p1", OrganizationID: "org", Address: "1 Main St", Type: ScopeGlobal}
	assert.ErrorIs(t, Validate(p), ErrInvalidRecord)
}

func TestProperty_CategoryDefault(t *testing.T) {
	assert.Equal(t, "residential", Property{}.Category())
	assert.Equal(t, "commercial", Property{Type: "commercial"}.Category())
}

func TestValidateTenant(t *testing.T) {
	prop := &Property{ID: "p1", OrganizationID: "org", Address: "1 Main St"}
	tenant := Tenant{ID: "t1", OrganizationID: "org", FullName: "Ada", Email: "ada@example.com", PropertyID: strPtr("p1"), Status: TenantActive}
	require.NoError(t, ValidateTenant(tenant, prop))

	other := &Property{ID: "p1", OrganizationID: "other", Address: "1 Main St"}
	assert.ErrorIs(t, ValidateTenant(tenant, other), ErrInvalidRecord)

	assert.ErrorIs(t, ValidateTenant(tenant, nil), ErrInvalidRecord)

	tenant.Status = "unknown"
	assert.ErrorIs(t, ValidateTenant(tenant, prop), ErrInvalidRecord)
}

func TestValidateTenant_Unassigned(t *testing.T) {
	tenant := Tenant{ID: "t1", OrganizationID: "org", FullName: "Ada", Status: TenantPast}
	assert.NoError(t, ValidateTenant(tenant, nil))
	assert.False(t, tenant.AssignedTo("p1"))
}

func TestSeverity_IsAtLeast(t *testing.T) {
	assert.True(t, SeverityWarning.IsAtLeast(SeverityInfo))
	assert.True(t, SeverityInfo.IsAtLeast(SeverityInfo))
	assert.False(t, SeverityInfo.IsAtLeast(SeverityWarning))
}
