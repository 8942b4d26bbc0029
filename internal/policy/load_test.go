package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/nightwatch/internal/types"
)

const sampleYAML = `
policies:
  - id: lease-watch
    name: Lease watch
    scope: global
    metric: lease_end
    operator: "<"
    value: "90"
    recipient: manager
  - id: rent-day
    scope: commercial
    metric: rent_due
    operator: ">="
    value: "5"
    recipient: tenant
`

func TestDecode_YAML(t *testing.T) {
	raw, rules, err := Decode("policies.yaml", []byte(sampleYAML))
	require.NoError(t, err)
	require.Len(t, raw, 2)
	require.Len(t, rules, 2)
	assert.Equal(t, "lease-watch", rules[0].ID)
	assert.IsType(t, LeaseEnd{}, rules[0].Trigger)
	assert.IsType(t, RentDue{}, rules[1].Trigger)
}

func TestDecode_JSON(t *testing.T) {
	doc := `{"policies":[{"id":"x","scope":"global","metric":"rent_due","operator":"","value":"3","recipient":"manager"}]}`
	_, rules, err := Decode("p.json", []byte(doc))
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, 3, rules[0].Trigger.(RentDue).Day)
}

func TestDecode_SchemaRejectsUnknownMetric(t *testing.T) {
	doc := `
policies:
  - id: bad
    scope: global
    metric: inspection
    operator: ""
    value: ""
    recipient: manager
`
	_, _, err := Decode("bad.yaml", []byte(doc))
	require.ErrorIs(t, err, ErrInvalidPolicy)
	assert.Contains(t, err.Error(), "policies[0]")
}

func TestDecode_RangeCheckedAfterSchema(t *testing.T) {
	doc := `
policies:
  - id: day-40
    scope: global
    metric: rent_due
    operator: ""
    value: "40"
    recipient: manager
`
	_, _, err := Decode("range.yaml", []byte(doc))
	require.ErrorIs(t, err, ErrInvalidPolicy)
	assert.Contains(t, err.Error(), "day of month")
}

func TestCheckSchema(t *testing.T) {
	ok := types.Policy{ID: "a", Scope: "global", Metric: "lease_end", Recipient: "tenant"}
	assert.NoError(t, CheckSchema(ok))

	bad := ok
	bad.Recipient = "owner"
	assert.ErrorIs(t, CheckSchema(bad), ErrInvalidPolicy)

	bad = ok
	bad.Value = "ninety"
	assert.ErrorIs(t, CheckSchema(bad), ErrInvalidPolicy)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	raw, rules, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, raw, 2)
	assert.Len(t, rules, 2)

	_, _, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
