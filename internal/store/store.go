// Package store is the record store Night Watch reads properties, tenants
// and policies from. Writes exist for the API and for seeding; the engine
// itself only reads.
package store

import (
	"context"
	"errors"

	"github.com/matthewbaird/nightwatch/internal/types"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoOrganization is returned when an actor has no organization.
	ErrNoOrganization = errors.New("no organization found for actor")
)

// Store reads and writes the records of every organization.
type Store interface {
	// OrganizationFor resolves the organization an actor belongs to.
	OrganizationFor(ctx context.Context, actor string) (string, error)
	// Organizations lists every organization, ordered by id.
	Organizations(ctx context.Context) ([]types.Organization, error)

	// Properties lists an organization's properties, ordered by id.
	Properties(ctx context.Context, organizationID string) ([]types.Property, error)
	// Tenants lists an organization's tenants, ordered by id.
	Tenants(ctx context.Context, organizationID string) ([]types.Tenant, error)
	// Policies lists policies in authoring order. An empty organizationID
	// lists every policy.
	Policies(ctx context.Context, organizationID string) ([]types.Policy, error)

	SaveOrganization(ctx context.Context, o types.Organization) error
	SaveMember(ctx context.Context, m types.Member) error
	SaveProperty(ctx context.Context, p types.Property) error
	SaveTenant(ctx context.Context, t types.Tenant) error
	// SavePolicy validates and upserts a policy. An empty ID is assigned. An ID
	// owned by another organization yields ErrNotFound.
	SavePolicy(ctx context.Context, p types.Policy) (types.Policy, error)
	// DeletePolicy removes one of an organization's policies.
	DeletePolicy(ctx context.Context, organizationID, id string) error
}
