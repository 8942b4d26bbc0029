// Package seed provides demo data for the server and the CLI.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/matthewbaird/nightwatch/internal/logging"
	"github.com/matthewbaird/nightwatch/internal/store"
	"github.com/matthewbaird/nightwatch/internal/types"
)

// Demo identifiers.
const (
	DemoOrganization = "org-harbor"
	DemoActor        = "demo"
)

// Writer is the subset of store.Store seeding needs.
type Writer interface {
	Organizations(ctx context.Context) ([]types.Organization, error)
	SaveOrganization(ctx context.Context, o types.Organization) error
	SaveMember(ctx context.Context, m types.Member) error
	SaveProperty(ctx context.Context, p types.Property) error
	SaveTenant(ctx context.Context, t types.Tenant) error
	SavePolicy(ctx context.Context, p types.Policy) (types.Policy, error)
}

var _ Writer = store.Store(nil)

// SeedDemo creates a demo organization whose properties sit in every lease
// zone relative to now. If any organization already exists it skips
// seeding.
func SeedDemo(ctx context.Context, w Writer, now time.Time) error {
	orgs, err := w.Organizations(ctx)
	if err != nil {
		return fmt.Errorf("checking organizations: %w", err)
	}
	if len(orgs) > 0 {
		logging.Logger.Infof("organizations already seeded (%d found), skipping", len(orgs))
		return nil
	}

	if err := w.SaveOrganization(ctx, types.Organization{ID: DemoOrganization, Name: "Harbor Property Group"}); err != nil {
		return fmt.Errorf("creating organization: %w", err)
	}
	if err := w.SaveMember(ctx, types.Member{Actor: DemoActor, OrganizationID: DemoOrganization}); err != nil {
		return fmt.Errorf("creating member: %w", err)
	}

	// ── Properties ───────────────────────────────────────────────────
	properties := []types.Property{
		{ID: "prop-001", Address: "14 Harbor View Rd", City: "Portland", LeaseEnd: days(now, 200), RentDueDay: intPtr(1)},
		{ID: "prop-002", Address: "221 Maple Court", City: "Portland", LeaseEnd: days(now, 60), NextInspectionDate: days(now, 14)},
		{ID: "prop-003", Address: "8 Quayside Lofts", City: "Portland", Type: "commercial", LeaseEnd: days(now, 12), RentDueDay: intPtr(1)},
		{ID: "prop-004", Address: "77 Beacon St", City: "Salem", LeaseEnd: days(now, -3)},
	}
	for _, p := range properties {
		p.OrganizationID = DemoOrganization
		if err := w.SaveProperty(ctx, p); err != nil {
			return fmt.Errorf("creating property %s: %w", p.ID, err)
		}
	}

	// ── Tenants ──────────────────────────────────────────────────────
	tenants := []types.Tenant{
		{ID: "ten-001", FullName: "Maya Okafor", Email: "maya.okafor@example.com", PropertyID: strPtr("prop-001"), Status: types.TenantActive},
		{ID: "ten-002", FullName: "Daniel Reyes", Email: "daniel.reyes@example.com", Phone: "+15035550142", PropertyID: strPtr("prop-002"), Status: types.TenantActive},
		{ID: "ten-003", FullName: "Quayside Coffee LLC", Email: "accounts@quayside.example.com", PropertyID: strPtr("prop-003"), Status: types.TenantActive},
		{ID: "ten-004", FullName: "Priya Shah", Email: "priya.shah@example.com", PropertyID: strPtr("prop-002"), Status: types.TenantPast},
		{ID: "ten-005", FullName: "Sam Lee", Email: "sam.lee@example.com", Status: types.TenantActive},
	}
	for _, t := range tenants {
		t.OrganizationID = DemoOrganization
		if err := w.SaveTenant(ctx, t); err != nil {
			return fmt.Errorf("creating tenant %s: %w", t.ID, err)
		}
	}

	// ── Policies ─────────────────────────────────────────────────────
	policies := []types.Policy{
		{ID: "pol-lease-watch", Name: "Lease watch", Scope: types.ScopeGlobal, Metric: types.MetricLeaseEnd, Operator: "<", Value: "90", Recipient: types.RecipientManager},
		{ID: "pol-tenant-renewal", Name: "Tenant renewal notices", Scope: types.DefaultPropertyType, Metric: types.MetricLeaseEnd, Recipient: types.RecipientTenant},
		{ID: "pol-commercial-rent", Name: "Commercial rent reminder", Scope: "commercial", Metric: types.MetricRentDue, Operator: ">=", Value: "1", Recipient: types.RecipientTenant},
	}
	for _, p := range policies {
		p.OrganizationID = DemoOrganization
		if _, err := w.SavePolicy(ctx, p); err != nil {
			return fmt.Errorf("creating policy %s: %w", p.ID, err)
		}
	}

	logging.Logger.Infof("seeded demo organization %s: %d properties, %d tenants, %d policies",
		DemoOrganization, len(properties), len(tenants), len(policies))
	return nil
}

func days(now time.Time, n int) *time.Time {
	y, m, d := now.Date()
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	return &t
}

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }
