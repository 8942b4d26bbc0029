// Package types provides the records Night Watch reads and writes.
// Properties, tenants and policies are owned by the organization and only
// read by the engine; activity log entries are written by the engine alone.
package types

import (
	"time"
)

// DefaultPropertyType is the category assumed when a property has none.
const DefaultPropertyType = "residential"

// ScopeGlobal is the reserved policy scope that matches every property.
// It cannot be used as a property type.
const ScopeGlobal = "global"

// DateLayout is the calendar-date layout used for lease_end and
// next_inspection_date in storage and JSON documents.
const DateLayout = "2006-01-02"

// ─── Organization ──────────────────────────────────────────────────────────────

// Organization is the tenancy boundary every record belongs to.
type Organization struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// Member links an actor (an authenticated user id) to its organization.
type Member struct {
	Actor          string `json:"actor" validate:"required"`
	OrganizationID string `json:"organization_id" validate:"required"`
}

// ─── Property ──────────────────────────────────────────────────────────────────

// Property is a managed asset scanned by the engine.
type Property struct {
	ID                 string     `json:"id" validate:"required"`
	OrganizationID     string     `json:"organization_id" validate:"required"`
	Address            string     `json:"address" validate:"required"`
	City               string     `json:"city,omitempty"`
	Type               string     `json:"type,omitempty" validate:"omitempty,ne=global"`
	LeaseEnd           *time.Time `json:"lease_end,omitempty"`
	RentDueDay         *int       `json:"rent_due_day,omitempty" validate:"omitempty,min=1,max=31"`
	NextInspectionDate *time.Time `json:"next_inspection_date,omitempty"`
}

// Category returns the property type, defaulting to residential.
func (p Property) Category() string {
	if p.Type == "" {
		return DefaultPropertyType
	}
	return p.Type
}

// ─── Tenant ────────────────────────────────────────────────────────────────────

// TenantStatus is the occupancy state of a tenant record.
type TenantStatus string

const (
	TenantActive  TenantStatus = "active"
	TenantPast    TenantStatus = "past"
	TenantEvicted TenantStatus = "evicted"
)

// Tenant is a person optionally assigned to one property.
type Tenant struct {
	ID             string       `json:"id" validate:"required"`
	OrganizationID string       `json:"organization_id" validate:"required"`
	FullName       string       `json:"full_name" validate:"required"`
	Email          string       `json:"email,omitempty" validate:"omitempty,email"`
	Phone          string       `json:"phone,omitempty"`
	PropertyID     *string      `json:"property_id,omitempty"`
	Status         TenantStatus `json:"status" validate:"oneof=active past evicted"`
}

// AssignedTo reports whether the tenant is assigned to the given property.
func (t Tenant) AssignedTo(propertyID string) bool {
	return t.PropertyID != nil && *t.PropertyID == propertyID
}

// ─── Policy ────────────────────────────────────────────────────────────────────

// Metric names a policy trigger.
const (
	MetricLeaseEnd = "lease_end"
	MetricRentDue  = "rent_due"
)

// Recipient names who a firing notifies.
const (
	RecipientManager = "manager"
	RecipientTenant  = "tenant"
)

// Policy is a user-authored rule as stored. Fields are loosely typed the way
// the operator UI writes them; package policy parses them into a Rule.
type Policy struct {
	ID             string `json:"id" yaml:"id"`
	OrganizationID string `json:"organization_id,omitempty" yaml:"organization_id,omitempty"`
	Name           string `json:"name,omitempty" yaml:"name,omitempty"`
	Scope          string `json:"scope" yaml:"scope"`
	Metric         string `json:"metric" yaml:"metric"`
	Operator       string `json:"operator" yaml:"operator"`
	Value          string `json:"value" yaml:"value"`
	Recipient      string `json:"recipient" yaml:"recipient"`
}

// ─── Activity log ──────────────────────────────────────────────────────────────

// Severity is the status column of an activity log entry.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// SeverityOrder maps severities to rank (higher = more severe).
var SeverityOrder = map[Severity]int{
	SeverityInfo:    1,
	SeverityWarning: 2,
}

// IsAtLeast reports whether s is at least as severe as min.
func (s Severity) IsAtLeast(min Severity) bool {
	return SeverityOrder[s] >= SeverityOrder[min]
}

// ActivityLogEntry is one audit row written per firing.
type ActivityLogEntry struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	PropertyID     string    `json:"property_id"`
	PolicyID       string    `json:"policy_id,omitempty"`
	RunID          string    `json:"run_id,omitempty"`
	Message        string    `json:"message"`
	Status         Severity  `json:"status"`
	Classification string    `json:"classification,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// PulseDay is the number of activity entries written on one calendar day.
type PulseDay struct {
	Date  string `json:"date"`
	Day   string `json:"day"`
	Count int    `json:"count"`
}
