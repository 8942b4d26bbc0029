package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/matthewbaird/nightwatch/internal/types"
)

// MemoryStore implements Store with maps guarded by a mutex.
// Used by tests, the CLI and the server when no database is configured.
type MemoryStore struct {
	mu         sync.RWMutex
	orgs       map[string]types.Organization
	members    map[string]string
	properties map[string]types.Property
	tenants    map[string]types.Tenant
	policies   []types.Policy
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orgs:       make(map[string]types.Organization),
		members:    make(map[string]string),
		properties: make(map[string]types.Property),
		tenants:    make(map[string]types.Tenant),
	}
}

func (s *MemoryStore) OrganizationFor(_ context.Context, actor string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.members[actor]
	if !ok {
		return "", ErrNoOrganization
	}
	return org, nil
}

func (s *MemoryStore) Organizations(_ context.Context) ([]types.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Organization, 0, len(s.orgs))
	for _, o := range s.orgs {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Properties(_ context.Context, organizationID string) ([]types.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Property
	for _, p := range s.properties {
		if p.OrganizationID == organizationID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Tenants(_ context.Context, organizationID string) ([]types.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Tenant
	for _, t := range s.tenants {
		if t.OrganizationID == organizationID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Policies(_ context.Context, organizationID string) ([]types.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Policy
	for _, p := range s.policies {
		if organizationID == "" || p.OrganizationID == organizationID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) SaveOrganization(_ context.Context, o types.Organization) error {
	if err := types.Validate(o); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs[o.ID] = o
	return nil
}

func (s *MemoryStore) SaveMember(_ context.Context, m types.Member) error {
	if err := types.Validate(m); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[m.OrganizationID]; !ok {
		return fmt.Errorf("organization %s: %w", m.OrganizationID, ErrNotFound)
	}
	s.members[m.Actor] = m.OrganizationID
	return nil
}

func (s *MemoryStore) SaveProperty(_ context.Context, p types.Property) error {
	if err := checkProperty(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[p.OrganizationID]; !ok {
		return fmt.Errorf("organization %s: %w", p.OrganizationID, ErrNotFound)
	}
	s.properties[p.ID] = p
	return nil
}

func (s *MemoryStore) SaveTenant(_ context.Context, t types.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var prop *types.Property
	if t.PropertyID != nil {
		if p, ok := s.properties[*t.PropertyID]; ok {
			prop = &p
		}
	}
	if err := types.ValidateTenant(t, prop); err != nil {
		return err
	}
	s.tenants[t.ID] = t
	return nil
}

func (s *MemoryStore) SavePolicy(_ context.Context, p types.Policy) (types.Policy, error) {
	p, err := preparePolicy(p)
	if err != nil {
		return types.Policy{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.policies {
		if s.policies[i].ID == p.ID {
			if s.policies[i].OrganizationID != p.OrganizationID {
				return types.Policy{}, fmt.Errorf("policy %s: %w", p.ID, ErrNotFound)
			}
			s.policies[i] = p
			return p, nil
		}
	}
	s.policies = append(s.policies, p)
	return p, nil
}

func (s *MemoryStore) DeletePolicy(_ context.Context, organizationID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.policies {
		if p.ID == id && p.OrganizationID == organizationID {
			s.policies = append(s.policies[:i], s.policies[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("policy %s: %w", id, ErrNotFound)
}
