package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/matthewbaird/nightwatch/internal/logging"
	"github.com/matthewbaird/nightwatch/internal/notify"
	"github.com/matthewbaird/nightwatch/internal/policy"
	"github.com/matthewbaird/nightwatch/internal/store"
	"github.com/matthewbaird/nightwatch/internal/types"
)

// Request is the input of one run. OrganizationID is required. Any of the
// record slices left nil is loaded from the DataPort; Rules take precedence
// over Policies.
type Request struct {
	OrganizationID string
	Policies       []types.Policy
	Rules          []policy.Rule
	Properties     []types.Property
	Tenants        []types.Tenant
}

// RunForActor resolves the actor's organization and runs for it.
func (e *Engine) RunForActor(ctx context.Context, actor string, req Request) (RunReport, error) {
	started := e.now()
	if actor == "" {
		return failure(LineNoActor, started), nil
	}
	org, err := e.data.OrganizationFor(ctx, actor)
	if errors.Is(err, store.ErrNoOrganization) || (err == nil && org == "") {
		return failure(LineNoOrganization, started), nil
	}
	if err != nil {
		return RunReport{}, fmt.Errorf("resolving organization for %s: %w", actor, err)
	}
	req.OrganizationID = org
	return e.Run(ctx, req)
}

// Run evaluates every rule against every property of the organization and
// returns the report. The returned error is reserved for faults of the data
// port, invalid stored policies and context cancellation; everything that
// happens to an individual firing is reported in the log instead.
func (e *Engine) Run(ctx context.Context, req Request) (RunReport, error) {
	started := e.now()
	if req.OrganizationID == "" {
		return failure(LineNoOrganization, started), nil
	}
	org := req.OrganizationID

	properties := req.Properties
	if properties == nil {
		var err error
		if properties, err = e.data.Properties(ctx, org); err != nil {
			return RunReport{}, fmt.Errorf("loading properties: %w", err)
		}
	}
	if len(properties) == 0 {
		return failure(LineNoProperties, started), nil
	}

	rules, err := e.loadRules(ctx, req)
	if err != nil {
		return RunReport{}, err
	}

	tenants := req.Tenants
	if tenants == nil {
		if tenants, err = e.data.Tenants(ctx, org); err != nil {
			return RunReport{}, fmt.Errorf("loading tenants: %w", err)
		}
	}

	run := &pass{
		Engine:  e,
		runID:   uuid.NewString(),
		org:     org,
		env:     policy.Env{Now: started.In(e.loc)},
		rules:   rules,
		tenants: tenants,
	}
	log := logging.Logger.WithFields(logrus.Fields{
		"run_id":          run.runID,
		"organization_id": org,
	})
	log.WithFields(logrus.Fields{
		"properties": len(properties),
		"policies":   len(rules),
	}).Info("night watch run started")

	branches := make([]branch, len(properties))
	if e.parallelism > 1 && len(properties) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.parallelism)
		for i := range properties {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				branches[i] = run.property(gctx, properties[i])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return RunReport{}, fmt.Errorf("night watch run: %w", err)
		}
	} else {
		for i, p := range properties {
			if err := ctx.Err(); err != nil {
				return RunReport{}, fmt.Errorf("night watch run: %w", err)
			}
			branches[i] = run.property(ctx, p)
		}
	}

	report := RunReport{
		RunID:          run.runID,
		OrganizationID: org,
		Success:        true,
		StartedAt:      started,
	}
	for _, b := range branches {
		report.Logs = append(report.Logs, b.logs...)
		report.Firings = append(report.Firings, b.firings...)
	}
	report.Logs = append(report.Logs, LineComplete)
	report.FinishedAt = e.now()

	log.WithField("triggered", report.Triggered()).Info("night watch run complete")
	return report, nil
}

func (e *Engine) loadRules(ctx context.Context, req Request) ([]policy.Rule, error) {
	if req.Rules != nil {
		return req.Rules, nil
	}
	policies := req.Policies
	if policies == nil {
		var err error
		if policies, err = e.data.Policies(ctx, req.OrganizationID); err != nil {
			return nil, fmt.Errorf("loading policies: %w", err)
		}
	}
	rules, err := policy.ParseAll(policies)
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// pass holds the state shared by all properties of one run. It is read-only
// once the run starts.
type pass struct {
	*Engine
	runID   string
	org     string
	env     policy.Env
	rules   []policy.Rule
	tenants []types.Tenant
}

// branch accumulates the output of one property.
type branch struct {
	logs    []string
	firings []Firing
}

func (r *pass) property(ctx context.Context, prop types.Property) branch {
	var b branch
	for _, rule := range r.rules {
		m, ok := rule.Evaluate(prop, r.env)
		if !ok {
			continue
		}
		f := r.fire(ctx, prop, rule, m, &b)
		b.firings = append(b.firings, f)
	}
	return b
}

func (r *pass) fire(ctx context.Context, prop types.Property, rule policy.Rule, m policy.Match, b *branch) Firing {
	msg := firingMessage(prop.Address, m)
	f := Firing{
		PropertyID:     prop.ID,
		PolicyID:       rule.ID,
		Recipient:      rule.Recipient,
		Classification: m.Classification,
		Severity:       m.Severity(),
		DaysRemaining:  m.DaysRemaining,
		Message:        msg,
	}
	log := logging.Logger.WithFields(logrus.Fields{
		"run_id":         r.runID,
		"property_id":    prop.ID,
		"policy_id":      rule.ID,
		"classification": m.Classification,
	})

	if r.suppressor != nil {
		suppressed, err := r.suppressor.Suppressed(ctx, prop.ID, rule.ID, string(m.Classification), r.env.Now)
		if err != nil {
			log.WithError(err).Warn("suppression lookup failed, firing anyway")
		}
		if suppressed {
			log.Debug("firing suppressed")
			f.Suppressed = true
			return f
		}
	}

	b.logs = append(b.logs, msg)

	switch rule.Recipient {
	case types.RecipientManager:
		r.notifier.NotifyOperator(ctx, r.org, msg)
		f.Notified = true
	case types.RecipientTenant:
		tenant, ok := resolveTenant(prop.ID, r.tenants)
		if !ok {
			log.Warn("no tenant assigned to property")
			b.logs = append(b.logs, missingTenantLine(prop.Address))
			return f
		}
		if err := r.email(ctx, tenant, prop, m); err != nil {
			log.WithError(err).Warn("tenant email failed")
			b.logs = append(b.logs, emailErrorLine(err))
		} else {
			f.Notified = true
			b.logs = append(b.logs, emailSentLine(tenant.FullName))
		}
	}

	entry := types.ActivityLogEntry{
		ID:             uuid.NewString(),
		OrganizationID: r.org,
		PropertyID:     prop.ID,
		PolicyID:       rule.ID,
		RunID:          r.runID,
		Message:        msg,
		Status:         f.Severity,
		Classification: string(m.Classification),
		CreatedAt:      r.now(),
	}
	if err := r.activity.Append(ctx, entry); err != nil {
		log.WithError(err).Error("activity log write failed")
		b.logs = append(b.logs, dbErrorLine(err))
	} else {
		f.Logged = true
	}

	if r.suppressor != nil && f.Notified {
		if err := r.suppressor.Mark(ctx, prop.ID, rule.ID, string(m.Classification), r.env.Now); err != nil {
			log.WithError(err).Warn("recording notification in ledger failed")
		}
	}
	return f
}

var errNoEmail = errors.New("tenant has no email address")

func (r *pass) email(ctx context.Context, t types.Tenant, prop types.Property, m policy.Match) error {
	if t.Email == "" {
		return fmt.Errorf("%s: %w", t.FullName, errNoEmail)
	}
	return r.notifier.NotifyByEmail(ctx, notify.Compose(m.Classification, t.Email, t.FullName, prop.Address, m.DaysRemaining))
}

// resolveTenant returns the tenant assigned to the property. An active
// tenant wins over past or evicted ones; otherwise the first assigned tenant
// in order is used.
func resolveTenant(propertyID string, tenants []types.Tenant) (types.Tenant, bool) {
	var (
		found types.Tenant
		ok    bool
	)
	for _, t := range tenants {
		if !t.AssignedTo(propertyID) {
			continue
		}
		if t.Status == types.TenantActive {
			return t, true
		}
		if !ok {
			found, ok = t, true
		}
	}
	return found, ok
}
