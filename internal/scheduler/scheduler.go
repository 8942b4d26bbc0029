// Package scheduler runs Night Watch for every organization on a cron
// schedule. The engine does not deduplicate, so the schedule is what keeps
// notifications to once per day.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/matthewbaird/nightwatch/internal/engine"
	"github.com/matthewbaird/nightwatch/internal/logging"
	"github.com/matthewbaird/nightwatch/internal/types"
)

// SystemActor is the actor scheduled runs are attributed to.
const SystemActor = "system"

// DefaultSchedule runs shortly after midnight.
const DefaultSchedule = "5 0 * * *"

// Runner runs the engine for one organization.
type Runner interface {
	Run(ctx context.Context, req engine.Request) (engine.RunReport, error)
}

// OrganizationLister lists every organization.
type OrganizationLister interface {
	Organizations(ctx context.Context) ([]types.Organization, error)
}

// Scheduler owns the cron loop.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	orgs    OrganizationLister
	timeout time.Duration
}

// ErrNoSchedule is returned by New for an empty cron spec. Callers treat an
// empty schedule as "nightly run disabled" and skip the scheduler.
var ErrNoSchedule = errors.New("no schedule configured")

// New validates the schedule and registers the nightly job. timeout bounds
// each pass over all organizations; zero means unbounded.
func New(runner Runner, orgs OrganizationLister, spec string, loc *time.Location, timeout time.Duration) (*Scheduler, error) {
	if spec == "" {
		return nil, ErrNoSchedule
	}
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		runner:  runner,
		orgs:    orgs,
		timeout: timeout,
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("scheduling night watch %q: %w", spec, err)
	}
	return s, nil
}

// Start begins the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	logging.Logger.Info("Scheduled night watch cron job")
}

// Stop halts the cron loop and waits for a running job to finish or ctx
// to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) tick() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	logging.Logger.Info("Starting night watch cron job...")
	if err := s.RunAll(ctx); err != nil {
		logging.Logger.WithError(err).Error("Night watch cron job failed")
	}
}

// RunAll runs the engine once for every organization. A failing
// organization does not stop the others; failures are joined.
func (s *Scheduler) RunAll(ctx context.Context) error {
	orgs, err := s.orgs.Organizations(ctx)
	if err != nil {
		return fmt.Errorf("listing organizations: %w", err)
	}
	var errs []error
	for _, org := range orgs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		log := logging.Logger.WithFields(logrus.Fields{
			"actor":           SystemActor,
			"organization_id": org.ID,
		})
		report, err := s.runner.Run(ctx, engine.Request{OrganizationID: org.ID})
		if err != nil {
			log.WithError(err).Error("night watch run failed")
			errs = append(errs, fmt.Errorf("organization %s: %w", org.ID, err))
			continue
		}
		log.WithFields(logrus.Fields{
			"run_id":    report.RunID,
			"success":   report.Success,
			"triggered": report.Triggered(),
		}).Info("night watch run finished")
	}
	return errors.Join(errs...)
}
