// Package app wires configuration into a running Night Watch: stores,
// notifiers, the event bus and the engine. Both binaries build on it.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/matthewbaird/nightwatch/internal/activity"
	"github.com/matthewbaird/nightwatch/internal/config"
	"github.com/matthewbaird/nightwatch/internal/db"
	"github.com/matthewbaird/nightwatch/internal/engine"
	"github.com/matthewbaird/nightwatch/internal/event"
	"github.com/matthewbaird/nightwatch/internal/eventbus"
	"github.com/matthewbaird/nightwatch/internal/feed"
	"github.com/matthewbaird/nightwatch/internal/ledger"
	"github.com/matthewbaird/nightwatch/internal/logging"
	"github.com/matthewbaird/nightwatch/internal/notify"
	"github.com/matthewbaird/nightwatch/internal/seed"
	"github.com/matthewbaird/nightwatch/internal/store"
)

// App holds every long-lived component.
type App struct {
	Config   *config.Config
	Location *time.Location
	Store    store.Store
	Activity activity.Store
	Bus      *eventbus.Bus
	Hub      *feed.Hub
	Engine   *engine.Engine

	db *db.DB
}

// New builds the components described by cfg. With an empty database URL
// every store lives in memory.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	a := &App{
		Config:   cfg,
		Location: loc,
		Bus:      eventbus.New(256),
		Hub:      feed.NewHub(),
	}

	var suppressBackend ledger.Backend
	if cfg.Database.URL == "" {
		logging.Logger.Warn("no database URL configured, keeping records in memory")
		a.Store = store.NewMemoryStore()
		a.Activity = activity.NewMemoryStore()
		suppressBackend = ledger.NewMemoryBackend()
	} else {
		a.db, err = db.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, a.db); err != nil {
			a.db.Close()
			return nil, fmt.Errorf("running schema migration: %w", err)
		}
		logging.Logger.Info("database migrated successfully")
		a.Store = store.NewSQLStore(a.db, loc)
		a.Activity = activity.NewSQLStore(a.db)
		suppressBackend = ledger.NewSQLBackend(a.db)
	}

	if cfg.Seed {
		if err := seed.SeedDemo(ctx, a.Store, time.Now().In(loc)); err != nil {
			a.Close()
			return nil, fmt.Errorf("seeding demo data: %w", err)
		}
	}

	a.Bus.Subscribe("log", eventbus.NewLogConsumer())
	a.Bus.Subscribe("feed", a.Hub)

	recorder := event.NewActivityRecorder(a.Activity)
	recorder.SetPublisher(a.Bus)

	opts := []engine.Option{
		engine.WithLocation(loc),
		engine.WithParallelism(cfg.Engine.Parallelism),
	}
	if cfg.Engine.DedupeWindow > 0 {
		opts = append(opts, engine.WithSuppressor(ledger.New(suppressBackend, cfg.Engine.DedupeWindow)))
	}
	a.Engine = engine.New(a.Store, recorder, Notifier(cfg, a.Bus), opts...)
	return a, nil
}

// Notifier assembles the notification port: SendGrid email when a key is
// configured (the console simulation otherwise), operator alerts on the bus,
// and SMS when Twilio is configured.
func Notifier(cfg *config.Config, bus event.Publisher) *notify.Dispatcher {
	var email notify.EmailSender
	if cfg.SendGrid.APIKey != "" {
		email = notify.NewSendGridMailer(cfg.SendGrid.APIKey, cfg.SendGrid.FromName, cfg.SendGrid.FromEmail, cfg.SendGrid.Sandbox)
	} else {
		logging.Logger.Info("SendGrid not configured, tenant emails are simulated")
	}

	operators := []notify.OperatorChannel{notify.NewBusOperator(bus)}
	if cfg.Twilio.AccountSID != "" {
		operators = append(operators, notify.NewTwilioPager(
			cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromPhone, cfg.Twilio.OperatorPhone))
	}
	return notify.NewDispatcher(email, operators...)
}

// Start runs the event bus until ctx is cancelled or Close is called.
func (a *App) Start(ctx context.Context) {
	a.Bus.Start(ctx)
}

// Close stops the bus and releases the database.
func (a *App) Close() {
	a.Bus.Stop()
	if a.db != nil {
		a.db.Close()
	}
}
