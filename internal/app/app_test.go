package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/nightwatch/internal/activity"
	"github.com/matthewbaird/nightwatch/internal/config"
	"github.com/matthewbaird/nightwatch/internal/engine"
	"github.com/matthewbaird/nightwatch/internal/logging"
	"github.com/matthewbaird/nightwatch/internal/seed"
)

func TestMain(m *testing.M) {
	logging.Discard()
	os.Exit(m.Run())
}

func testConfig(url string) *config.Config {
	cfg := config.Default()
	cfg.Database.URL = url
	cfg.Timezone = "UTC"
	cfg.Seed = true
	return cfg
}

func TestNew_InMemoryRunStreamsToFeed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := New(ctx, testConfig(""))
	require.NoError(t, err)
	a.Start(ctx)
	defer a.Close()

	sess := a.Hub.Register(seed.DemoOrganization)
	report, err := a.Engine.RunForActor(ctx, seed.DemoActor, engine.Request{})
	require.NoError(t, err)
	require.True(t, report.Success)
	require.Positive(t, report.Triggered())

	select {
	case alert := <-sess.Alerts():
		assert.Equal(t, seed.DemoOrganization, alert.OrganizationID)
		assert.Contains(t, alert.Message, "Lease Alert")
	case <-time.After(2 * time.Second):
		t.Fatal("operator alert never reached the feed")
	}

	entries, _, total, err := a.Activity.QueryRecent(ctx, seed.DemoOrganization, activity.DefaultQueryOptions())
	require.NoError(t, err)
	assert.Equal(t, len(entries), total)
	assert.NotZero(t, total)
}

func TestNew_SQLiteWithDedupe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testConfig("file:" + filepath.Join(t.TempDir(), "nw.db"))
	cfg.Engine.DedupeWindow = 20 * time.Hour
	cfg.Engine.Parallelism = 4
	a, err := New(ctx, cfg)
	require.NoError(t, err)
	a.Start(ctx)
	defer a.Close()

	first, err := a.Engine.RunForActor(ctx, seed.DemoActor, engine.Request{})
	require.NoError(t, err)
	second, err := a.Engine.RunForActor(ctx, seed.DemoActor, engine.Request{})
	require.NoError(t, err)

	assert.Greater(t, first.Triggered(), second.Triggered(), "delivered firings are suppressed on the second run")
}

func TestNotifier_Channels(t *testing.T) {
	cfg := config.Default()
	cfg.SendGrid.APIKey = "SG.test"
	cfg.SendGrid.FromEmail = "nightwatch@example.com"
	cfg.Twilio.AccountSID = "AC123"
	cfg.Twilio.AuthToken = "token"
	cfg.Twilio.FromPhone = "+15550000000"
	cfg.Twilio.OperatorPhone = "+15551111111"
	assert.NotNil(t, Notifier(cfg, nil))
}
