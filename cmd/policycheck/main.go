// cmd/policycheck validates policy documents before they reach the engine.
//
// Phase 1 checks every file against the embedded CUE schema and the typed
// rule parser. Phase 2, when --actor is given, loads the actor's
// organization and reports policies whose scope selects no property.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/matthewbaird/nightwatch/internal/config"
	"github.com/matthewbaird/nightwatch/internal/db"
	"github.com/matthewbaird/nightwatch/internal/logging"
	"github.com/matthewbaird/nightwatch/internal/policy"
	"github.com/matthewbaird/nightwatch/internal/store"
	"github.com/matthewbaird/nightwatch/internal/types"
)

func main() {
	configPath := pflag.String("config", "", "path to a YAML config file (default $"+config.EnvConfigPath+")")
	actor := pflag.String("actor", "", "check scopes against this actor's properties")
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: policycheck [--config file] [--actor id] policies.yaml...")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() == 0 {
		pflag.Usage()
		os.Exit(2)
	}
	logging.InitWithOutput("policycheck", "", os.Stderr)

	fmt.Printf("Phase 1: Validating %d policy file(s)...\n", pflag.NArg())
	var all []policy.Rule
	failed := false
	for _, path := range pflag.Args() {
		_, rules, err := policy.LoadFile(path)
		if err != nil {
			fmt.Printf("  FAIL %v\n", err)
			failed = true
			continue
		}
		fmt.Printf("  ok   %s (%d policies)\n", path, len(rules))
		all = append(all, rules...)
	}
	if failed {
		logging.Logger.Fatal("policy validation failed")
	}

	if *actor == "" {
		fmt.Println("Phase 2: Skipping scope check: no --actor given")
		fmt.Println("\npolicycheck: OK")
		return
	}

	fmt.Printf("Phase 2: Checking scopes against %s's properties...\n", *actor)
	props, err := loadProperties(context.Background(), *configPath, *actor)
	if err != nil {
		logging.Logger.WithError(err).Fatal("loading properties")
	}
	unreachable := Unreachable(all, props)
	for _, r := range unreachable {
		fmt.Printf("  WARNING: %s (scope %q) matches none of %d properties\n", r.Label(), r.Scope, len(props))
	}
	if len(unreachable) == 0 {
		fmt.Println("  Every policy selects at least one property.")
	}
	fmt.Println("\npolicycheck: OK")
}

// Unreachable returns the rules whose scope selects none of the properties.
func Unreachable(rules []policy.Rule, props []types.Property) []policy.Rule {
	var out []policy.Rule
	for _, r := range rules {
		reached := false
		for _, p := range props {
			if policy.ScopeMatches(r.Scope, p) {
				reached = true
				break
			}
		}
		if !reached {
			out = append(out, r)
		}
	}
	return out
}

func loadProperties(ctx context.Context, configPath, actor string) ([]types.Property, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("no database URL configured")
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	d, err := db.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	s := store.NewSQLStore(d, loc)
	org, err := s.OrganizationFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.Properties(ctx, org)
}
