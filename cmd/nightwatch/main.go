// Command nightwatch runs Night Watch once and prints the report.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/matthewbaird/nightwatch/internal/app"
	"github.com/matthewbaird/nightwatch/internal/config"
	"github.com/matthewbaird/nightwatch/internal/engine"
	"github.com/matthewbaird/nightwatch/internal/logging"
	"github.com/matthewbaird/nightwatch/internal/policy"
	"github.com/matthewbaird/nightwatch/internal/seed"
)

func main() {
	var (
		configPath = pflag.String("config", "", "path to a YAML config file (default $"+config.EnvConfigPath+")")
		actor      = pflag.String("actor", "", "actor to run as; its organization is scanned")
		policyFile = pflag.String("policies", "", "YAML or JSON policy file used instead of the stored policies")
		seedDemo   = pflag.Bool("seed", false, "seed the demo organization and run as its actor")
		asJSON     = pflag.Bool("json", false, "print the full report as JSON")
	)
	pflag.Parse()

	os.Exit(run(*configPath, *actor, *policyFile, *seedDemo, *asJSON))
}

func run(configPath, actor, policyFile string, seedDemo, asJSON bool) int {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	logging.InitWithOutput("nightwatch", cfg.LogLevel, os.Stderr)
	if seedDemo {
		cfg.Seed = true
		if actor == "" {
			actor = seed.DemoActor
		}
	}

	var req engine.Request
	if policyFile != "" {
		_, rules, err := policy.LoadFile(policyFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		req.Rules = rules
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	a.Start(ctx)
	defer a.Close()

	if cfg.Engine.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Engine.Timeout)
		defer cancel()
	}
	report, err := a.Engine.RunForActor(ctx, actor, req)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	} else {
		fmt.Println(report.String())
	}
	if !report.Success {
		return 1
	}
	return 0
}
