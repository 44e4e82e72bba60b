package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/trajplan/app"
	"github.com/kilianp07/trajplan/config"
	"github.com/kilianp07/trajplan/core/scenario"
	"github.com/kilianp07/trajplan/infra/logger"
)

var rootCmd = newRootCmd()

// newRootCmd assembles the command tree. Tests build a fresh tree per run so
// flag values never leak between executions.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "trajplan",
		Short:         "Collision-free speed profiles along fixed paths",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", "", "configuration file (yaml or json)")
	root.PersistentFlags().StringVarP(&opts.scenarioPath, "scenario", "s", "", "scenario file (yaml or json)")
	root.PersistentFlags().BoolVar(&opts.hold, "hold", false, "keep serving /metrics until interrupted")
	root.AddCommand(newPlanCmd(opts), newVerifyCmd(opts), newBatchCmd(opts))
	return root
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

type rootOptions struct {
	cfgPath      string
	scenarioPath string
	hold         bool
}

// session bundles what every command needs.
type session struct {
	ctx      context.Context
	svc      *app.Service
	scenario *scenario.Scenario
	hold     bool
	stop     context.CancelFunc
}

func (o *rootOptions) open(publish bool) (*session, error) {
	if o.scenarioPath == "" {
		return nil, fmt.Errorf("--scenario is required")
	}
	sc, err := scenario.Load(o.scenarioPath)
	if err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(o.cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	svc, err := app.New(ctx, cfg, app.Options{Publish: publish})
	if err != nil {
		stop()
		return nil, err
	}
	return &session{ctx: ctx, svc: svc, scenario: sc, hold: o.hold, stop: stop}, nil
}

// close optionally holds until interrupted, then releases the service.
func (s *session) close() error {
	defer s.stop()
	var holdErr error
	if s.hold {
		holdErr = s.svc.Hold(s.ctx)
	}
	if err := s.svc.Close(); err != nil {
		logger.New("main").Errorf("service close: %v", err)
		return err
	}
	return holdErr
}
