package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/trajplan/core/arctime"
	"github.com/kilianp07/trajplan/core/motion"
	"github.com/kilianp07/trajplan/core/planner"
	"github.com/kilianp07/trajplan/core/scenario"
	"github.com/kilianp07/trajplan/pkg/export"
)

type outputOptions struct {
	format string
	chart  string
}

func (o *outputOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.format, "format", "json", "output format: json or csv")
	cmd.Flags().StringVar(&o.chart, "chart", "", "write an HTML arc-time chart to this file")
}

func (o *outputOptions) validate() error {
	if o.format != "json" && o.format != "csv" {
		return fmt.Errorf("unsupported format %q", o.format)
	}
	return nil
}

func newPlanCmd(root *rootOptions) *cobra.Command {
	out := &outputOptions{}
	var publish bool
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan the scenario's speed profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := out.validate(); err != nil {
				return err
			}
			s, err := root.open(publish)
			if err != nil {
				return err
			}
			sel, err := s.svc.Plan(s.ctx, s.scenario)
			if err == nil {
				err = out.write(cmd.OutOrStdout(), s.scenario, sel, false)
			}
			if cerr := s.close(); err == nil {
				err = cerr
			}
			return err
		},
	}
	out.bind(cmd)
	cmd.Flags().BoolVar(&publish, "publish", false, "publish the accepted trajectory over MQTT")
	return cmd
}

// write prints the selection and renders the chart when requested.
func (o *outputOptions) write(w io.Writer, sc *scenario.Scenario, sel planner.Selection, batch bool) error {
	plan := export.NewPlan(sel, sc.Epoch)
	var err error
	switch o.format {
	case "csv":
		err = export.WriteCSV(w, plan)
	default:
		err = export.WriteJSON(w, plan)
	}
	if err != nil || o.chart == "" {
		return err
	}
	regions, err := chartRegions(sc, sel, batch)
	if err != nil {
		return err
	}
	f, err := os.Create(o.chart)
	if err != nil {
		return err
	}
	chart := export.ArcTimeChart{Title: chartTitle(sc, sel), Regions: regions}
	if sel.Result.Feasible {
		chart.Profile = sel.Result.Trajectory.ArcTimePath()
	}
	if err := chart.Render(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func chartTitle(sc *scenario.Scenario, sel planner.Selection) string {
	switch {
	case sel.WorkerID != "":
		return sel.WorkerID
	case sc.Name != "":
		return sc.Name
	}
	return "trajplan"
}

// chartRegions rebuilds the forbidden regions the selection was planned
// against.
func chartRegions(sc *scenario.Scenario, sel planner.Selection, batch bool) ([]arctime.ForbiddenRegion, error) {
	var (
		path        motion.SpatialPath
		base, until time.Time
		obs         []motion.DynamicObstacle
	)
	switch {
	case batch:
		cands, err := sc.PlannerCandidates()
		if err != nil {
			return nil, err
		}
		if sel.Index < 0 || sel.Index >= len(cands) {
			return nil, fmt.Errorf("selection index %d out of range", sel.Index)
		}
		req := cands[sel.Index].Request
		path, base, until, obs = req.Path, req.StartTime, req.LatestFinishTime.Add(req.BufferDuration), req.Obstacles
	case sc.Mode == scenario.ModeFixTime:
		req, err := sc.FixTimeRequest()
		if err != nil {
			return nil, err
		}
		path, base, until, obs = req.Path, req.StartTime, req.FinishTime, req.Obstacles
	default:
		req, err := sc.MinimumTimeRequest()
		if err != nil {
			return nil, err
		}
		path, base, until, obs = req.Path, req.StartTime, req.LatestFinishTime.Add(req.BufferDuration), req.Obstacles
	}
	b := arctime.RegionBuilder{BaseTime: base, Path: path, Window: &arctime.Window{From: 0, To: until.Sub(base).Seconds()}}
	return b.Build(obs)
}
