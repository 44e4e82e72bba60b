package cmd

import (
	"github.com/spf13/cobra"
)

func newBatchCmd(root *rootOptions) *cobra.Command {
	out := &outputOptions{}
	var publish bool
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Evaluate the scenario's candidates and keep the earliest finish",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := out.validate(); err != nil {
				return err
			}
			s, err := root.open(publish)
			if err != nil {
				return err
			}
			sel, err := s.svc.Batch(s.ctx, s.scenario)
			if err == nil {
				err = out.write(cmd.OutOrStdout(), s.scenario, sel, true)
			}
			if cerr := s.close(); err == nil {
				err = cerr
			}
			return err
		},
	}
	out.bind(cmd)
	cmd.Flags().BoolVar(&publish, "publish", false, "publish the selected trajectory over MQTT")
	return cmd
}
