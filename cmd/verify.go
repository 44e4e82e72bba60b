package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the scenario's trajectory against its obstacles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := root.open(false)
			if err != nil {
				return err
			}
			v, err := s.svc.Verify(s.scenario)
			if cerr := s.close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			if v.Collides {
				id := s.scenario.Obstacles[v.Obstacle].ID
				fmt.Fprintf(cmd.OutOrStdout(), "collision with obstacle %d (%s)\n", v.Obstacle, id)
				return fmt.Errorf("trajectory collides")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "no collision")
			return nil
		},
	}
}
