package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/sqlmaster/internal/mission"
)

func newMissionsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "missions",
		Short: "List the missions of the curriculum",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			missions := mission.Default().All()
			out := cmd.OutOrStdout()

			if e.flags.jsonMode {
				data, err := json.MarshalIndent(missions, "", "  ")
				if err != nil {
					return sysError(fmt.Errorf("marshal missions: %w", err))
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			for _, m := range missions {
				fmt.Fprintf(out, "%d. %s\n", m.Number(), m.Title)
			}
			return nil
		},
	}
}
