package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

// statusReport describes a saved database file.
type statusReport struct {
	File     string   `json:"file"`
	Restored bool     `json:"restored"`
	Level    int      `json:"level"`
	Total    int      `json:"total"`
	Complete bool     `json:"complete"`
	Mission  string   `json:"mission,omitempty"`
	History  int      `json:"history"`
	Tables   []string `json:"tables"`
}

func newStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status FILE",
		Short: "Show the progress saved in a database file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, e)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			s, err := a.newSession(ctx, types.NopListener{})
			if err != nil {
				return err
			}
			defer s.Close()

			restored, err := loadArtifact(ctx, s, args[0])
			if err != nil {
				return err
			}
			tables, err := s.Tables(ctx)
			if err != nil {
				return sysError(err)
			}

			p := s.Progress()
			report := statusReport{
				File:     args[0],
				Restored: restored,
				Level:    p.MissionIndex,
				Total:    a.reg.Len(),
				Complete: s.IsComplete(),
				History:  len(p.History),
				Tables:   tables,
			}
			if m, ok := s.Mission(); ok {
				report.Mission = m.Title
			}
			return printStatus(cmd, e, report)
		},
	}
}

func printStatus(cmd *cobra.Command, e *env, r statusReport) error {
	out := cmd.OutOrStdout()
	if e.flags.jsonMode {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return sysError(fmt.Errorf("marshal status: %w", err))
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	switch {
	case !r.Restored:
		fmt.Fprintln(out, "No saved progress.")
	case r.Complete:
		fmt.Fprintf(out, "All %d missions complete.\n", r.Total)
	default:
		fmt.Fprintf(out, "Mission %d of %d: %s\n", r.Level+1, r.Total, r.Mission)
	}
	fmt.Fprintf(out, "Commands in history: %d\n", r.History)
	if len(r.Tables) == 0 {
		fmt.Fprintln(out, "Tables: (none)")
	} else {
		fmt.Fprintf(out, "Tables: %s\n", strings.Join(r.Tables, ", "))
	}
	return nil
}
