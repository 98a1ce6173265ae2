package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harun/acpkeep/pkg/acp"
	"github.com/harun/acpkeep/pkg/history"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the state file as stored on disk",
	Long: `Read and decode the state file directly, bypassing any cache, and show
its path, decode status and fields. A missing or corrupt file is reported,
never repaired.`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	out := cmd.OutOrStdout()
	path, res := a.store.Inspect()
	rec := res.Record

	fmt.Fprintf(out, "Path: %s\n", path)
	fmt.Fprintf(out, "Status: %s\n", res.Status)
	if res.Err != nil {
		fmt.Fprintf(out, "Error: %v\n", res.Err)
	}
	fmt.Fprintf(out, "Version: %d\n", rec.Version)

	if rec.HasSession() {
		fmt.Fprintf(out, "Session: %s\n", rec.SessionID)
	} else {
		fmt.Fprintln(out, "Session: none")
	}

	entries, err := history.Parse[acp.SessionUpdate](rec.MessagesJSON)
	if err != nil {
		fmt.Fprintf(out, "History: unreadable (%v)\n", err)
	} else {
		fmt.Fprintf(out, "History: %d entries\n", len(entries))
	}

	if rec.LastUpdated.IsZero() {
		fmt.Fprintln(out, "Updated: never")
	} else {
		fmt.Fprintf(out, "Updated: %s (%s ago)\n",
			rec.LastUpdated.Format(time.RFC3339), formatDuration(time.Since(rec.LastUpdated)))
	}

	return nil
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
