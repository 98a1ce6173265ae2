package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harun/acpkeep/pkg/acp"
)

var (
	snapshotSession string
	snapshotFile    string
	appendKind      string
	appendText      string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the stored conversation history",
	Long:  `Print the stored conversation history as an indented JSON array of session updates.`,
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Replace the stored history",
	Long: `Replace the stored history with a JSON array of session updates read
from --file (or stdin with "-"). With --session the session id is stored
as well; without it the stored id is kept.`,
	Args: cobra.NoArgs,
	RunE: runSnapshot,
}

var appendCmd = &cobra.Command{
	Use:   "append",
	Short: "Append a text update to the stored history",
	Args:  cobra.NoArgs,
	RunE:  runAppend,
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotSession, "session", "", "session id to store with the snapshot")
	snapshotCmd.Flags().StringVarP(&snapshotFile, "file", "f", "-", `JSON file with session updates ("-" reads stdin)`)

	appendCmd.Flags().StringVar(&appendKind, "kind", string(acp.KindAgentMessageChunk), "session update kind")
	appendCmd.Flags().StringVar(&appendText, "text", "", "text content of the update")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(appendCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	entries := a.session.LoadMessagesWithContext(commandContext(cmd))

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format history: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	entries, err := readSnapshot(cmd)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	a.session.SaveSnapshotWithContext(commandContext(cmd), snapshotSession, entries)
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d entries\n", len(entries))
	return nil
}

func runAppend(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(appendText) == "" {
		return fmt.Errorf("--text is required")
	}

	kind, err := acp.ParseKind(appendKind)
	if err != nil {
		return err
	}

	update, err := acp.NewTextUpdate(kind, appendText)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	ctx := commandContext(cmd)
	a.session.AppendMessagesWithContext(ctx, update)

	fmt.Fprintln(cmd.OutOrStdout(), update.ID)
	return nil
}

func readSnapshot(cmd *cobra.Command) ([]acp.SessionUpdate, error) {
	var r io.Reader
	if snapshotFile == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(snapshotFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot file: %w", err)
		}
		defer f.Close()
		r = f
	}

	return decodeUpdates(r)
}

// decodeUpdates reads a JSON array of session updates and rejects unknown kinds.
func decodeUpdates(r io.Reader) ([]acp.SessionUpdate, error) {
	var entries []acp.SessionUpdate
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode session updates: %w", err)
	}

	for i, entry := range entries {
		if err := entry.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	if entries == nil {
		entries = []acp.SessionUpdate{}
	}
	return entries, nil
}
