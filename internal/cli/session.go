package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the stored session id",
	Long:  `Print the session id a restarted client would resume. Prints nothing when no session is stored.`,
	Args:  cobra.NoArgs,
	RunE:  runGet,
}

var setCmd = &cobra.Command{
	Use:   "set <session-id>",
	Short: "Store a session id",
	Long:  `Store the session id to resume. Blank ids are ignored and leave the stored id unchanged.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSet,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the stored session id",
	Long:  `Forget the stored session id. Conversation history is kept.`,
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(clearCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	if id := a.session.SessionIDWithContext(commandContext(cmd)); id != "" {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

func runSet(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	id := args[0]
	if strings.TrimSpace(id) == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "Ignoring blank session id")
	}
	a.session.SetSessionIDWithContext(commandContext(cmd), id)
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	a.session.ClearSessionIDWithContext(commandContext(cmd))
	return nil
}
