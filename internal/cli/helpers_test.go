package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// testEnv is an isolated project root and config path.
type testEnv struct {
	root       string
	configPath string
}

func setupTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	return testEnv{
		root:       filepath.Join(dir, "project"),
		configPath: filepath.Join(dir, "config", "acpkeep.json"),
	}
}

func (e testEnv) args(args ...string) []string {
	return append([]string{"--config", e.configPath, "--project-root", e.root, "--log-level", "error"}, args...)
}

func (e testEnv) statePath() string {
	return filepath.Join(e.root, ".cache", "acpkeep", "SessionState.json")
}

// run executes the root command with the env's global flags.
func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeCommand(context.Background(), "", e.args(args...)...)
}

// runWithInput is run with stdin.
func (e testEnv) runWithInput(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return executeCommand(context.Background(), stdin, e.args(args...)...)
}

func executeCommand(ctx context.Context, stdin string, args ...string) (string, error) {
	out := &syncBuffer{}
	err := executeCommandTo(ctx, out, stdin, args...)
	return out.String(), err
}

func executeCommandTo(ctx context.Context, out *syncBuffer, stdin string, args ...string) error {
	cmd := GetRootCmd()
	resetCommand(cmd, ctx)

	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(&syncBuffer{})
	cmd.SetIn(strings.NewReader(stdin))

	return cmd.ExecuteContext(ctx)
}

// resetCommand clears flag values and contexts left behind by earlier
// executions of the shared command tree.
func resetCommand(c *cobra.Command, ctx context.Context) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	c.SetContext(ctx)

	for _, sub := range c.Commands() {
		resetCommand(sub, ctx)
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
