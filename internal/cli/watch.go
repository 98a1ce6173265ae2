package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harun/acpkeep/internal/observability"
	"github.com/harun/acpkeep/internal/tracing"
	"github.com/harun/acpkeep/pkg/acp"
	"github.com/harun/acpkeep/pkg/history"
	"github.com/harun/acpkeep/pkg/statefile"
	"github.com/harun/acpkeep/pkg/statestore"
)

var watchMetricsAddr string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print a line whenever the state file changes",
	Long: `Watch the state file and print its decoded status each time any process
rewrites it. With --metrics-addr (or metrics.addr in the config) prometheus
metrics are served on /metrics until the command is interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve prometheus metrics on this address, e.g. :9090")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	path, err := a.store.Path()
	if err != nil {
		return fmt.Errorf("failed to resolve state file: %w", err)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := &lockedWriter{w: cmd.OutOrStdout()}

	watcher, err := statestore.NewWatcher(statestore.WatcherConfig{
		Path: path,
		OnChange: func(_ string, res statefile.Result) {
			observability.RecordStateFileEvent(res.Status.String())
			fmt.Fprintln(out, describeChange(time.Now(), res))
		},
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	addr := watchMetricsAddr
	if addr == "" {
		addr = a.cfg.Metrics.Addr
	}

	var srv *http.Server
	if addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.MetricsHandler())
		srv = &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error().Err(err).Str("addr", addr).Msg("Metrics server failed")
			}
		}()
		a.log.Info().Str("addr", addr).Msg("Serving metrics")
	}

	fmt.Fprintf(out, "Watching %s\n", path)
	<-ctx.Done()

	if srv != nil {
		// ctx is already cancelled here; keep its trace ids for the shutdown.
		shutdownCtx, cancel := context.WithTimeout(tracing.CloneContext(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger := tracing.LoggerFromContext(shutdownCtx, a.log.GetZerolog())
			logger.Warn().Err(err).Msg("Failed to shut down metrics server")
		}
	}
	return nil
}

// describeChange renders one watch line.
func describeChange(at time.Time, res statefile.Result) string {
	rec := res.Record
	entries := history.Decode[acp.SessionUpdate](rec.MessagesJSON)
	return fmt.Sprintf("%s status=%s session=%q entries=%d",
		at.Format(time.RFC3339), res.Status, rec.SessionID, len(entries))
}

// lockedWriter serializes writes from the watcher goroutine and the command.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
