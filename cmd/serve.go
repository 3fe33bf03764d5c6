package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/kayz/modprompt/internal/cron"
	"github.com/kayz/modprompt/internal/logger"
	"github.com/kayz/modprompt/internal/webui"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP adapter and web UI",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: config server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	addr := serveAddr
	if addr == "" {
		addr = rt.cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler, err := newCleanupScheduler(ctx, rt)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           webui.NewServer(rt.adapter).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Web UI listening on http://%s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("web UI server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// newCleanupScheduler registers audit and history retention on the configured schedule.
func newCleanupScheduler(ctx context.Context, rt *runtime) (*cron.Scheduler, error) {
	s := cron.NewScheduler(ctx)
	schedule := rt.cfg.Server.CleanupSchedule
	if schedule == "" {
		return s, nil
	}

	if rt.audit != nil {
		if err := s.Add("audit-cleanup", schedule, func(context.Context) error {
			return rt.audit.Cleanup()
		}); err != nil {
			return nil, err
		}
	}
	if rt.store != nil && rt.cfg.History.RetentionDays > 0 {
		if err := s.Add("history-prune", schedule, func(ctx context.Context) error {
			return pruneHistory(ctx, rt, time.Now())
		}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func pruneHistory(ctx context.Context, rt *runtime, now time.Time) error {
	cutoff := now.AddDate(0, 0, -rt.cfg.History.RetentionDays)
	removed, err := rt.store.Prune(ctx, cutoff)
	if err != nil {
		return err
	}
	logger.Info("Pruned %d compositions older than %s", removed, cutoff.Format("2006-01-02"))
	return nil
}
