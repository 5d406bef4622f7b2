package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanchriswhite/qalttab/internal/alert"
	"github.com/bryanchriswhite/qalttab/internal/api"
	"github.com/bryanchriswhite/qalttab/internal/config"
	"github.com/bryanchriswhite/qalttab/internal/events"
	"github.com/bryanchriswhite/qalttab/internal/input"
	"github.com/bryanchriswhite/qalttab/internal/ipc"
	"github.com/bryanchriswhite/qalttab/internal/layout"
	"github.com/bryanchriswhite/qalttab/internal/logger"
	"github.com/bryanchriswhite/qalttab/internal/overlay"
	"github.com/bryanchriswhite/qalttab/internal/window"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the overlay core",
	Long: `Start the notification listener, the alt release watcher and the
aggregator that shows and hides the overlay through qtile.

qtile must be configured to send client_focus and cycle_windows
notifications to the listener socket.`,
	Example: `  # Run with the default config
  qalttab run

  # Run with debug logging and the inspector API
  qalttab run --log-level debug --inspector`,
	RunE: runRun,
}

var runInspector bool

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runInspector, "inspector", false, "serve the read-only inspector API")
}

func runRun(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := configMgr.Get()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var alerter *alert.Alerter
	if cfg.Alerts.Enabled {
		if alerter, err = alert.New(config.AppName); err != nil {
			log.Warn().Err(err).Msg("Desktop alerts unavailable")
			alerter = nil
		}
		defer alerter.Close()
	}

	notifyPath, err := cfg.NotifySocketPath()
	if err != nil {
		return err
	}
	qtilePath, err := cfg.QtileSocketPath()
	if err != nil {
		return err
	}

	queue := events.NewQueue()
	defer queue.Close()

	backend := window.NewQtileBackend(window.NewSocketTransport(qtilePath, cfg.IPC.Timeout), cfg.SelfName)
	aggregator := overlay.NewAggregator(queue, backend, layout.NewEstimator(cfg))

	listener := ipc.NewListener(notifyPath, queue, cfg.IPC.ReadBufferSize, cfg.IPC.Timeout)
	if err := listener.Listen(); err != nil {
		var bindErr *ipc.BindError
		if errors.As(err, &bindErr) {
			alerter.Fatal("listener", err)
		}
		return err
	}
	defer listener.Stop()

	watcher := input.NewWatcher(cfg.Input.MonitorCommand, input.CommandHook(cfg.Input.HookCommand), queue)

	fatal := make(chan error, 2)

	go func() {
		if err := listener.Serve(ctx); err != nil {
			fatal <- fmt.Errorf("listener: %w", err)
		}
	}()

	go func() {
		err := watcher.Run(ctx)
		var spawnErr *input.SpawnError
		switch {
		case errors.As(err, &spawnErr):
			alerter.Fatal("alt watcher", err)
			fatal <- err
		case err != nil:
			log.Warn().Err(err).Msg("Alt release watcher ended, relying on qtile hooks only")
		}
	}()

	go aggregator.Run(ctx, cfg.TickInterval)

	go func() {
		err := configMgr.Watch(ctx, func(c *config.Config) {
			applyLogLevel(configMgr)
			aggregator.SetSizer(layout.NewEstimator(c))
		})
		if err != nil {
			log.Warn().Err(err).Msg("Config hot reload disabled")
		}
	}()

	if runInspector || cfg.Inspector.Enabled {
		server := api.NewServer(aggregator, configMgr)
		go func() {
			if err := server.Start(ctx, cfg.Inspector.Address); err != nil {
				log.Error().Err(err).Str("addr", cfg.Inspector.Address).Msg("Inspector failed")
			}
		}()
	}

	log.Info().
		Str("notify_socket", notifyPath).
		Str("qtile_socket", qtilePath).
		Str("self_name", cfg.SelfName).
		Msg("qalttab is running")

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
		return nil
	case err := <-fatal:
		log.Error().Err(err).Msg("Component failed")
		return err
	}
}
