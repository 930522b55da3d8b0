package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/uptime-industries/ccvs-speed/internal/config"
	"github.com/uptime-industries/ccvs-speed/internal/monitor"
	"github.com/uptime-industries/ccvs-speed/pkg/log"
	"go.bug.st/serial"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func init() {
	cmdWatch.Flags().String("file", "-", "file with one hex payload per line, - for stdin")
	cmdWatch.Flags().String("port", "", "serial port delivering one hex payload per line")
	cmdWatch.Flags().Int("baud", 115200, "serial port baud rate")
	cmdWatch.Flags().String("metrics-addr", ":9666", "prometheus listen address, empty to disable")
	_ = v.BindPFlag("watch.file", cmdWatch.Flags().Lookup("file"))
	_ = v.BindPFlag("watch.serial_port", cmdWatch.Flags().Lookup("port"))
	_ = v.BindPFlag("watch.baud_rate", cmdWatch.Flags().Lookup("baud"))
	_ = v.BindPFlag("watch.metrics_addr", cmdWatch.Flags().Lookup("metrics-addr"))
	rootCmd.AddCommand(cmdWatch)
}

var cmdWatch = &cobra.Command{
	Use:     "watch",
	Example: "speedctl watch --port /dev/ttyUSB0 --baud 115200",
	Short:   "Continuously decode payloads from a serial port or file and export the speed as metrics",
	Args:    cobra.NoArgs,
	RunE:    runWatch,
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, cancelCtx := context.WithCancelCause(cmd.Context())
	defer cancelCtx(context.Canceled)
	cfg := configFromContext(ctx)
	logger := log.FromContext(ctx)

	input, err := openInput(cfg.Watch)
	if err != nil {
		return err
	}
	defer input.Close()

	// Close input after context is done, unblocking pending reads on serial ports and files.
	// A pending stdin read is abandoned by the monitor instead.
	go func() {
		<-ctx.Done()
		input.Close()
	}()

	group := errgroup.Group{}

	group.Go(func() error {
		defer cancelCtx(context.Canceled)
		m := monitor.NewMonitor(monitor.MonitorOpts{
			Input:  input,
			Output: cmd.OutOrStdout(),
		})
		err := m.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) && ctx.Err() == nil {
			logger.Error("Monitor failed", zap.Error(err))
			cancelCtx(err)
			return err
		}
		return nil
	})

	if cfg.Watch.MetricsAddr != "" {
		promHandler := http.NewServeMux()
		promHandler.Handle("/metrics", promhttp.Handler())
		server := &http.Server{Addr: cfg.Watch.MetricsAddr, Handler: promHandler}

		group.Go(func() error {
			logger.Info("Serving metrics", zap.String("addr", cfg.Watch.MetricsAddr))
			err := server.ListenAndServe()
			if err != nil && err != http.ErrServerClosed {
				logger.Error("Failed to start prometheus server", zap.Error(err))
				cancelCtx(err)
				return err
			}
			return nil
		})
		group.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("Failed to shutdown prometheus server", zap.Error(err))
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		logger.Info("Exiting", zap.NamedError("cause", cause))
	}
	return nil
}

// openInput opens the serial port if configured, the input file otherwise
func openInput(cfg config.WatchConfig) (io.ReadCloser, error) {
	if cfg.SerialPort != "" {
		return serial.Open(cfg.SerialPort, &serial.Mode{BaudRate: cfg.BaudRate})
	}
	if cfg.File == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(cfg.File)
}
