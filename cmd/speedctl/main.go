package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/uptime-industries/ccvs-speed/internal/config"
	"github.com/uptime-industries/ccvs-speed/pkg/log"
	"go.uber.org/zap"
)

type configContextKey int

const defaultConfigContextKey configContextKey = 0

var (
	configPath string
	v          = viper.New()

	// releaseCommand cancels the command context and restores default signal handling
	releaseCommand = func() {}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a speedctl config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func configIntoContext(ctx context.Context, cfg config.Config) context.Context {
	return context.WithValue(ctx, defaultConfigContextKey, cfg)
}

func configFromContext(ctx context.Context) config.Config {
	cfg, ok := ctx.Value(defaultConfigContextKey).(config.Config)
	if !ok {
		panic("config not found in context")
	}
	return cfg
}

var rootCmd = &cobra.Command{
	Use:           "speedctl",
	Short:         "speedctl decodes the wheel-based vehicle speed of J1939 CCVS (PGN 65265) payloads",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(v, configPath)
		if err != nil {
			return err
		}

		logger, err := log.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}
		logger = logger.With(zap.String("app", "speedctl"))
		_ = zap.ReplaceGlobals(logger.With(zap.String("scope", "global")))

		ctx, cancelCtx := context.WithCancelCause(log.IntoContext(cmd.Context(), logger))

		// setup signal handler channels
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			// A second signal terminates the process
			defer signal.Stop(sigs)
			// Wait for context cancel or signal
			select {
			case <-ctx.Done():
			case sig := <-sigs:
				// On signal, cancel context
				cancelCtx(fmt.Errorf("signal %s received", sig))
			}
		}()
		releaseCommand = func() {
			cancelCtx(context.Canceled)
		}

		cmd.SetContext(configIntoContext(ctx, cfg))
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		releaseCommand()
	},
}

// execute runs the root command, releasing the command context on every path
func execute(ctx context.Context) error {
	defer func() {
		releaseCommand()
		releaseCommand = func() {}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func main() {
	if err := execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
