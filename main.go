package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"k8s.io/utils/clock"

	"github.com/pendeploy-nightly/config"
	"github.com/pendeploy-nightly/models"
	"github.com/pendeploy-nightly/services"
	"github.com/pendeploy-nightly/utils"
)

var (
	envFile      string
	maxWait      time.Duration
	pollInterval time.Duration
	settleDelay  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "nightly-deploy",
	Short: "Clear the build cache of a service and redeploy it",
	Long: `Runs the nightly redeploy of one service: verifies the service exists,
clears its build cache, triggers a fresh deploy and waits until it is live.

Credentials come from RENDER_API_KEY and RENDER_SERVICE_ID. The exit code is
0 only when the deploy went live.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(cmd, func(s *services.NightlyDeployService, ctx context.Context) *models.RunReport {
			return s.Run(ctx)
		})
	},
}

var checkCmd = &cobra.Command{
	Use:           "check",
	Short:         "Verify configuration and service access without deploying",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(cmd, func(s *services.NightlyDeployService, ctx context.Context) *models.RunReport {
			return s.Preflight(ctx)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.Flags().DurationVar(&maxWait, "max-wait", 10*time.Minute, "how long to wait for the deploy to finish")
	rootCmd.Flags().DurationVar(&pollInterval, "poll-interval", 30*time.Second, "pause between deploy status checks")
	rootCmd.Flags().DurationVar(&settleDelay, "settle-delay", 10*time.Second, "pause between the cache clear and the deploy")

	rootCmd.AddCommand(checkCmd)
}

func execute(cmd *cobra.Command, run func(*services.NightlyDeployService, context.Context) *models.RunReport) error {
	config.LoadEnv(envFile)

	// Explicit flags win over the environment
	overrides := map[string]string{
		"max-wait":      "DEPLOY_MAX_WAIT",
		"poll-interval": "DEPLOY_POLL_INTERVAL",
		"settle-delay":  "DEPLOY_SETTLE_DELAY",
	}
	for flag, key := range overrides {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := os.Setenv(key, f.Value.String()); err != nil {
				return err
			}
		}
	}

	logger := utils.NewLogger(cmd.OutOrStdout(), "info", clock.RealClock{})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report := run(services.NewNightlyDeployService(loadSettings(logger), logger), ctx)
	if ctx.Err() != nil {
		logger.Warn("⚠️  Run cancelled by signal")
	}
	if !report.Succeeded() {
		return &exitError{code: report.ExitCode, stage: report.Stage}
	}
	return nil
}

// loadSettings reads the settings and applies their log level to logger
func loadSettings(logger *logrus.Logger) services.SettingsLoader {
	return func() (*config.Settings, error) {
		settings, err := config.Load()
		if err != nil {
			return nil, err
		}
		logger.SetLevel(utils.ParseLevel(settings.LogLevel))
		return settings, nil
	}
}

type exitError struct {
	code  int
	stage models.Stage
}

func (e *exitError) Error() string {
	return fmt.Sprintf("nightly deployment failed after stage %s", e.stage)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if exitErr, ok := err.(*exitError); ok {
			os.Exit(exitErr.code)
		}
		os.Exit(models.ExitFailure)
	}
}
