package services

import (
	"context"
	"io"
	"time"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/pendeploy-nightly/config"
	"github.com/pendeploy-nightly/lib/platform"
	"github.com/pendeploy-nightly/models"
	"github.com/pendeploy-nightly/utils"
)

// PlatformClient is the remote API the nightly run drives
type PlatformClient interface {
	DeployStatusGetter
	GetService(ctx context.Context, serviceID string) (*models.ServiceInfo, error)
	ClearCache(ctx context.Context, serviceID string) error
	CreateDeploy(ctx context.Context, serviceID string, req models.DeployRequest) (*models.DeployRecord, error)
}

// SettingsLoader produces the settings of a run
type SettingsLoader func() (*config.Settings, error)

// ClientFactory builds the platform client once settings are known
type ClientFactory func(settings *config.Settings) PlatformClient

// NewPlatformClient is the default ClientFactory
func NewPlatformClient(settings *config.Settings) PlatformClient {
	return platform.NewClient(platform.Options{
		BaseURL: settings.BaseURL,
		Token:   settings.APIToken,
		Timeout: settings.RequestTimeout,
	})
}

// NightlyDeployService sequences cache clear, deploy and wait for one service
type NightlyDeployService struct {
	loadSettings SettingsLoader
	newClient    ClientFactory
	log          logrus.FieldLogger
	clock        clock.Clock
}

// Option customises a NightlyDeployService
type Option func(*NightlyDeployService)

// WithClientFactory replaces the platform client constructor
func WithClientFactory(factory ClientFactory) Option {
	return func(s *NightlyDeployService) {
		s.newClient = factory
	}
}

// WithClock replaces the clock used for the settle delay
func WithClock(clk clock.Clock) Option {
	return func(s *NightlyDeployService) {
		s.clock = clk
	}
}

// NewNightlyDeployService creates a new NightlyDeployService instance
func NewNightlyDeployService(loadSettings SettingsLoader, log logrus.FieldLogger, opts ...Option) *NightlyDeployService {
	s := &NightlyDeployService{
		loadSettings: loadSettings,
		newClient:    NewPlatformClient,
		log:          log,
		clock:        clock.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the whole pipeline. Stages run strictly in order and the
// first failure ends the run; earlier stages are not undone.
func (s *NightlyDeployService) Run(ctx context.Context) *models.RunReport {
	report := &models.RunReport{Stage: models.StageStart, ExitCode: models.ExitFailure}

	s.log.Info("🚀 Starting nightly deployment process")
	s.log.Info("Target: clear the build cache and trigger a fresh deployment")

	settings, client, ok := s.prepare(report)
	if !ok {
		return report
	}
	defer closeClient(client)
	serviceID := settings.ServiceID

	if !s.verifyService(ctx, client, serviceID, report) {
		return report
	}

	s.log.Info("🧹 Clearing build cache...")
	if err := client.ClearCache(ctx, serviceID); err != nil {
		s.log.Errorf("❌ Failed to clear cache: %v", err)
		s.log.Error("❌ Failed to clear build cache. Skipping deployment.")
		report.Err = err
		return report
	}
	s.log.Info("✅ Build cache cleared successfully")
	report.Stage = models.StageCacheCleared

	s.log.Info("⏳ Waiting for cache clear to process...")
	if err := s.sleep(ctx, settings.SettleDelay); err != nil {
		s.log.Errorf("❌ Interrupted while waiting for cache clear: %v", err)
		report.Err = err
		return report
	}

	s.log.Info("🚀 Triggering fresh deployment...")
	deploy, err := client.CreateDeploy(ctx, serviceID, models.DeployRequest{ClearCache: models.ClearCacheDoNotClear})
	if err != nil {
		s.log.Errorf("❌ Failed to trigger deployment: %v", err)
		report.Err = err
		return report
	}
	if deploy.HasPlaceholderID() {
		s.log.Warnf("⚠️  Platform accepted the deploy without an id, polling with placeholder %q", deploy.ID)
	}
	s.log.Infof("✅ Deployment triggered successfully (Deploy ID: %s)", deploy.ID)
	report.Stage = models.StageDeployTriggered
	report.DeployID = deploy.ID

	s.log.Info("⏳ Waiting for deployment to complete...")
	report.Stage = models.StagePolling
	watcher := NewDeploymentWatcher(client, s.log, WatchOptions{
		MaxWait: settings.MaxWait,
		Cadence: FixedCadence(settings.PollInterval),
	})
	result := watcher.WaitForTerminal(ctx, serviceID, deploy.ID)
	report.WaitResult = result
	report.Stage = models.StageTerminal

	if result != models.WaitResultLive {
		s.log.Error("❌ Deployment did not complete successfully")
		report.Err = errors.Errorf("deploy %s ended as %s", deploy.ID, result)
		return report
	}

	s.log.Info("🎉 Nightly deployment completed successfully!")
	report.ExitCode = models.ExitSuccess
	return report
}

// Preflight checks the configuration and that the service exists, without
// touching the cache or triggering anything
func (s *NightlyDeployService) Preflight(ctx context.Context) *models.RunReport {
	report := &models.RunReport{Stage: models.StageStart, ExitCode: models.ExitFailure}

	s.log.Info("🔍 Running nightly deployment preflight")

	settings, client, ok := s.prepare(report)
	if !ok {
		return report
	}
	defer closeClient(client)

	if !s.verifyService(ctx, client, settings.ServiceID, report) {
		return report
	}

	s.log.Info("✅ Preflight passed")
	report.ExitCode = models.ExitSuccess
	return report
}

// prepare loads the settings and builds the client; no client exists before
// the configuration is known to be complete
func (s *NightlyDeployService) prepare(report *models.RunReport) (*config.Settings, PlatformClient, bool) {
	settings, err := s.loadSettings()
	if err != nil {
		missing := config.MissingSettings(err)
		for _, message := range missing {
			s.log.Errorf("ERROR: %s", message)
		}
		if len(missing) == 0 {
			s.log.Errorf("ERROR: %v", err)
		}
		s.log.Error("❌ Environment check failed. Exiting.")
		report.Err = err
		return nil, nil, false
	}
	s.log.Info("Environment variables configured correctly")
	report.Stage = models.StageConfigChecked

	return settings, s.newClient(settings), true
}

func (s *NightlyDeployService) verifyService(ctx context.Context, client PlatformClient, serviceID string, report *models.RunReport) bool {
	service, err := client.GetService(ctx, serviceID)
	if err != nil {
		s.log.Errorf("Failed to get service info: %v", err)
		s.log.Error("❌ Could not retrieve service information. Exiting.")
		report.Err = err
		return false
	}

	s.log.Infof("Service found: %s (ID: %s)", service.DisplayName(), serviceID)
	s.log.WithFields(logrus.Fields{
		"type":      utils.GetString(service.Attributes, "type"),
		"instances": utils.GetInt(service.Attributes, "numInstances"),
	}).Debug("Service details")
	if utils.GetString(service.Attributes, "suspended") == "suspended" {
		s.log.Warn("⚠️  Service is suspended, the deploy may not start")
	}
	report.Service = service
	report.Stage = models.StageServiceVerified
	return true
}

// sleep waits for d on the service clock unless ctx ends first
func (s *NightlyDeployService) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.clock.After(d):
		return nil
	}
}

func closeClient(client PlatformClient) {
	if closer, ok := client.(io.Closer); ok {
		_ = closer.Close()
	}
}
