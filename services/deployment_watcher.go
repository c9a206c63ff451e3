package services

import (
	"context"
	"time"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/pendeploy-nightly/lib/platform"
	"github.com/pendeploy-nightly/models"
)

// NominalPollInterval is the cadence the attempt budget is counted against:
// two attempts per minute of MaxWait, whatever the actual sleep interval is.
const NominalPollInterval = 30 * time.Second

// DeployStatusGetter fetches the current state of a deploy
type DeployStatusGetter interface {
	GetDeployStatus(ctx context.Context, serviceID, deployID string) (*models.DeployRecord, error)
}

// WatchOptions configures a DeploymentWatcher
type WatchOptions struct {
	// MaxWait is the poll budget
	MaxWait time.Duration
	// Cadence spaces attempts; its Steps field is replaced by the attempt budget
	Cadence wait.Backoff
}

// FixedCadence returns a backoff that always sleeps interval between attempts
func FixedCadence(interval time.Duration) wait.Backoff {
	return wait.Backoff{
		Duration: interval,
		Factor:   1.0,
	}
}

// MaxAttempts returns the number of status checks allowed by maxWait
func MaxAttempts(maxWait time.Duration) int {
	attempts := int(maxWait / NominalPollInterval)
	if attempts < 1 {
		attempts = 1
	}
	return attempts
}

// DeploymentWatcher polls a deploy until it reaches a terminal status
type DeploymentWatcher struct {
	client  DeployStatusGetter
	log     logrus.FieldLogger
	maxWait time.Duration
	cadence wait.Backoff
}

// NewDeploymentWatcher creates a watcher polling through client
func NewDeploymentWatcher(client DeployStatusGetter, log logrus.FieldLogger, options WatchOptions) *DeploymentWatcher {
	return &DeploymentWatcher{
		client:  client,
		log:     log,
		maxWait: options.MaxWait,
		cadence: options.Cadence,
	}
}

// WaitForTerminal polls until the deploy goes live, fails, the attempt budget
// runs out, or ctx is cancelled. Errors from the status call are retried.
func (w *DeploymentWatcher) WaitForTerminal(ctx context.Context, serviceID, deployID string) models.WaitResult {
	maxAttempts := MaxAttempts(w.maxWait)
	backoff := w.cadence
	backoff.Steps = maxAttempts

	attempt := 0
	result := models.WaitResultTimedOut

	err := wait.ExponentialBackoffWithContext(ctx, backoff, func(ctx context.Context) (bool, error) {
		attempt++
		log := w.log.WithField("attempt", attempt)

		record, err := w.client.GetDeployStatus(ctx, serviceID, deployID)
		if err != nil {
			kind := "unknown"
			var remoteErr *platform.RemoteError
			if errors.As(err, &remoteErr) {
				kind = remoteErr.Kind.String()
			}
			log.WithField("kind", kind).Warnf("Error checking deployment status: %v", err)
			return attempt >= maxAttempts, nil
		}

		log.Infof("Deployment status: %s", record.Status)

		switch {
		case record.Status.IsSuccess():
			result = models.WaitResultLive
			return true, nil
		case record.Status.IsFailure():
			result = models.WaitResultFailed
			w.log.Errorf("❌ Deployment failed with status: %s", record.Status)
			return true, nil
		}
		return attempt >= maxAttempts, nil
	})

	if result == models.WaitResultLive {
		w.log.Info("✅ Deployment completed successfully!")
		return result
	}
	if result == models.WaitResultFailed {
		return result
	}

	if ctx.Err() != nil {
		w.log.Warnf("⚠️  Deployment status check cancelled after %d attempts: %v", attempt, ctx.Err())
		return models.WaitResultCancelled
	}
	if err != nil && !wait.Interrupted(err) {
		w.log.Warnf("⚠️  Deployment status check stopped: %v", err)
	}

	w.log.Warnf("⚠️  Deployment status check timed out after %d attempts", attempt)
	return models.WaitResultTimedOut
}
