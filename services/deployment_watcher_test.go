package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendeploy-nightly/lib/platform"
	"github.com/pendeploy-nightly/models"
)

// scriptedStatus answers successive polls from a fixed script; the last step repeats
type scriptedStatus struct {
	mu    sync.Mutex
	steps []pollStep
	calls int
}

type pollStep struct {
	status models.DeployStatus
	err    error
}

func (s *scriptedStatus) GetDeployStatus(ctx context.Context, serviceID, deployID string) (*models.DeployRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.calls
	if index >= len(s.steps) {
		index = len(s.steps) - 1
	}
	s.calls++

	step := s.steps[index]
	if step.err != nil {
		return nil, step.err
	}
	return &models.DeployRecord{ID: deployID, Status: step.status}, nil
}

func (s *scriptedStatus) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func statuses(values ...models.DeployStatus) []pollStep {
	steps := make([]pollStep, 0, len(values))
	for _, v := range values {
		steps = append(steps, pollStep{status: v})
	}
	return steps
}

func newTestWatcher(client DeployStatusGetter, maxWait time.Duration) (*DeploymentWatcher, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewDeploymentWatcher(client, logger, WatchOptions{
		MaxWait: maxWait,
		Cadence: FixedCadence(time.Millisecond),
	}), hook
}

func messages(hook *test.Hook) []string {
	var out []string
	for _, entry := range hook.AllEntries() {
		out = append(out, entry.Message)
	}
	return out
}

func containsMessage(hook *test.Hook, substr string) bool {
	for _, message := range messages(hook) {
		if strings.Contains(message, substr) {
			return true
		}
	}
	return false
}

func TestMaxAttempts(t *testing.T) {
	tests := []struct {
		maxWait time.Duration
		want    int
	}{
		{maxWait: time.Minute, want: 2},
		{maxWait: 10 * time.Minute, want: 20},
		{maxWait: 90 * time.Second, want: 3},
		{maxWait: 10 * time.Second, want: 1},
		{maxWait: 0, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.maxWait.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, MaxAttempts(tt.maxWait))
		})
	}
}

func TestWaitForTerminal(t *testing.T) {
	transient := &platform.RemoteError{Op: "get deploy status", Kind: platform.KindTransport, Err: errors.New("connection refused")}
	unavailable := &platform.RemoteError{Op: "get deploy status", Kind: platform.KindHTTPStatus, StatusCode: http.StatusServiceUnavailable}

	tests := []struct {
		name        string
		steps       []pollStep
		maxWait     time.Duration
		want        models.WaitResult
		wantCalls   int
		wantMessage string
	}{
		{
			name:        "goes live after progress",
			steps:       statuses(models.DeployStatusQueued, models.DeployStatusBuildInProgress, models.DeployStatusLive),
			maxWait:     10 * time.Minute,
			want:        models.WaitResultLive,
			wantCalls:   3,
			wantMessage: "Deployment completed successfully",
		},
		{
			name:        "explicit build failure",
			steps:       statuses(models.DeployStatusQueued, models.DeployStatusBuildFailed),
			maxWait:     10 * time.Minute,
			want:        models.WaitResultFailed,
			wantCalls:   2,
			wantMessage: "Deployment failed with status: build_failed",
		},
		{
			name:        "cancelled deploy",
			steps:       statuses(models.DeployStatusCancelled),
			maxWait:     10 * time.Minute,
			want:        models.WaitResultFailed,
			wantCalls:   1,
			wantMessage: "Deployment failed with status: cancelled",
		},
		{
			name:        "deactivated deploy",
			steps:       statuses(models.DeployStatusUpdateInProgress, models.DeployStatusDeactivated),
			maxWait:     10 * time.Minute,
			want:        models.WaitResultFailed,
			wantCalls:   2,
			wantMessage: "Deployment failed with status: deactivated",
		},
		{
			name:        "times out after exactly the budget",
			steps:       statuses(models.DeployStatusQueued),
			maxWait:     time.Minute,
			want:        models.WaitResultTimedOut,
			wantCalls:   2,
			wantMessage: "timed out after 2 attempts",
		},
		{
			name:        "unrecognised statuses keep polling",
			steps:       statuses("some_new_state", models.DeployStatusUnknown, models.DeployStatusLive),
			maxWait:     10 * time.Minute,
			want:        models.WaitResultLive,
			wantCalls:   3,
			wantMessage: "Deployment status: some_new_state",
		},
		{
			name:        "transient transport error is retried",
			steps:       []pollStep{{err: transient}, {status: models.DeployStatusLive}},
			maxWait:     10 * time.Minute,
			want:        models.WaitResultLive,
			wantCalls:   2,
			wantMessage: "Error checking deployment status",
		},
		{
			name:        "transient status error is retried",
			steps:       []pollStep{{err: unavailable}, {status: models.DeployStatusLive}},
			maxWait:     time.Minute,
			want:        models.WaitResultLive,
			wantCalls:   2,
			wantMessage: "Error checking deployment status",
		},
		{
			name:        "errors until the budget runs out",
			steps:       []pollStep{{err: transient}},
			maxWait:     90 * time.Second,
			want:        models.WaitResultTimedOut,
			wantCalls:   3,
			wantMessage: "timed out after 3 attempts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &scriptedStatus{steps: tt.steps}
			watcher, hook := newTestWatcher(client, tt.maxWait)

			got := watcher.WaitForTerminal(context.Background(), "srv-123", "dep-1")

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCalls, client.Calls())
			assert.True(t, containsMessage(hook, tt.wantMessage), "messages: %v", messages(hook))
		})
	}
}

func TestWaitForTerminal_FailureIsNotReportedAsTimeout(t *testing.T) {
	client := &scriptedStatus{steps: statuses(models.DeployStatusQueued, models.DeployStatusBuildFailed)}
	watcher, hook := newTestWatcher(client, time.Minute)

	got := watcher.WaitForTerminal(context.Background(), "srv-123", "dep-1")

	assert.Equal(t, models.WaitResultFailed, got)
	assert.False(t, containsMessage(hook, "timed out"))
}

func TestWaitForTerminal_TransientErrorLogsKind(t *testing.T) {
	transient := &platform.RemoteError{Op: "get deploy status", Kind: platform.KindTransport, Err: errors.New("dial tcp: connection refused")}
	client := &scriptedStatus{steps: []pollStep{{err: transient}, {status: models.DeployStatusLive}}}
	watcher, hook := newTestWatcher(client, time.Minute)

	watcher.WaitForTerminal(context.Background(), "srv-123", "dep-1")

	var warned *logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warned = entry
			break
		}
	}
	require.NotNil(t, warned)
	assert.Equal(t, "transport", warned.Data["kind"])
	assert.Equal(t, 1, warned.Data["attempt"])
}

func TestWaitForTerminal_Cancelled(t *testing.T) {
	t.Run("before the first attempt", func(t *testing.T) {
		client := &scriptedStatus{steps: statuses(models.DeployStatusQueued)}
		watcher, hook := newTestWatcher(client, 10*time.Minute)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		got := watcher.WaitForTerminal(ctx, "srv-123", "dep-1")

		assert.Equal(t, models.WaitResultCancelled, got)
		assert.Equal(t, 0, client.Calls())
		assert.True(t, containsMessage(hook, "cancelled"))
		assert.False(t, containsMessage(hook, "timed out"))
	})

	t.Run("between attempts", func(t *testing.T) {
		client := &scriptedStatus{steps: statuses(models.DeployStatusQueued)}
		logger, _ := test.NewNullLogger()
		watcher := NewDeploymentWatcher(client, logger, WatchOptions{
			MaxWait: 10 * time.Minute,
			Cadence: FixedCadence(time.Hour),
		})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan models.WaitResult, 1)
		go func() {
			done <- watcher.WaitForTerminal(ctx, "srv-123", "dep-1")
		}()

		require.Eventually(t, func() bool { return client.Calls() == 1 }, time.Second, time.Millisecond)
		cancel()

		select {
		case got := <-done:
			assert.Equal(t, models.WaitResultCancelled, got)
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not stop after cancellation")
		}
		assert.Equal(t, 1, client.Calls())
	})
}
