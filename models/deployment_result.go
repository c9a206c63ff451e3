package models

// Stage is a step of the nightly deployment pipeline
type Stage string

const (
	StageStart           Stage = "start"
	StageConfigChecked   Stage = "config_checked"
	StageServiceVerified Stage = "service_verified"
	StageCacheCleared    Stage = "cache_cleared"
	StageDeployTriggered Stage = "deploy_triggered"
	StagePolling         Stage = "polling"
	StageTerminal        Stage = "terminal"
)

// WaitResult is the outcome of waiting for a deploy to settle
type WaitResult string

const (
	WaitResultLive      WaitResult = "live"
	WaitResultFailed    WaitResult = "failed"
	WaitResultTimedOut  WaitResult = "timed_out"
	WaitResultCancelled WaitResult = "cancelled"
)

// Exit codes understood by the scheduler
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// RunReport describes how far a nightly run got and how it ended
type RunReport struct {
	// Stage is the last stage that completed successfully
	Stage      Stage
	Service    *ServiceInfo
	DeployID   string
	WaitResult WaitResult
	Err        error
	ExitCode   int
}

// Succeeded reports whether the run ended with the deploy live
func (r *RunReport) Succeeded() bool {
	return r.ExitCode == ExitSuccess
}
