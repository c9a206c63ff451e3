package models

// DeployStatus represents the lifecycle status the platform reports for a deploy
type DeployStatus string

const (
	DeployStatusCreated             DeployStatus = "created"
	DeployStatusQueued              DeployStatus = "queued"
	DeployStatusBuildInProgress     DeployStatus = "build_in_progress"
	DeployStatusUpdateInProgress    DeployStatus = "update_in_progress"
	DeployStatusPreDeployInProgress DeployStatus = "pre_deploy_in_progress"
	DeployStatusLive                DeployStatus = "live"
	DeployStatusBuildFailed         DeployStatus = "build_failed"
	DeployStatusCancelled           DeployStatus = "cancelled"
	DeployStatusDeactivated         DeployStatus = "deactivated"
	DeployStatusUnknown             DeployStatus = "unknown"
)

// UnknownDeployID is used when the platform accepts a deploy but omits its id
const UnknownDeployID = "Unknown"

// IsSuccess reports whether the deploy reached the live state
func (s DeployStatus) IsSuccess() bool {
	return s == DeployStatusLive
}

// IsFailure reports whether the deploy ended without going live
func (s DeployStatus) IsFailure() bool {
	switch s {
	case DeployStatusBuildFailed, DeployStatusCancelled, DeployStatusDeactivated:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is expected
func (s DeployStatus) IsTerminal() bool {
	return s.IsSuccess() || s.IsFailure()
}

// ClearCachePolicy tells the platform whether to drop the build cache on deploy
type ClearCachePolicy string

const (
	ClearCacheDoNotClear ClearCachePolicy = "do_not_clear"
)

// DeployRequest represents the body sent when triggering a deploy.
// The cache is cleared in a separate step, so the nightly run always
// sends ClearCacheDoNotClear.
type DeployRequest struct {
	ClearCache ClearCachePolicy
}

// DeployRecord is the orchestrator's view of a platform deploy
type DeployRecord struct {
	ID     string
	Status DeployStatus
}

// HasPlaceholderID reports whether the platform omitted the deploy id
func (d *DeployRecord) HasPlaceholderID() bool {
	return d.ID == UnknownDeployID
}
