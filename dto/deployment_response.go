package dto

import (
	"time"

	"github.com/pendeploy-nightly/models"
)

// CreateDeployRequest is the JSON body of POST /services/{id}/deploys
type CreateDeployRequest struct {
	ClearCache string `json:"clearCache"`
}

// NewCreateDeployRequest converts a models.DeployRequest to its wire form
func NewCreateDeployRequest(req models.DeployRequest) CreateDeployRequest {
	policy := req.ClearCache
	if policy == "" {
		policy = models.ClearCacheDoNotClear
	}
	return CreateDeployRequest{ClearCache: string(policy)}
}

// DeployResponse is the platform's JSON representation of a deploy
type DeployResponse struct {
	ID         string     `json:"id,omitempty"`
	Status     string     `json:"status,omitempty"`
	Trigger    string     `json:"trigger,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// ToModel converts the response to a models.DeployRecord, filling the
// placeholder id and the unknown status when the platform omitted them
func (d DeployResponse) ToModel() *models.DeployRecord {
	record := &models.DeployRecord{
		ID:     d.ID,
		Status: models.DeployStatus(d.Status),
	}
	if record.ID == "" {
		record.ID = models.UnknownDeployID
	}
	if record.Status == "" {
		record.Status = models.DeployStatusUnknown
	}
	return record
}

// ErrorResponse is the body the platform returns alongside non-success statuses
type ErrorResponse struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}
