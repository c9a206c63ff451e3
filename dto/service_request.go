package dto

import (
	"github.com/pendeploy-nightly/models"
)

// ServiceResponse is the subset of the platform's service JSON we rely on.
// The full document is kept alongside it as raw attributes.
type ServiceResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ToModel converts the response plus its raw attributes to a models.ServiceInfo
func (s ServiceResponse) ToModel(attributes map[string]interface{}) *models.ServiceInfo {
	return &models.ServiceInfo{
		ID:         s.ID,
		Name:       s.Name,
		Attributes: attributes,
	}
}
