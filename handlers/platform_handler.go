package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pendeploy-nightly/dto"
	"github.com/pendeploy-nightly/models"
	"github.com/pendeploy-nightly/repositories"
)

// PlatformHandler serves the simulated deployment platform API
type PlatformHandler struct {
	store *repositories.PlatformStore
}

// NewPlatformHandler creates a handler backed by the given store
func NewPlatformHandler(store *repositories.PlatformStore) *PlatformHandler {
	return &PlatformHandler{store: store}
}

// GetService handles GET /services/:serviceId
func (h *PlatformHandler) GetService(c *gin.Context) {
	serviceID := c.Param("serviceId")
	h.store.RecordCall(repositories.Call{Op: repositories.OpGetService, ServiceID: serviceID})

	service, ok := h.lookup(c, serviceID)
	if !ok {
		return
	}
	if code := service.Behavior.GetServiceStatus; code != 0 && code != http.StatusOK {
		c.JSON(code, dto.ErrorResponse{Message: http.StatusText(code)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           service.ID,
		"name":         service.Name,
		"type":         service.Type,
		"slug":         service.Name,
		"suspended":    "not_suspended",
		"autoDeploy":   "yes",
		"numInstances": 1,
	})
}

// ClearCache handles POST /services/:serviceId/clear-cache
func (h *PlatformHandler) ClearCache(c *gin.Context) {
	serviceID := c.Param("serviceId")
	h.store.RecordCall(repositories.Call{Op: repositories.OpClearCache, ServiceID: serviceID})

	service, ok := h.lookup(c, serviceID)
	if !ok {
		return
	}

	code := h.store.ClearCache(service)
	if code != http.StatusOK && code != http.StatusAccepted {
		c.JSON(code, dto.ErrorResponse{Message: "cache clear rejected"})
		return
	}

	logrus.Infof("🧹 Build cache cleared for %s", serviceID)
	c.Status(code)
}

// CreateDeploy handles POST /services/:serviceId/deploys
func (h *PlatformHandler) CreateDeploy(c *gin.Context) {
	serviceID := c.Param("serviceId")
	h.store.RecordCall(repositories.Call{Op: repositories.OpCreateDeploy, ServiceID: serviceID})

	service, ok := h.lookup(c, serviceID)
	if !ok {
		return
	}

	var req dto.CreateDeployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "invalid request body: " + err.Error()})
		return
	}
	if req.ClearCache == "" {
		req.ClearCache = string(models.ClearCacheDoNotClear)
	}

	deploy, code := h.store.CreateDeploy(service, req.ClearCache)
	if deploy == nil {
		c.JSON(code, dto.ErrorResponse{Message: "deploy rejected"})
		return
	}

	logrus.Infof("🚀 Deploy %s created for %s (clearCache=%s)", deploy.ID, serviceID, req.ClearCache)

	response := toDeployResponse(*deploy)
	if service.Behavior.OmitDeployID {
		response.ID = ""
	}
	c.JSON(code, response)
}

// GetDeploy handles GET /services/:serviceId/deploys/:deployId
func (h *PlatformHandler) GetDeploy(c *gin.Context) {
	serviceID := c.Param("serviceId")
	deployID := c.Param("deployId")
	h.store.RecordCall(repositories.Call{Op: repositories.OpGetDeploy, ServiceID: serviceID, DeployID: deployID})

	service, ok := h.lookup(c, serviceID)
	if !ok {
		return
	}

	deploy, code, found := h.store.NextStatus(service, deployID)
	if !found {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "not found"})
		return
	}
	if code != http.StatusOK {
		c.JSON(code, dto.ErrorResponse{Message: http.StatusText(code)})
		return
	}

	c.JSON(http.StatusOK, toDeployResponse(deploy))
}

func (h *PlatformHandler) lookup(c *gin.Context, serviceID string) (repositories.PlatformService, bool) {
	service, ok := h.store.FindService(serviceID)
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "not found"})
		return repositories.PlatformService{}, false
	}
	return service, true
}

func toDeployResponse(deploy repositories.PlatformDeploy) dto.DeployResponse {
	createdAt := deploy.CreatedAt
	updatedAt := deploy.UpdatedAt
	response := dto.DeployResponse{
		ID:        deploy.ID,
		Status:    deploy.Status,
		Trigger:   "api",
		CreatedAt: &createdAt,
		UpdatedAt: &updatedAt,
	}
	if models.DeployStatus(deploy.Status).IsTerminal() {
		response.FinishedAt = &updatedAt
	}
	return response
}
