package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/pendeploy-nightly/handlers"
	"github.com/pendeploy-nightly/middleware"
	"github.com/pendeploy-nightly/repositories"
)

// SetupPlatformRoutes mounts the simulated platform API under /v1
func SetupPlatformRoutes(router *gin.Engine, handler *handlers.PlatformHandler, token string) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "fake-platform",
		})
	})

	api := router.Group("/v1")
	api.Use(middleware.BearerAuth(token))
	{
		services := api.Group("/services/:serviceId")
		{
			services.GET("", handler.GetService)
			services.POST("/clear-cache", handler.ClearCache)
			services.POST("/deploys", handler.CreateDeploy)
			services.GET("/deploys/:deployId", handler.GetDeploy)
		}
	}
}

// NewPlatformRouter builds a gin engine serving a simulated platform backed by store
func NewPlatformRouter(store *repositories.PlatformStore, token string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	SetupPlatformRoutes(router, handlers.NewPlatformHandler(store), token)
	return router
}
