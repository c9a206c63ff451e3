package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/pendeploy-nightly/config"
	"github.com/pendeploy-nightly/repositories"
	"github.com/pendeploy-nightly/routes"
)

// Runs a local stand-in for the deployment platform so the nightly job can be
// exercised end to end:
//
//	FAKE_STATUS_SCRIPT=queued,http:503,live go run scripts/fake-platform.go
//	RENDER_API_BASE_URL=http://localhost:8089/v1 go run . --settle-delay 1s --poll-interval 2s
func main() {
	_ = godotenv.Load()
	gin.SetMode(gin.ReleaseMode)

	token := config.GetEnv(config.APITokenEnv, "rnd_local_token")
	serviceID := config.GetEnv("FAKE_SERVICE_ID", config.GetEnv(config.ServiceIDEnv, "srv-local"))

	store := repositories.NewPlatformStore()
	store.AddService(repositories.PlatformService{
		ID:   serviceID,
		Name: config.GetEnv("FAKE_SERVICE_NAME", "nightly-webapp"),
		Behavior: repositories.ServiceBehavior{
			StatusScript: repositories.ParseStatusScript(os.Getenv("FAKE_STATUS_SCRIPT")),
		},
	})

	port := config.GetEnv("PORT", "8089")

	logrus.Infof("🚀 Fake platform starting on port %s", port)
	logrus.Infof("💡 Serving service %s", serviceID)
	if err := routes.NewPlatformRouter(store, token).Run(":" + port); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}
