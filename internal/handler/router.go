package handler

import (
	"net/http"

	"github.com/Pradeepvanguru/Testing-Tool/internal/service"
	"github.com/Pradeepvanguru/Testing-Tool/internal/websocket"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// Services bundles what the router serves.
type Services struct {
	Auth      service.AuthService
	Catalog   service.CatalogService
	Steps     service.StepService
	Execution service.ExecutionService
	Hub       *websocket.Hub
}

// NewRouter builds the HTTP API. Every route under /api except register and
// login requires a bearer token.
func NewRouter(svc Services, logger *log.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	r.Use(CORS())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "route not found"})
	})

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "testing-tool",
		})
	})

	public := r.Group("/api")
	protected := r.Group("/api", RequireAuth(svc.Auth))

	NewAuthHandler(svc.Auth).RegisterRoutes(public, protected)
	NewCatalogHandler(svc.Catalog).RegisterRoutes(protected)
	NewStepHandler(svc.Steps).RegisterRoutes(protected)
	NewExecutionHandler(svc.Execution, svc.Hub, logger).RegisterRoutes(protected)

	return r
}
