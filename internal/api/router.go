package api

import (
	"github.com/gin-gonic/gin"

	"github.com/resocorp/jollofexpress-sub000/internal/api/handlers"
	"github.com/resocorp/jollofexpress-sub000/internal/api/middleware"
	"github.com/resocorp/jollofexpress-sub000/internal/db"
	"github.com/resocorp/jollofexpress-sub000/internal/printer"
	"github.com/resocorp/jollofexpress-sub000/internal/queue"
)

type RouterDeps struct {
	Jobs      *db.JobStore
	Orders    *db.OrderStore
	Settings  *db.SettingsStore
	Processor *queue.Processor
	Printer   *printer.Client
	Hub       *handlers.Hub
}

// NewRouter builds the staff-facing HTTP surface. Everything except auth and
// the health probe sits behind the session cookie.
func NewRouter(deps RouterDeps) (*gin.Engine, error) {
	auth, err := middleware.NewAuthMiddleware(deps.Settings)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	router.POST("/api/auth/setup", auth.SetupHandler)
	router.POST("/api/auth/login", auth.LoginHandler)
	router.POST("/api/auth/logout", auth.LogoutHandler)
	router.GET("/api/auth/status", auth.StatusHandler)

	apiGroup := router.Group("/api")
	apiGroup.Use(auth.RequireAuth())
	{
		handlers.RegisterOrderRoutes(apiGroup, handlers.NewOrderHandler(deps.Orders, deps.Processor))
		handlers.RegisterJobRoutes(apiGroup, handlers.NewJobHandler(deps.Jobs, deps.Processor))
		handlers.RegisterPrinterRoutes(apiGroup, handlers.NewPrinterAPIHandler(deps.Printer))
		apiGroup.GET("/ws", deps.Hub.ServeWS)
	}

	return router, nil
}
