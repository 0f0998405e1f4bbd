package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"campusevents/cmd/middleware"
	"campusevents/internal/service"
)

type Routers struct {
	Service service.Service
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())
	apiGroup := app.Group("/v1")

	apiGroup.POST("/auth/register", r.Service.RegisterUser)
	apiGroup.POST("/auth/login", r.Service.Login)

	apiGroup.POST("/events", r.Service.CreateEvent)
	apiGroup.GET("/events", r.Service.GetAllEvents)
	apiGroup.DELETE("/events/:id", r.Service.DeleteEvent)
	apiGroup.POST("/events/:id/register", r.Service.RegisterForEvent)

	apiGroup.GET("/participants/:username/events", r.Service.UpcomingEvents)

	apiGroup.POST("/notifications/bulk", r.Service.BulkNotify)

	return app
}
