package router

import (
	"log/slog"
	"net/http"

	"bounce-service/internal/admin"
	"bounce-service/internal/auth"
	"bounce-service/internal/bounce"
	"bounce-service/internal/checkin"
	"bounce-service/internal/livestream"
	"bounce-service/internal/location"
	"bounce-service/internal/middleware"
	"bounce-service/internal/post"
	"bounce-service/internal/realtime"
	"bounce-service/internal/user"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Dependencies carries every handler the router mounts.
type Dependencies struct {
	AuthService       auth.Service
	UserService       user.UserService
	PostService       post.PostService
	CheckInService    checkin.CheckInService
	BounceService     bounce.BounceService
	LocationService   location.LocationService
	LivestreamService livestream.LivestreamService
	AdminService      admin.AdminService

	FeedHandler *realtime.Handler
	Tracker     *livestream.Tracker

	AllowedOrigins []string
	Log            *slog.Logger
}

// New assembles the gin engine: global middleware, the public auth routes,
// the authenticated API surface, the admin console and the websocket
// endpoints.
func New(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Log))
	r.Use(middleware.CORS(deps.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authMW := middleware.NewAuthMiddleware(deps.AuthService, deps.UserService)

	api := r.Group("/api/v1")
	{
		auth.NewHandler(deps.AuthService).RegisterRoutes(api)

		protected := api.Group("")
		protected.Use(authMW.RequireAuth())
		{
			user.NewHandler(deps.UserService).RegisterRoutes(protected)
			post.NewHandler(deps.PostService).RegisterRoutes(protected)
			checkin.NewHandler(deps.CheckInService).RegisterRoutes(protected)
			bounce.NewHandler(deps.BounceService).RegisterRoutes(protected)
			location.NewHandler(deps.LocationService).RegisterRoutes(protected)
			livestream.NewHandler(deps.LivestreamService).RegisterRoutes(protected)
		}

		adminGroup := api.Group("")
		adminGroup.Use(authMW.RequireAuth(), authMW.RequireAdmin())
		{
			admin.NewHandler(deps.AdminService).RegisterRoutes(adminGroup)
		}
	}

	// Websocket endpoints authenticate via query token, not the header
	// middleware: browsers cannot set headers on websocket dials.
	ws := r.Group("/ws")
	{
		ws.GET("/feed", deps.FeedHandler.Feed)
		ws.GET("/livestream/:room_id", deps.Tracker.Track)
	}

	return r
}
