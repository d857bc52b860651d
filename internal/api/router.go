package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/jeromedesantos12/app-circle/internal/app"
	iauth "github.com/jeromedesantos12/app-circle/internal/auth"
	"github.com/jeromedesantos12/app-circle/internal/cache"
	"github.com/jeromedesantos12/app-circle/internal/handlers"
	"github.com/jeromedesantos12/app-circle/internal/middleware"
	"github.com/jeromedesantos12/app-circle/internal/realtime"
	"github.com/jeromedesantos12/app-circle/internal/services"
	"github.com/jeromedesantos12/app-circle/internal/uploads"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, store cache.Store, hub *realtime.Hub, jwt *iauth.JWTService, storage *uploads.Storage, cfg *app.Config) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if store == nil {
		return nil, fmt.Errorf("cache store must be provided")
	}
	if hub == nil {
		return nil, fmt.Errorf("realtime hub must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if storage == nil {
		return nil, fmt.Errorf("upload storage must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	threadService, err := services.NewThreadService(db, store, hub, storage)
	if err != nil {
		return nil, err
	}
	replyService, err := services.NewReplyService(db, store, hub, storage)
	if err != nil {
		return nil, err
	}
	likeService, err := services.NewLikeService(db, store, hub)
	if err != nil {
		return nil, err
	}
	followService, err := services.NewFollowService(db, store, hub)
	if err != nil {
		return nil, err
	}
	userService, err := services.NewUserService(db, store, hub, storage)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RateLimit(store, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))

	r.GET("/health", handlers.Health())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Static("/uploads", storage.Root())

	authHandler := handlers.NewAuthHandler(userService, jwt, handlers.CookieConfig{
		Domain: cfg.Auth.Cookie.Domain,
		Secure: cfg.Auth.Cookie.Secure,
	})
	userHandler := handlers.NewUserHandler(userService, storage)
	threadHandler := handlers.NewThreadHandler(threadService, storage)
	replyHandler := handlers.NewReplyHandler(replyService, storage)
	likeHandler := handlers.NewLikeHandler(likeService)
	followHandler := handlers.NewFollowHandler(followService)
	realtimeHandler := handlers.NewRealtimeHandler(hub, jwt)

	v1 := r.Group("/api/v1")

	// Guest-only routes: established sessions must not re-authenticate.
	guest := v1.Group("")
	guest.Use(middleware.Guest(jwt))
	{
		guest.POST("/register", authHandler.Register)
		guest.POST("/login", authHandler.Login)
		guest.POST("/forgot", authHandler.Forgot)
		guest.PUT("/reset/:id", authHandler.Reset)
	}

	// The websocket route authenticates itself: browsers cannot attach
	// headers to a websocket dial, so the token rides the query string.
	v1.GET("/ws", realtimeHandler.Serve)

	authed := v1.Group("")
	authed.Use(middleware.Auth(jwt))
	{
		authed.POST("/logout", authHandler.Logout)
		authed.GET("/verify", authHandler.Verify)

		authed.GET("/user", userHandler.List)
		authed.GET("/user/:id", userHandler.GetByID)
		authed.PUT("/user/:id", userHandler.Update)

		authed.GET("/thread", threadHandler.List)
		authed.GET("/thread/:id", threadHandler.GetByID)
		authed.POST("/thread", threadHandler.Create)
		authed.DELETE("/thread/:id", threadHandler.Delete)

		authed.GET("/thread/:id/reply", replyHandler.List)
		authed.POST("/thread/:id/reply", replyHandler.Create)
		authed.DELETE("/reply/:id", replyHandler.Delete)

		authed.POST("/like/:id", likeHandler.Toggle)

		authed.GET("/follow/:id/count", followHandler.Counts)
		authed.GET("/follows/:id", followHandler.Suggested)
		authed.GET("/following/:id", followHandler.Following)
		authed.GET("/followers/:id", followHandler.Followers)
		authed.POST("/follow/:id", followHandler.Toggle)
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
