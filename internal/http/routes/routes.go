package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/flyer-maker/internal/http/handlers"
	"github.com/phambaophuc/flyer-maker/internal/http/middleware"
	"go.uber.org/zap"
)

type Router struct {
	flyerHandler *handlers.FlyerHandler
	logger       *zap.Logger
}

func NewRouter(
	flyerHandler *handlers.FlyerHandler,
	logger *zap.Logger,
) *Router {
	return &Router{
		flyerHandler: flyerHandler,
		logger:       logger,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.flyerHandler.HealthCheck)
		v1.GET("/stats", r.flyerHandler.GetStats)
		v1.GET("/template", r.flyerHandler.Template)

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", r.flyerHandler.CreateSession)
			sessions.GET("/:id", r.flyerHandler.GetSession)
			sessions.DELETE("/:id", r.flyerHandler.DeleteSession)

			sessions.POST("/:id/photo", middleware.RequireMultipart(), r.flyerHandler.UploadPhoto)
			sessions.POST("/:id/pointer", r.flyerHandler.Pointer)
			sessions.GET("/:id/pointer/ws", r.flyerHandler.PointerStream)
			sessions.PUT("/:id/scale", r.flyerHandler.SetScale)
			sessions.GET("/:id/preview", r.flyerHandler.Preview)

			sessions.POST("/:id/crop", r.flyerHandler.Confirm)
			sessions.POST("/:id/cancel", r.flyerHandler.Cancel)
			sessions.POST("/:id/reset", r.flyerHandler.Reset)
			sessions.GET("/:id/flyer", r.flyerHandler.DownloadFlyer)
			sessions.GET("/:id/cropped", r.flyerHandler.CroppedPhoto)
		}
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Flyer maker is running",
		})
	})

	return router
}
