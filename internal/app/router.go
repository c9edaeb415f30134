package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lessonhub/internal/domain/booking"
	"lessonhub/internal/domain/chat"
	"lessonhub/internal/domain/notification"
	"lessonhub/internal/domain/refund"
	"lessonhub/internal/middleware"
	"lessonhub/internal/pkg/jwt"
)

type RouterConfig struct {
	InternalToken      string
	CORSAllowedOrigins []string
}

func NewRouter(c *Container, jwtService *jwt.Service, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorLogger(logger))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	bookingHandler := booking.NewHandler(c.Bookings)
	refundHandler := refund.NewHandler(c.Refunds)
	chatHandler := chat.NewHandler(c.Chat, c.Chat)
	notificationHandler := notification.NewHandler(c.Notifications)

	v1 := r.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(jwtService))
		{
			bookingHandler.RegisterRoutes(protected)
			chatHandler.RegisterRoutes(protected)
			notificationHandler.RegisterRoutes(protected)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.JWTAuth(jwtService), middleware.AdminOnly())
		{
			refundHandler.RegisterRoutes(admin)
			chatHandler.RegisterAdminRoutes(admin)
		}

		internal := v1.Group("/internal")
		internal.Use(middleware.InternalTokenAuth(cfg.InternalToken, logger))
		{
			bookingHandler.RegisterInternalRoutes(internal)
		}
	}

	return r
}
