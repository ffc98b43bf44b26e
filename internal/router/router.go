package router

import (
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/worklog/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由。
// requireAuth 为真时 /api 下除登录接口外全部要求会话认证，
// 仅在配置了管理账号时开启（内部工具默认不设防）。
func SetupRouter(api *handler.API, sessionSecret string, requireAuth bool) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("worklog_session", store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	apiGroup := r.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			auth.POST("/login", handler.Login)
			auth.POST("/logout", handler.Logout)
		}

		protected := apiGroup.Group("")
		if requireAuth {
			protected.Use(handler.AuthRequired())
		}
		{
			protected.GET("/products", api.GetProducts)
			protected.POST("/products", api.CreateProduct)
			protected.PUT("/products/:id", api.UpdateProduct)
			protected.DELETE("/products/:id", api.DeleteProduct)

			inventory := protected.Group("/inventory")
			{
				inventory.POST("/inbound", api.ReceiveStock)
				inventory.GET("/logs", api.GetInventoryLogs)
				inventory.DELETE("/logs/:id", api.DeleteInventoryLog)
				inventory.GET("/summary", api.GetInventorySummary)
				inventory.GET("/export", api.ExportInventory)
			}

			protected.GET("/reports", api.GetReport)
			protected.GET("/reports/weeks", api.GetReportWeeks)
			protected.GET("/export", api.ExportReport)

			protected.POST("/tasks", api.CreateTask)
			protected.PUT("/tasks/:id", api.UpdateTask)
			protected.DELETE("/tasks/:id", api.DeleteTask)

			protected.POST("/task-materials", api.AttachMaterial)
			protected.DELETE("/task-materials/:id", api.DetachMaterial)

			protected.GET("/locations", api.GetLocations)
			protected.POST("/locations", api.CreateLocation)
			protected.PUT("/locations/:id", api.UpdateLocation)
			protected.DELETE("/locations/:id", api.DeleteLocation)
		}
	}

	return r
}

// requestLogger 为每个请求生成请求ID并输出结构化访问日志
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		}).Info("request completed")
	}
}
